package main

import "github.com/MeKo-Tech/platecode/cmd/platecode/cmd"

func main() {
	cmd.Execute()
}
