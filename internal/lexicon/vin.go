package lexicon

import (
	"regexp"
	"sort"
	"strings"
)

// VIN extraction patterns, in priority order: Renault-prefixed, Dacia-prefixed,
// then any VIN-shaped alphanumeric run. The generic pattern excludes I, O and Q,
// which are not part of the VIN alphabet.
var vinPatterns = []*regexp.Regexp{
	regexp.MustCompile(`VF1[A-Z0-9]{10,16}`),
	regexp.MustCompile(`UU1[A-Z0-9]{10,16}`),
	regexp.MustCompile(`[A-HJ-NPR-Z0-9]{11,17}`),
}

// vinCheckWeights are the ISO 3779 position weights; position 8 (the check
// digit itself) carries weight 0.
var vinCheckWeights = [17]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}

// vinCharValues maps the 33-character VIN alphabet to its numeric
// transliteration: digits map to themselves, letters follow the standard
// check-digit weighting sequence. I, O and Q are absent from the domain.
var vinCharValues = map[byte]int{
	'0': 0, '1': 1, '2': 2, '3': 3, '4': 4, '5': 5, '6': 6, '7': 7, '8': 8, '9': 9,
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5,
	'P': 7, 'R': 9,
	'S': 2, 'T': 3, 'U': 4, 'V': 5, 'W': 6, 'X': 7, 'Y': 8, 'Z': 9,
}

// VINLength is the ISO VIN length; only candidates of exactly this length are
// subject to check-digit validation.
const VINLength = 17

// ExtractVINCandidates scans uppercased text for VIN-shaped substrings using
// all three patterns and returns the deduplicated union, sorted for
// deterministic output (candidate order carries no meaning).
func ExtractVINCandidates(text string) []string {
	upper := strings.ToUpper(text)
	seen := make(map[string]struct{})
	for _, pat := range vinPatterns {
		for _, m := range pat.FindAllString(upper, -1) {
			seen[m] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ValidateVIN performs the structural check: non-empty, at least 8
// characters, and every character inside the VIN alphabet (A-Z minus I, O, Q,
// plus digits). A recognized WMI prefix is a bonus signal, not a gate:
// partial or obscured plates still yield useful shorter codes, so the
// permissive contract is deliberate. Full 17-character candidates must
// additionally pass ValidateVINCheckDigit.
func ValidateVIN(vin string) bool {
	if len(vin) < 8 {
		return false
	}
	for i := range len(vin) {
		if _, ok := vinCharValues[vin[i]]; !ok {
			return false
		}
	}
	return true
}

// VINCheckDigit computes the expected check character for a 17-character VIN:
// transliterate each character, multiply by the position weight, sum, mod 11.
// A remainder of 10 is written as 'X'. The second return is false when the
// VIN has the wrong length or contains a character outside the VIN alphabet.
func VINCheckDigit(vin string) (byte, bool) {
	if len(vin) != VINLength {
		return 0, false
	}
	sum := 0
	for i := range VINLength {
		v, ok := vinCharValues[vin[i]]
		if !ok {
			return 0, false
		}
		sum += v * vinCheckWeights[i]
	}
	rem := sum % 11
	if rem == 10 {
		return 'X', true
	}
	return byte('0' + rem), true
}

// ValidateVINCheckDigit reports whether a 17-character VIN's position-8
// character equals the computed check digit. Malformed input is simply not a
// valid VIN; no error escapes.
func ValidateVINCheckDigit(vin string) bool {
	expected, ok := VINCheckDigit(vin)
	if !ok {
		return false
	}
	return vin[8] == expected
}
