package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildVIN inserts the computed check character at position 8 of a
// 16-character skeleton, yielding a checksum-valid 17-character VIN.
func buildVIN(t *testing.T, skeleton string) string {
	t.Helper()
	require.Len(t, skeleton, 16)

	withPlaceholder := skeleton[:8] + "0" + skeleton[8:]
	check, ok := VINCheckDigit(withPlaceholder)
	require.True(t, ok)
	return skeleton[:8] + string(check) + skeleton[8:]
}

func TestExtractVINCandidatesRenaultPrefix(t *testing.T) {
	got := ExtractVINCandidates("plate says vf1rja0001234567 end")
	require.NotEmpty(t, got)
	assert.Contains(t, got, "VF1RJA0001234567")
}

func TestExtractVINCandidatesDaciaPrefix(t *testing.T) {
	got := ExtractVINCandidates("UU1DJF000987654")
	assert.Contains(t, got, "UU1DJF000987654")
}

func TestExtractVINCandidatesGenericRun(t *testing.T) {
	// No registered prefix, but VIN-shaped.
	got := ExtractVINCandidates("WDBRF52H000000000")
	assert.Contains(t, got, "WDBRF52H000000000")
}

func TestExtractVINCandidatesDeduplicates(t *testing.T) {
	got := ExtractVINCandidates("VF1ABCDEFG123456")
	count := 0
	for _, c := range got {
		if c == "VF1ABCDEFG123456" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExtractVINCandidatesNone(t *testing.T) {
	assert.Empty(t, ExtractVINCandidates("short text 123"))
}

func TestValidateVIN(t *testing.T) {
	tests := []struct {
		name string
		vin  string
		want bool
	}{
		{"empty", "", false},
		{"too short", "VF1ABCD", false},
		{"minimum length", "VF1ABCD0", true},
		{"contains I", "VF1ABCDI8", false},
		{"contains O", "VF1ABCDO8", false},
		{"contains Q", "VF1ABCDQ8", false},
		{"lowercase rejected", "vf1abcd08", false},
		{"unregistered prefix accepted", "ZZZ12345", true},
		{"full length", "VF1RJA00012345678", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateVIN(tt.vin))
		})
	}
}

func TestVINCheckDigitKnownValue(t *testing.T) {
	// Standard worked example: 11111111111111111 has check digit 1.
	check, ok := VINCheckDigit("11111111111111111")
	require.True(t, ok)
	assert.Equal(t, byte('1'), check)
	assert.True(t, ValidateVINCheckDigit("11111111111111111"))
}

func TestVINCheckDigitWrongLength(t *testing.T) {
	_, ok := VINCheckDigit("VF1RJA000")
	assert.False(t, ok)
	assert.False(t, ValidateVINCheckDigit("VF1RJA000"))
}

func TestVINCheckDigitBadCharacter(t *testing.T) {
	_, ok := VINCheckDigit("VF1RJAO0012345678") // contains O
	assert.False(t, ok)
}

func TestCheckDigitConstructThenValidate(t *testing.T) {
	skeletons := []string{
		"VF1RJA0001234567",
		"UU1DJF0009876543",
		"WDBRF52H00000000",
	}
	for _, skeleton := range skeletons {
		vin := buildVIN(t, skeleton)
		assert.True(t, ValidateVINCheckDigit(vin), "vin %s", vin)
	}
}

func TestCheckDigitDetectsMutation(t *testing.T) {
	vin := buildVIN(t, "VF1RJA0001234567")
	require.True(t, ValidateVINCheckDigit(vin))

	// At least one single-character mutation away from position 8 must
	// break the checksum.
	broken := false
	for i := 0; i < len(vin) && !broken; i++ {
		if i == 8 {
			continue
		}
		for _, c := range []byte{'0', '7', 'A', 'Z'} {
			if vin[i] == c {
				continue
			}
			mutated := vin[:i] + string(c) + vin[i+1:]
			if !ValidateVINCheckDigit(mutated) {
				broken = true
				break
			}
		}
	}
	assert.True(t, broken)
}

func TestCheckDigitWrongNinthCharacter(t *testing.T) {
	vin := buildVIN(t, "VF1RJA0001234567")

	wrong := byte('0')
	if vin[8] == '0' {
		wrong = '1'
	}
	mutated := vin[:8] + string(wrong) + vin[9:]
	assert.False(t, ValidateVINCheckDigit(mutated))
	assert.True(t, ValidateVINCheckDigit(vin))
}

func TestVINCheckDigitRemainderTen(t *testing.T) {
	// This skeleton's weighted sum is congruent to 10 mod 11, which must be
	// written as 'X'.
	check, ok := VINCheckDigit("VF1RJA00001234505")
	require.True(t, ok)
	assert.Equal(t, byte('X'), check)
	assert.True(t, ValidateVINCheckDigit("VF1RJA00X01234505"))
}
