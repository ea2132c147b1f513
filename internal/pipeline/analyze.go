package pipeline

import (
	"strings"

	"github.com/MeKo-Tech/platecode/internal/lexicon"
)

// AnalyzeText matches one OCR text against the lexicon and VIN structure.
// An exact catalog hit short-circuits everything else. Otherwise VIN-shaped
// candidates are extracted and classified, and fuzzy catalog matches are
// appended; one line can plausibly carry several signals, so the result is
// a sequence rather than a single best answer. Confidences are per-text
// only; the caller composes them with OCR confidence and fills in geometry.
func (p *Pipeline) AnalyzeText(text string) []DetectionResult {
	if info, ok := p.lex.FindExact(text); ok {
		return []DetectionResult{resultFromCode(info, MethodExact)}
	}

	var results []DetectionResult
	for _, vin := range lexicon.ExtractVINCandidates(text) {
		if !lexicon.ValidateVIN(vin) {
			continue
		}
		// Full-length VINs carry a checksum; anything 17 chars long that
		// fails it is a misread, not a code.
		if len(vin) == lexicon.VINLength && !lexicon.ValidateVINCheckDigit(vin) {
			continue
		}
		if info, ok := p.classifyVIN(vin); ok {
			results = append(results, resultFromCode(info, MethodOCR))
		}
	}

	for _, info := range p.lex.FindFuzzy(text, p.cfg.FuzzyThreshold) {
		results = append(results, resultFromCode(info, MethodFuzzy))
	}
	return results
}

// classifyVIN attributes a structurally valid VIN candidate: a registered
// WMI prefix identifies the manufacturer at 0.9 confidence; failing that,
// an embedded model code (first hit in catalog order, not leftmost in the
// string) identifies the line at 0.8.
func (p *Pipeline) classifyVIN(vin string) (lexicon.CodeInfo, bool) {
	if len(vin) < 3 {
		return lexicon.CodeInfo{}, false
	}
	if manufacturer, ok := p.lex.WMIPrefix(vin[:3]); ok {
		return lexicon.CodeInfo{
			Code:         vin,
			Manufacturer: manufacturer,
			Category:     lexicon.CategoryVIN,
			Confidence:   0.9,
		}, true
	}
	var found lexicon.CodeInfo
	var ok bool
	p.lex.ModelCodes(func(code, model string) bool {
		if strings.Contains(vin, code) {
			found = lexicon.CodeInfo{
				Code:         vin,
				Manufacturer: "Renault/Dacia",
				Model:        model,
				Category:     lexicon.CategoryVIN,
				Confidence:   0.8,
			}
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

func resultFromCode(info lexicon.CodeInfo, method string) DetectionResult {
	return DetectionResult{
		Code:         info.Code,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		Category:     info.Category,
		Confidence:   info.Confidence,
		Method:       method,
	}
}
