// Package lexicon holds the catalog of known manufacturer (WMI) and model
// identification codes together with the text-side matching logic: OCR-noise
// normalization, exact and fuzzy lookup, and VIN structural validation.
// A Lexicon is immutable after construction and safe for concurrent reads.
package lexicon

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

//go:embed codes.yaml
var codesYAML []byte

// Category classifies what kind of code a match refers to.
const (
	CategoryWMI   = "WMI"
	CategoryModel = "Model"
	CategoryVIN   = "VIN"
)

// CodeInfo is the metadata attached to a matched code. Immutable value.
type CodeInfo struct {
	Code         string  `json:"code"`
	Manufacturer string  `json:"manufacturer"`
	Model        string  `json:"model,omitempty"`
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
}

type wmiEntry struct {
	Code         string `yaml:"code"`
	Manufacturer string `yaml:"manufacturer"`
}

type modelEntry struct {
	Code  string `yaml:"code"`
	Model string `yaml:"model"`
}

type catalogFile struct {
	WMI   []wmiEntry   `yaml:"wmi"`
	Model []modelEntry `yaml:"model"`
}

// Lexicon is the in-memory code catalog. The two tables are disjoint: a code
// never appears in both. Catalog order (WMI entries first, then model
// entries) is preserved for stable fuzzy-match tie-breaking.
type Lexicon struct {
	wmi    map[string]string // code -> manufacturer
	models map[string]string // code -> model name
	order  []string          // all codes in catalog order
}

// modelManufacturer is reported for model-code matches; the model tables in
// scope are Renault-group plates.
const modelManufacturer = "Renault/Dacia"

// charReplacements corrects glyphs commonly confused by OCR engines with the
// digit they resemble. Applied after uppercasing and alphanumeric stripping.
var charReplacements = map[rune]rune{
	'O': '0', 'I': '1', 'S': '5', 'B': '8',
	'G': '6', 'Z': '2', 'Q': '0', 'D': '0',
}

// Load parses a YAML catalog and builds a Lexicon. It rejects duplicate
// codes and codes present in both tables.
func Load(data []byte) (*Lexicon, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse code catalog: %w", err)
	}
	lex := &Lexicon{
		wmi:    make(map[string]string, len(file.WMI)),
		models: make(map[string]string, len(file.Model)),
	}
	for _, e := range file.WMI {
		if _, dup := lex.wmi[e.Code]; dup {
			return nil, fmt.Errorf("duplicate WMI code %q", e.Code)
		}
		lex.wmi[e.Code] = e.Manufacturer
		lex.order = append(lex.order, e.Code)
	}
	for _, e := range file.Model {
		if _, dup := lex.models[e.Code]; dup {
			return nil, fmt.Errorf("duplicate model code %q", e.Code)
		}
		if _, clash := lex.wmi[e.Code]; clash {
			return nil, fmt.Errorf("code %q present in both WMI and model tables", e.Code)
		}
		lex.models[e.Code] = e.Model
		lex.order = append(lex.order, e.Code)
	}
	return lex, nil
}

// Default returns the Lexicon built from the embedded catalog. The embedded
// data is validated at package init, so this never fails at runtime.
func Default() *Lexicon { return defaultLexicon }

var defaultLexicon = func() *Lexicon {
	lex, err := Load(codesYAML)
	if err != nil {
		panic(fmt.Sprintf("lexicon: embedded catalog invalid: %v", err))
	}
	return lex
}()

// Normalize prepares OCR output for comparison: NFKC folding (full-width
// forms collapse to ASCII), uppercasing, stripping everything but letters and
// digits, then mapping commonly confused glyphs to their canonical digit.
// Normalize is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	folded := strings.ToUpper(norm.NFKC.String(text))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			continue
		}
		if rep, ok := charReplacements[r]; ok {
			r = rep
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FindExact looks the normalized text up in the WMI table first, then the
// model table. A hit is returned with confidence 1.0.
func (l *Lexicon) FindExact(text string) (CodeInfo, bool) {
	normalized := Normalize(text)
	if m, ok := l.wmi[normalized]; ok {
		return CodeInfo{
			Code:         normalized,
			Manufacturer: m,
			Category:     CategoryWMI,
			Confidence:   1.0,
		}, true
	}
	if m, ok := l.models[normalized]; ok {
		return CodeInfo{
			Code:         normalized,
			Manufacturer: modelManufacturer,
			Model:        m,
			Category:     CategoryModel,
			Confidence:   1.0,
		}, true
	}
	return CodeInfo{}, false
}

// FindFuzzy returns all catalog codes whose similarity ratio to the
// normalized text reaches threshold, sorted by similarity descending.
// Ties keep catalog order. Texts shorter than 3 characters after
// normalization are too short to compare meaningfully and yield no matches.
func (l *Lexicon) FindFuzzy(text string, threshold float64) []CodeInfo {
	normalized := Normalize(text)
	if len(normalized) < 3 {
		return nil
	}

	var matches []CodeInfo
	for _, code := range l.order {
		similarity := Ratio(normalized, code)
		if similarity < threshold {
			continue
		}
		info := CodeInfo{Code: code, Confidence: similarity}
		if m, ok := l.wmi[code]; ok {
			info.Manufacturer = m
			info.Category = CategoryWMI
		} else {
			info.Manufacturer = modelManufacturer
			info.Model = l.models[code]
			info.Category = CategoryModel
		}
		matches = append(matches, info)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// FindBest returns the exact match when one exists (it wins unconditionally
// over any fuzzy candidate), otherwise the highest-scoring fuzzy match.
func (l *Lexicon) FindBest(text string, threshold float64) (CodeInfo, bool) {
	if info, ok := l.FindExact(text); ok {
		return info, true
	}
	if matches := l.FindFuzzy(text, threshold); len(matches) > 0 {
		return matches[0], true
	}
	return CodeInfo{}, false
}

// WMIPrefix returns the manufacturer for a registered 3-character WMI prefix.
func (l *Lexicon) WMIPrefix(code string) (string, bool) {
	m, ok := l.wmi[code]
	return m, ok
}

// ModelCodes iterates the model table in catalog order, calling fn with each
// code and model name until fn returns false.
func (l *Lexicon) ModelCodes(fn func(code, model string) bool) {
	for _, code := range l.order {
		if m, ok := l.models[code]; ok {
			if !fn(code, m) {
				return
			}
		}
	}
}

// Describe returns a human-readable description of a catalog code, used by
// the lookup subcommand.
func (l *Lexicon) Describe(code string) (string, bool) {
	normalized := Normalize(code)
	if m, ok := l.wmi[normalized]; ok {
		return fmt.Sprintf("%s: World Manufacturer Identifier, %s", normalized, m), true
	}
	if m, ok := l.models[normalized]; ok {
		return fmt.Sprintf("%s: model code, %s (%s)", normalized, m, modelManufacturer), true
	}
	return "", false
}

// Size returns the number of catalog codes across both tables.
func (l *Lexicon) Size() int { return len(l.order) }
