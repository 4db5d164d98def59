// Package matcher locates shipping tracking codes (two letters, nine digits,
// two letters) in extracted document text.
package matcher

import (
	"regexp"
	"strings"

	"github.com/markdave123-py/Trackname/internal/models"
)

// ws is whitespace as PDF text producers emit it: ASCII spaces plus
// vertical tab, Unicode separators (NBSP, thin spaces, ...) and BOM.
// Letter classes stay ASCII: (?i)[A-Z] would also match U+017F and U+212A.
const ws = `[\s\v\p{Z}\x{FEFF}]`

var (
	// "(OBJETO) (RASTREAMENTO): Correios AB 123456789 CD" style label.
	contextualRe = regexp.MustCompile(`(?:(?i:OBJETO))?` + ws + `*\((?i:RASTREAMENTO)\)` + ws + `*:` + ws + `*(?:(?i:Correios)` + ws + `*)?([A-Za-z]{2}` + ws + `*[0-9]{9}` + ws + `*[A-Za-z]{2})`)
	fallbackRe   = regexp.MustCompile(`([A-Za-z]{2})` + ws + `*([0-9]{9})` + ws + `*([A-Za-z]{2})`)
	fuzzyRe      = regexp.MustCompile(`([A-Za-z]{2})` + ws + `*([0-9OSZBIGLoszbigl]{9})` + ws + `*([A-Za-z]{2})`)

	whitespaceRe = regexp.MustCompile(ws + `+`)
	codeRe       = regexp.MustCompile(`^[A-Z]{2}[0-9]{9}[A-Z]{2}$`)
	digitsRe     = regexp.MustCompile(`^[0-9]{9}$`)
)

// lookalikes maps letters commonly confused with digits in printed or OCRed text.
var lookalikes = strings.NewReplacer(
	"O", "0",
	"S", "5",
	"Z", "2",
	"I", "1",
	"L", "1",
	"B", "8",
	"G", "6",
)

// Find runs the contextual, fallback and fuzzy strategies in order and
// returns the first valid code.
func Find(text string) models.Match {
	if m, ok := contextual(text); ok {
		return m
	}
	if m, ok := fallback(text); ok {
		return m
	}
	if m, ok := fuzzy(text); ok {
		return m
	}
	return models.Match{Strategy: models.StrategyNone}
}

func contextual(text string) (models.Match, bool) {
	for _, sub := range contextualRe.FindAllStringSubmatch(text, -1) {
		code := strings.ToUpper(whitespaceRe.ReplaceAllString(sub[1], ""))
		if m, ok := accept(code, models.StrategyContextual); ok {
			return m, true
		}
	}
	return models.Match{}, false
}

func fallback(text string) (models.Match, bool) {
	for _, sub := range fallbackRe.FindAllStringSubmatch(text, -1) {
		if m, ok := accept(strings.ToUpper(sub[1]+sub[2]+sub[3]), models.StrategyFallback); ok {
			return m, true
		}
	}
	return models.Match{}, false
}

func fuzzy(text string) (models.Match, bool) {
	for _, sub := range fuzzyRe.FindAllStringSubmatch(text, -1) {
		digits := Normalize(sub[2])
		if !digitsRe.MatchString(digits) {
			continue
		}
		if m, ok := accept(strings.ToUpper(sub[1])+digits+strings.ToUpper(sub[3]), models.StrategyFuzzy); ok {
			return m, true
		}
	}
	return models.Match{}, false
}

// Normalize uppercases run and replaces digit lookalike letters with digits.
// It is idempotent.
func Normalize(run string) string {
	return lookalikes.Replace(strings.ToUpper(run))
}

// Valid reports whether code has the exact tracking code shape.
func Valid(code string) bool {
	return codeRe.MatchString(code)
}

func accept(code string, strategy models.Strategy) (models.Match, bool) {
	if !Valid(code) {
		return models.Match{}, false
	}
	return models.Match{Code: code, Strategy: strategy}, true
}
