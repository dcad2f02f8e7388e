// Package moderation scans transcript text for configured red-flag
// clinical terms ("chest pain", "anaphylaxis", ...). Matches are recorded
// on the transcript event and logged; they never block ingestion.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Flagger struct {
	matcher *goahocorasick.Machine
	terms   map[string]string // normalized -> canonical form
}

// NewFlagger builds the Aho-Corasick automaton over a normalized version of
// the configured term list, so matching is insensitive to case, accents and
// spacing.
func NewFlagger(terms []string) (*Flagger, error) {
	canonical := make(map[string]string, len(terms))
	patterns := make([][]rune, 0, len(terms))
	for _, term := range terms {
		norm := normalizeRunes([]rune(term))
		if len(norm) == 0 {
			continue
		}
		patterns = append(patterns, norm)
		canonical[string(norm)] = term
	}

	m := new(goahocorasick.Machine)
	if len(patterns) > 0 {
		if err := m.Build(patterns); err != nil {
			return nil, err
		}
	}
	return &Flagger{matcher: m, terms: canonical}, nil
}

// Scan returns the canonical form of every configured term present in the
// text, deduplicated, in first-occurrence order.
func (f *Flagger) Scan(text string) []string {
	if len(f.terms) == 0 {
		return nil
	}

	normalized := normalizeRunes([]rune(text))
	if len(normalized) == 0 {
		return nil
	}

	spans := f.matcher.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return nil
	}

	var flags []string
	seen := make(map[string]struct{}, len(spans))
	for _, span := range spans {
		term, ok := f.terms[string(span.Word)]
		if !ok {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		flags = append(flags, term)
	}
	return flags
}

// normalizeRunes lowercases, strips accents and drops separator noise so
// "Chest  Pain" and "chest pain" collapse to the same pattern.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

func simplifyRune(r rune) rune {
	switch r {
	case 'á', 'à', 'â', 'ä', 'Á', 'À', 'Â', 'Ä':
		return 'a'
	case 'é', 'è', 'ê', 'ë', 'É', 'È', 'Ê', 'Ë':
		return 'e'
	case 'í', 'ì', 'î', 'ï', 'Í', 'Ì', 'Î', 'Ï':
		return 'i'
	case 'ó', 'ò', 'ô', 'ö', 'Ó', 'Ò', 'Ô', 'Ö':
		return 'o'
	case 'ú', 'ù', 'û', 'ü', 'Ú', 'Ù', 'Û', 'Ü':
		return 'u'
	case 'ñ', 'Ñ':
		return 'n'
	}
	return r
}

func isNoise(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r)
}
