package sync

import "strings"

// cyrillicFold maps Cyrillic capitals onto the Latin capitals they are
// indistinguishable from in print. Seller SKUs arrive typed in either
// alphabet; the catalog only knows the Latin spelling.
var cyrillicFold = map[rune]rune{
	'А': 'A',
	'В': 'B',
	'Е': 'E',
	'К': 'K',
	'М': 'M',
	'Н': 'H',
	'О': 'O',
	'Р': 'P',
	'С': 'C',
	'Т': 'T',
	'Х': 'X',
}

// NormalizeArticle canonicalizes a seller SKU: trim, uppercase, fold Cyrillic
// look-alikes to Latin, unify dash glyphs to a plain hyphen and strip
// whitespace around hyphen segments.
func NormalizeArticle(s string) string {
	t := strings.ToUpper(strings.TrimSpace(s))
	t = strings.Map(func(r rune) rune {
		if r == '–' || r == '—' {
			return '-'
		}
		if latin, ok := cyrillicFold[r]; ok {
			return latin
		}
		return r
	}, t)

	parts := strings.Split(t, "-")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, "-")
}
