package order

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/cases"
)

// abbreviations matches "st"/"rd" tokens with an optional trailing dot. RE2's
// \b is ASCII only, so NormalizeAddress rechecks the neighbours.
var abbreviations = regexp.MustCompile(`(?i)\b(st|rd)\b\.?`)

var expansions = map[string]string{
	"st": "street",
	"rd": "road",
}

var stateCodes = map[string]string{
	"illinois":   "IL",
	"california": "CA",
	"new york":   "NY",
}

// NormalizeEmail lowercases the address, drops the +tag of the local part
// and removes every dot from it.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(raw)
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return "", errors.Wrapf(ErrMalformedRecord, "email %q has no @", raw)
	}
	if i := strings.IndexByte(local, '+'); i >= 0 {
		local = local[:i]
	}
	local = strings.ReplaceAll(local, ".", "")
	return local + "@" + domain, nil
}

// NormalizeAddress expands the st/rd abbreviations. Other text, case included,
// is left alone, and so are st/rd inside longer words.
func NormalizeAddress(raw string) string {
	locs := abbreviations.FindAllStringIndex(raw, -1)
	if locs == nil {
		return raw
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		word := strings.TrimSuffix(raw[loc[0]:loc[1]], ".")
		if wordRuneBefore(raw, loc[0]) || wordRuneAfter(raw, loc[0]+len(word)) {
			continue
		}
		b.WriteString(raw[last:loc[0]])
		b.WriteString(expansions[strings.ToLower(word)])
		last = loc[1]
	}
	b.WriteString(raw[last:])
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func wordRuneBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return isWordRune(r)
}

func wordRuneAfter(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return isWordRune(r)
}

// NormalizeState maps a few full state names to their postal codes.
func NormalizeState(raw string) string {
	if code, ok := stateCodes[cases.Fold().String(raw)]; ok {
		return code
	}
	return raw
}

// FullAddress builds the address identity key. Callers pass already
// normalized address and state.
func FullAddress(address, city, state, zipCode string) string {
	return strings.Join([]string{address, city, state, zipCode}, ", ")
}
