// =============================================================================
// Registration Reconciler - Name Normalizer
// =============================================================================
//
// Every attendee and payer is identified across the two ledgers by a single
// normalized "First Last" key. No other identifier (email, phone) is used for
// matching, so this package is the identity function of the whole system.
//
// NORMALIZATION STEPS:
//   1. Split the free-text name into tokens ("Last, First" is accepted too)
//   2. Drop honorific titles and generational/academic suffixes
//   3. First token is the first name; the last token plus any surname
//      particles directly before it is the last name; middle names are dropped
//   4. Capitalize each part (particles stay lowercase, Mc/Mac and O' keep
//      their inner capital)
//   5. Apply the correction table for known data-entry typos
//
// =============================================================================

package names

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// CORRECTION TABLE
// =============================================================================

// DefaultCorrections maps known misspelled keys to the corrected key.
// Used when the configuration does not supply its own table.
var DefaultCorrections = map[string]string{
	"Bari Specter": "Bari Spector",
	"Liy Zoberman": "Lily Zoberman",
}

var titles = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "miss": true, "mx": true,
	"dr": true, "prof": true, "rev": true, "fr": true, "sir": true,
}

var suffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
	"phd": true, "md": true, "esq": true, "dds": true,
}

var particles = map[string]bool{
	"van": true, "von": true, "de": true, "del": true, "della": true,
	"der": true, "den": true, "di": true, "da": true, "du": true,
	"la": true, "le": true, "st": true, "st.": true, "bin": true,
}

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer canonicalizes free-text names into "First Last" keys.
// A Normalizer is not safe for concurrent use.
type Normalizer struct {
	corrections map[string]string
	caser       cases.Caser
}

// New returns a Normalizer using the given correction table.
// A nil table selects DefaultCorrections; an empty non-nil table disables
// corrections. Both sides of the table are canonicalized, so an entry like
// "bari specter: bari spector" matches and yields a key that is already
// normalized.
func New(corrections map[string]string) *Normalizer {
	n := &Normalizer{
		corrections: make(map[string]string),
		caser:       cases.Title(language.English),
	}

	if corrections == nil {
		corrections = DefaultCorrections
	}
	for from, to := range corrections {
		n.corrections[n.canonical(from)] = n.canonical(to)
	}

	return n
}

// Normalize returns the key for a raw name. Empty input yields "".
func (n *Normalizer) Normalize(raw string) string {
	key := n.canonical(raw)
	if corrected, ok := n.corrections[key]; ok {
		return corrected
	}
	return key
}

// FromParts returns the key for a name that arrives as separate first and
// last fields.
func (n *Normalizer) FromParts(first, last string) string {
	return n.Normalize(first + " " + last)
}

// canonical computes the key without applying corrections.
func (n *Normalizer) canonical(raw string) string {
	first, last := parse(raw)
	first = n.capitalize(first, true)
	last = n.capitalize(last, false)
	return strings.TrimSpace(first + " " + last)
}

// capitalize title-cases every word of a name part. Surname particles are
// lowercased unless the part is a first name.
func (n *Normalizer) capitalize(part string, isFirst bool) string {
	words := strings.Fields(part)
	for i, w := range words {
		if !isFirst && i < len(words)-1 && particles[strings.ToLower(w)] {
			words[i] = strings.ToLower(w)
			continue
		}
		words[i] = n.titleWord(w)
	}
	return strings.Join(words, " ")
}

// titleWord title-cases each hyphen- or apostrophe-separated segment of a
// word and restores the inner capital of Mc/Mac surnames: "o'neil-mcdonald"
// becomes "O'Neil-McDonald".
func (n *Normalizer) titleWord(word string) string {
	var b strings.Builder
	start := 0
	for i, r := range word {
		if r == '-' || r == '\'' {
			b.WriteString(macPrefix(n.caser.String(word[start:i])))
			b.WriteRune(r)
			start = i + 1
		}
	}
	b.WriteString(macPrefix(n.caser.String(word[start:])))
	return b.String()
}

// macPrefix capitalizes the letter after a leading "Mc" or "Mac" when at
// least two letters follow the prefix.
func macPrefix(segment string) string {
	for _, prefix := range []string{"Mac", "Mc"} {
		rest, ok := strings.CutPrefix(segment, prefix)
		if !ok || utf8.RuneCountInString(rest) < 2 {
			continue
		}
		r, size := utf8.DecodeRuneInString(rest)
		return prefix + string(unicode.ToUpper(r)) + rest[size:]
	}
	return segment
}

// =============================================================================
// PARSING
// =============================================================================

// parse splits a raw name into first and last parts.
func parse(raw string) (first, last string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}

	// "Last, First" form. A comma followed only by a suffix ("Smith, Jr.")
	// is not a reordering.
	if before, after, found := strings.Cut(raw, ","); found {
		tail := strings.Fields(after)
		if len(tail) > 0 && !allSuffixes(tail) {
			raw = strings.TrimSpace(after) + " " + strings.TrimSpace(before)
		} else {
			raw = before + " " + after
		}
	}

	tokens := strings.Fields(raw)

	for len(tokens) > 0 && titles[bare(tokens[0])] {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && suffixes[bare(tokens[len(tokens)-1])] {
		tokens = tokens[:len(tokens)-1]
	}

	switch len(tokens) {
	case 0:
		return "", ""
	case 1:
		return tokens[0], ""
	}

	start := len(tokens) - 1
	for start-1 >= 1 && particles[strings.ToLower(tokens[start-1])] {
		start--
	}

	return tokens[0], strings.Join(tokens[start:], " ")
}

// bare lowercases a token and strips trailing periods and commas.
func bare(token string) string {
	return strings.ToLower(strings.TrimRight(token, ".,"))
}

func allSuffixes(tokens []string) bool {
	for _, t := range tokens {
		if !suffixes[bare(t)] {
			return false
		}
	}
	return true
}

// SplitKey splits a normalized key back into first and last name.
func SplitKey(key string) (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(key), " ")
	return first, strings.TrimSpace(last)
}
