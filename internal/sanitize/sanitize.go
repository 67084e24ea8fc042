// ABOUTME: Pure text cleaning helpers for names and profile fields
// ABOUTME: Alphanumeric filtering, rune-safe truncation and a word-list profanity mask

package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// folder matches filtered words regardless of case, including non-ASCII text.
var folder = cases.Fold()

// Alphanumeric keeps only ASCII letters and digits.
func Alphanumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Name normalizes a user name for lookup: ASCII alphanumeric and lower-cased.
func Name(s string) string {
	return strings.ToLower(Alphanumeric(s))
}

// Truncate cuts s to at most maxLen runes.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i]
		}
		n++
	}
	return s
}

// DefaultWords is the built-in profanity list.
var DefaultWords = []string{
	"arse",
	"bastard",
	"bitch",
	"bollocks",
	"crap",
	"damn",
	"dick",
	"piss",
	"shit",
	"fuck",
}

// ProfanityFilter masks listed words with asterisks. Matching is whole-word
// and case-insensitive. A ProfanityFilter is safe for concurrent use.
type ProfanityFilter struct {
	words map[string]struct{}
}

// NewProfanityFilter builds a filter over words.
func NewProfanityFilter(words []string) *ProfanityFilter {
	f := &ProfanityFilter{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		f.words[folder.String(w)] = struct{}{}
	}
	return f
}

// Filter returns s with every listed word replaced by asterisks.
func (f *ProfanityFilter) Filter(s string) string {
	if f == nil || len(f.words) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	start := -1
	flush := func(end int) {
		word := s[start:end]
		if _, bad := f.words[folder.String(word)]; bad {
			b.WriteString(strings.Repeat("*", utf8.RuneCountInString(word)))
		} else {
			b.WriteString(word)
		}
		start = -1
	}

	for i, r := range s {
		isWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case isWord && start < 0:
			start = i
		case !isWord && start >= 0:
			flush(i)
			b.WriteRune(r)
		case !isWord:
			b.WriteRune(r)
		}
	}
	if start >= 0 {
		flush(len(s))
	}
	return b.String()
}

// Clean filters profanity and then truncates to maxLen runes.
func (f *ProfanityFilter) Clean(s string, maxLen int) string {
	return Truncate(f.Filter(s), maxLen)
}
