package utils

import (
	"sort"
	"strings"
	"unicode"
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "what": {}, "which": {}, "with": {},
	"that": {}, "this": {}, "from": {}, "have": {}, "has": {}, "into": {}, "about": {},
	"how": {}, "why": {}, "when": {}, "where": {}, "who": {}, "does": {}, "should": {},
	"would": {}, "could": {}, "their": {}, "there": {}, "them": {}, "they": {}, "your": {},
	"you": {}, "our": {}, "its": {}, "can": {}, "will": {}, "been": {}, "being": {},
	"were": {}, "was": {}, "is": {}, "a": {}, "an": {}, "of": {}, "to": {}, "in": {},
	"on": {}, "or": {}, "by": {}, "be": {}, "as": {}, "at": {}, "it": {}, "key": {},
	"some": {}, "any": {}, "all": {}, "more": {}, "most": {}, "other": {}, "such": {},
}

/*
Tokens splits text into lowercase words, dropping punctuation.
*/
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

/*
IsStopword reports whether word carries no meaning for matching.
*/
func IsStopword(word string) bool {
	_, ok := stopwords[strings.ToLower(word)]
	return ok
}

/*
Keywords returns the distinct significant words of text in order of first
appearance. A word is significant when it has at least minLen characters and
is not a stopword.
*/
func Keywords(text string, minLen int) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)

	for _, token := range Tokens(text) {
		if len(token) < minLen || IsStopword(token) {
			continue
		}

		if _, ok := seen[token]; ok {
			continue
		}

		seen[token] = struct{}{}
		out = append(out, token)
	}

	return out
}

/*
Overlap returns the fraction of keywords that occur as words in text.
*/
func Overlap(keywords []string, text string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	words := map[string]struct{}{}
	for _, token := range Tokens(text) {
		words[token] = struct{}{}
	}

	hits := 0
	for _, keyword := range keywords {
		if _, ok := words[keyword]; ok {
			hits++
		}
	}

	return float64(hits) / float64(len(keywords))
}

/*
Matches returns the members of candidates that occur as words in text,
preserving the order of candidates.
*/
func Matches(candidates []string, text string) []string {
	words := map[string]struct{}{}
	for _, token := range Tokens(text) {
		words[token] = struct{}{}
	}

	out := make([]string, 0)
	for _, candidate := range candidates {
		if _, ok := words[strings.ToLower(candidate)]; ok {
			out = append(out, candidate)
		}
	}

	return out
}

/*
Dedupe returns values without duplicates, keeping the first occurrence.
*/
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))

	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}

		seen[value] = struct{}{}
		out = append(out, value)
	}

	return out
}

/*
SortedKeys returns the keys of m in ascending order.
*/
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)
	return keys
}

/*
Clamp01 bounds v to [0,1].
*/
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}
