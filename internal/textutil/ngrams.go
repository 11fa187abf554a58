package textutil

import (
	"regexp"
	"strings"
)

// stopwords elided from extracted keyword terms. Keep sorted-ish for review.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "is": {}, "was": {}, "are": {}, "were": {},
	"been": {}, "be": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "will": {}, "would": {}, "should": {},
	"could": {}, "may": {}, "might": {}, "must": {}, "can": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "i": {}, "you": {}, "he": {},
	"she": {}, "it": {}, "we": {}, "they": {}, "what": {}, "which": {},
	"who": {}, "when": {}, "where": {}, "why": {}, "how": {}, "all": {},
	"each": {}, "every": {}, "both": {}, "few": {}, "more": {}, "most": {},
	"other": {}, "some": {}, "such": {}, "no": {}, "not": {}, "only": {},
	"own": {}, "same": {}, "so": {}, "than": {}, "too": {}, "very": {},
	"just": {}, "about": {}, "into": {}, "through": {}, "during": {},
	"before": {}, "after": {}, "above": {}, "below": {}, "between": {},
	"under": {}, "again": {}, "further": {}, "then": {}, "once": {},
	"here": {}, "there": {}, "up": {}, "down": {}, "out": {}, "off": {},
	"over": {}, "any": {}, "our": {}, "their": {}, "your": {}, "its": {},
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Clean lowercases the text and collapses punctuation and whitespace so the
// result is a single-space-separated word stream.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// IsStopword reports whether the word is on the elision list.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// Words returns the cleaned content words of the text: lowercased, stopwords
// elided, and short tokens (<= 2 runes) dropped.
func Words(text string) []string {
	fields := strings.Fields(Clean(text))
	out := make([]string, 0, len(fields))
	for _, w := range fields {
		if IsStopword(w) || len([]rune(w)) <= 2 {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Ngrams returns the n-grams over the content words of the text, joined by a
// single space, in document order.
func Ngrams(text string, n int) []string {
	words := Words(text)
	if n <= 1 {
		return words
	}
	if len(words) < n {
		return nil
	}
	out := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		out = append(out, strings.Join(words[i:i+n], " "))
	}
	return out
}

// Terms extracts the keyword term list of a job description: every distinct
// content word in first-encounter order, followed by every distinct 2-gram
// that occurs at least twice. A 2-gram seen only once is almost always an
// accident of adjacency rather than a real term.
func Terms(text string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, w := range Ngrams(text, 1) {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}

	bigrams := Ngrams(text, 2)
	counts := make(map[string]int, len(bigrams))
	for _, b := range bigrams {
		counts[b]++
	}
	for _, b := range bigrams {
		if counts[b] < 2 {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		terms = append(terms, b)
	}
	return terms
}

// ContainsTerm reports whether the cleaned haystack contains the term as a
// whole-word sequence.
func ContainsTerm(cleanedHaystack, term string) bool {
	if cleanedHaystack == "" || term == "" {
		return false
	}
	padded := " " + cleanedHaystack + " "
	return strings.Contains(padded, " "+term+" ")
}
