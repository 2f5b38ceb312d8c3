// Package analyzer holds text helpers used to fit article bodies into prompts
// and to summarize how articles cover a subject.
package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mention counts occurrences of a term within a body of text.
type Mention struct {
	Term      string   `json:"term"`
	Count     int      `json:"count"`
	Sentences []string `json:"sentences,omitempty"`
}

// Sentences splits text on '.', '!' and '?', keeping the delimiter at the end
// of each sentence and dropping surrounding whitespace.
func Sentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	out := make([]string, 0, len(text)/50+1)
	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		end := i + 1
		for end < len(text) && unicode.IsSpace(rune(text[end])) {
			end++
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, s)
		}
		start = end
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Truncate shortens text to at most budget bytes, cutting at the last sentence
// boundary that fits. If the first sentence alone exceeds the budget it is cut
// at a rune boundary. A non-positive budget returns text unchanged.
func Truncate(text string, budget int) (string, bool) {
	if budget <= 0 || len(text) <= budget {
		return text, false
	}

	var b strings.Builder
	for _, s := range Sentences(text) {
		extra := len(s)
		if b.Len() > 0 {
			extra++
		}
		if b.Len()+extra > budget {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}
	if b.Len() > 0 {
		return b.String(), true
	}

	cut := budget
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut], true
}

// Mentions counts case-insensitive occurrences of each term in content and
// collects the sentences containing it. Terms that never occur are omitted.
func Mentions(content string, terms []string) []Mention {
	if content == "" || len(terms) == 0 {
		return nil
	}

	lowerContent := strings.ToLower(content)
	sentences := Sentences(content)
	lowerSentences := make([]string, len(sentences))
	for i, s := range sentences {
		lowerSentences[i] = strings.ToLower(s)
	}

	var out []Mention
	for _, term := range terms {
		lowerTerm := strings.ToLower(strings.TrimSpace(term))
		if lowerTerm == "" {
			continue
		}
		count := strings.Count(lowerContent, lowerTerm)
		if count == 0 {
			continue
		}
		m := Mention{Term: term, Count: count}
		for i, ls := range lowerSentences {
			if strings.Contains(ls, lowerTerm) {
				m.Sentences = append(m.Sentences, sentences[i])
			}
		}
		out = append(out, m)
	}
	return out
}

// Terms splits a free-text subject into lowercase words worth counting,
// dropping short words and common stop words.
func Terms(subject string) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(subject), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) {
		if len(w) < 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true, "its": true,
	"with": true, "that": true, "this": true, "from": true, "about": true,
	"what": true, "which": true, "new": true, "into": true, "over": true,
}
