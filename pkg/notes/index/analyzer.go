package index

import (
	"strings"
	"unicode"
)

// Analyzer turns note text into index tokens. The same analyzer runs at
// index time and at query time so both sides agree on token shape and
// synonym expansion.
type Analyzer interface {
	// Tokens returns the tokens to post for a document: extracted terms,
	// deduplicated, expanded with synonyms.
	Tokens(text string) []string

	// QueryTerms returns the query plan for a keyword: one OR-group per
	// extracted term (the term plus its synonyms). Groups are ANDed by the
	// index.
	QueryTerms(keyword string) [][]string
}

// DefaultSynonyms is the built-in synonym table. Keys and values are
// analyzer-shaped tokens; expansion is applied on both the document and the
// query side, so either direction of a pair matches.
func DefaultSynonyms() map[string][]string {
	return map[string][]string{
		"휴대폰":     {"스마트폰", "핸드폰"},
		"노트":      {"문서", "기록"},
		"fastapi": {"파스트api", "백엔드"},
	}
}

// DefaultAnalyzer extracts maximal runs of Hangul and ASCII alphanumerics as
// tokens. ASCII letters are lowercased; other scripts and punctuation act as
// separators. A run mixing Hangul and ASCII ("파스트api") stays one token,
// which keeps the synonym table coherent.
type DefaultAnalyzer struct {
	synonyms map[string][]string
}

// NewAnalyzer creates an analyzer with the given synonym table. A nil table
// disables expansion.
func NewAnalyzer(synonyms map[string][]string) *DefaultAnalyzer {
	return &DefaultAnalyzer{synonyms: synonyms}
}

func (a *DefaultAnalyzer) Tokens(text string) []string {
	terms := splitTerms(text)

	seen := make(map[string]struct{}, len(terms))
	tokens := make([]string, 0, len(terms))
	add := func(tok string) {
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	for _, term := range terms {
		add(term)
		for _, syn := range a.synonyms[term] {
			add(syn)
		}
	}
	return tokens
}

func (a *DefaultAnalyzer) QueryTerms(keyword string) [][]string {
	terms := splitTerms(keyword)

	seen := make(map[string]struct{}, len(terms))
	groups := make([][]string, 0, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}

		group := append([]string{term}, a.synonyms[term]...)
		groups = append(groups, group)
	}
	return groups
}

// splitTerms extracts tokens: maximal runs of Hangul or ASCII alphanumeric
// runes, with ASCII lowercased. Everything else separates tokens.
func splitTerms(text string) []string {
	var terms []string
	var b strings.Builder

	flush := func() {
		if b.Len() > 0 {
			terms = append(terms, b.String())
			b.Reset()
		}
	}

	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		case unicode.Is(unicode.Hangul, r):
			b.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return terms
}

// Compile-time interface check
var _ Analyzer = (*DefaultAnalyzer)(nil)
