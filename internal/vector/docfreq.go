package vector

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/corpus"
)

// Tokens splits a whitespace-delimited token string, dropping empty tokens.
func Tokens(s string) []string {
	return strings.Fields(s)
}

// TermSet returns the distinct terms of a token string.
func TermSet(s string) map[string]struct{} {
	tokens := Tokens(s)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// BuildDocFreq counts, for every term, the number of files whose token
// stream contains it at least once.
func BuildDocFreq(corpora map[string]corpus.Corpus) corpus.DocFreqTable {
	table := make(corpus.DocFreqTable)
	for _, c := range corpora {
		for term := range TermSet(c.Content) {
			table[term]++
		}
	}
	return table
}
