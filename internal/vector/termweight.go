package vector

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/errors"
)

// TF is the sublinear term frequency ln(freq)+1. freq must be at least 1.
func TF(freq int) float64 {
	return math.Log(float64(freq)) + 1
}

// IDF is ln(totalFiles/docFreq). docFreq must be at least 1.
func IDF(docFreq, totalFiles int) float64 {
	return math.Log(float64(totalFiles) / float64(docFreq))
}

// CountTerms tallies raw occurrences per term. total is the sum of all
// counts, i.e. the file's corpus length.
func CountTerms(content string) (counts map[string]int, total int) {
	tokens := Tokens(content)
	counts = make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts, len(tokens)
}

// termWeightRows builds the TermWeight rows of one file from its counts and
// the document-frequency table. A counted term missing from the table is an
// InconsistentIndexError.
func termWeightRows(fileName, version string, counts map[string]int, df corpus.DocFreqTable) ([]corpus.TermWeight, error) {
	rows := make([]corpus.TermWeight, 0, len(counts))
	for term, count := range counts {
		docCount, ok := df[term]
		if !ok {
			return nil, &apperrors.InconsistentIndexError{
				FileName: fileName,
				Version:  version,
				Term:     term,
				Reason:   "missing from document-frequency table",
			}
		}
		rows = append(rows, corpus.TermWeight{
			FileName:    fileName,
			Version:     version,
			Term:        term,
			TermCount:   count,
			InvDocCount: docCount,
		})
	}
	return rows, nil
}

// fillWeight sets TF and IDF on a stored row, rejecting rows whose counts
// would make either value undefined.
func fillWeight(tw *corpus.TermWeight, fileCount int) error {
	if tw.TermCount < 1 {
		return &apperrors.InconsistentIndexError{
			FileName: tw.FileName, Version: tw.Version, Term: tw.Term,
			Reason: "term count is zero",
		}
	}
	if tw.InvDocCount < 1 || tw.InvDocCount > fileCount {
		return &apperrors.InconsistentIndexError{
			FileName: tw.FileName, Version: tw.Version, Term: tw.Term,
			Reason: "document frequency outside [1, file count]",
		}
	}
	tw.TF = TF(tw.TermCount)
	tw.IDF = IDF(tw.InvDocCount, fileCount)
	return nil
}
