package vector

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/corpus"
)

// ComputeNorms returns the whole-file and per-partition Euclidean norms of a
// file's weight vector. Each term contributes weight² to the total and to
// every partition whose term set contains it, so partitions are independent
// subsets and no ordering between the norms holds.
func ComputeNorms(weights map[string]corpus.TermWeight, c corpus.Corpus) corpus.Norms {
	classTerms := TermSet(c.ClassPart)
	methodTerms := TermSet(c.MethodPart)
	variableTerms := TermSet(c.VariablePart)
	commentTerms := TermSet(c.CommentPart)

	var total, class, method, variable, comment float64
	for term, tw := range weights {
		w := tw.Weight()
		sq := w * w
		total += sq
		if _, ok := classTerms[term]; ok {
			class += sq
		}
		if _, ok := methodTerms[term]; ok {
			method += sq
		}
		if _, ok := variableTerms[term]; ok {
			variable += sq
		}
		if _, ok := commentTerms[term]; ok {
			comment += sq
		}
	}
	return corpus.Norms{
		Corpus:   math.Sqrt(total),
		Class:    math.Sqrt(class),
		Method:   math.Sqrt(method),
		Variable: math.Sqrt(variable),
		Comment:  math.Sqrt(comment),
	}
}
