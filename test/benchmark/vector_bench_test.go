// Package benchmark contains Go benchmarks for the vector indexing pass,
// measuring throughput and allocation behaviour.
package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/store"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/vector"
)

func syntheticCorpus(files, termsPerFile int) map[string]corpus.Corpus {
	out := make(map[string]corpus.Corpus, files)
	for f := 0; f < files; f++ {
		var content, method strings.Builder
		for i := 0; i < termsPerFile; i++ {
			term := fmt.Sprintf("t%d", (f*7+i*13)%(termsPerFile*4))
			content.WriteString(term)
			content.WriteByte(' ')
			if i%5 == 0 {
				method.WriteString(term)
				method.WriteByte(' ')
			}
		}
		out[fmt.Sprintf("File%04d.java", f)] = corpus.Corpus{
			Content:    content.String(),
			MethodPart: method.String(),
			ClassPart:  fmt.Sprintf("t%d", f%termsPerFile),
		}
	}
	return out
}

// BenchmarkBuildDocFreq measures document-frequency table construction.
func BenchmarkBuildDocFreq(b *testing.B) {
	corpora := syntheticCorpus(500, 200)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		table := vector.BuildDocFreq(corpora)
		_ = table
	}
}

// BenchmarkComputeNorms measures the five-norm computation for one file.
func BenchmarkComputeNorms(b *testing.B) {
	corpora := syntheticCorpus(1, 400)
	c := corpora["File0000.java"]
	weights := make(map[string]corpus.TermWeight)
	for term, n := range mustCounts(c.Content) {
		weights[term] = corpus.TermWeight{Term: term, TermCount: n, TF: vector.TF(n), IDF: 1.5}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		norms := vector.ComputeNorms(weights, c)
		_ = norms
	}
}

// BenchmarkIndexerRun measures a full pass over an in-memory store for
// different pool sizes.
func BenchmarkIndexerRun(b *testing.B) {
	corpora := syntheticCorpus(300, 100)
	for _, workers := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			ctx := context.Background()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				mem := store.NewMemory()
				snap := corpus.Snapshot{Version: "bench", Files: corpora}
				if err := snap.Seed(ctx, mem); err != nil {
					b.Fatal(err)
				}
				ix := vector.New(mem, vector.Options{Workers: workers})
				b.StartTimer()
				if _, err := ix.Run(ctx, "bench"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func mustCounts(content string) map[string]int {
	counts, _ := vector.CountTerms(content)
	return counts
}
