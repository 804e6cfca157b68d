// Package corpus defines the data model shared by the vector indexer and the
// corpus store backends: per-file token corpora, term weights, norms, and
// the store contract the indexer reads and writes through.
package corpus

import "context"

// Corpus is one source file's pre-tokenized text for a version. Every field
// is a whitespace-delimited token string; the four partitions may overlap.
type Corpus struct {
	Content      string `json:"content" yaml:"content"`
	ClassPart    string `json:"class" yaml:"class"`
	MethodPart   string `json:"method" yaml:"method"`
	VariablePart string `json:"variable" yaml:"variable"`
	CommentPart  string `json:"comment" yaml:"comment"`
}

// DocFreqTable maps a term to the number of distinct files containing it.
type DocFreqTable map[string]int

// TermWeight is the per-file, per-term row. TF and IDF stay zero until the
// vectorizing pass fills them.
type TermWeight struct {
	FileName    string  `json:"file_name"`
	Version     string  `json:"version"`
	Term        string  `json:"term"`
	TermCount   int     `json:"term_count"`
	InvDocCount int     `json:"inv_doc_count"`
	TF          float64 `json:"tf"`
	IDF         float64 `json:"idf"`
}

// Weight returns tf*idf.
func (tw TermWeight) Weight() float64 {
	return tw.TF * tw.IDF
}

// Norms holds the Euclidean norms of a file's weight vector, whole-file and
// restricted to each structural partition.
type Norms struct {
	Corpus   float64 `json:"corpus"`
	Class    float64 `json:"class"`
	Method   float64 `json:"method"`
	Variable float64 `json:"variable"`
	Comment  float64 `json:"comment"`
}

// FileVector is the derived aggregate persisted per file and version.
type FileVector struct {
	FileName          string  `json:"file_name"`
	Version           string  `json:"version"`
	TotalCorpusLength int     `json:"total_corpus_length"`
	Norms             Norms   `json:"norms"`
	LengthScore       float64 `json:"length_score"`
}

// Store is the data-access contract of the indexing pass. Implementations
// must apply UpdateNormValues atomically per file and be safe for concurrent
// use by the per-file workers.
type Store interface {
	CorpusMap(ctx context.Context, version string) (map[string]Corpus, error)
	TotalCorpusLengths(ctx context.Context, version string) (map[string]int, error)
	SourceFileCount(ctx context.Context, version string) (int, error)
	// TermMap returns a nil map and no error when the file has no rows.
	TermMap(ctx context.Context, fileName, version string) (map[string]TermWeight, error)

	InsertTerm(ctx context.Context, term string) error
	InsertTermWeight(ctx context.Context, tw TermWeight) error
	// DeleteTermWeights removes every term weight row of the file.
	DeleteTermWeights(ctx context.Context, fileName, version string) error
	UpdateTermWeight(ctx context.Context, tw TermWeight) error
	UpdateTotalCorpusCount(ctx context.Context, fileName, version string, count int) error
	UpdateNormValues(ctx context.Context, fileName, version string, norms Norms) error
	UpdateLengthScore(ctx context.Context, fileName, version string, score float64) error
}
