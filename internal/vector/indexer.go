// Package vector computes term-weighted vectors of source files: the
// document-frequency table of a corpus version, TF-IDF weights per file,
// whole-file and per-partition norms, and a length-based relevance score.
package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/metrics"
)

// Indexing phases, used in reports, logs and metrics.
const (
	PhaseDocFreq     = "document_frequency"
	PhaseTermCount   = "term_count"
	PhaseLengthScore = "length_score"
	PhaseVectorize   = "vectorize"
)

// DocFreqPublisher receives the document-frequency table of a version once
// it is built, for consumers outside the corpus store.
type DocFreqPublisher interface {
	PublishDocFreq(ctx context.Context, version string, table corpus.DocFreqTable, fileCount int) error
}

// Options configures an Indexer.
type Options struct {
	Workers   int
	Publisher DocFreqPublisher
	Metrics   *metrics.Metrics
}

// Indexer runs full indexing passes against a corpus store.
type Indexer struct {
	store     corpus.Store
	driver    *Driver
	publisher DocFreqPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// FileFailure records a file whose processing failed during a run.
type FileFailure struct {
	FileName string `json:"file_name"`
	Phase    string `json:"phase"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}

// Report summarises one indexing run.
type Report struct {
	RunID      string        `json:"run_id"`
	Version    string        `json:"version"`
	Files      int           `json:"files"`
	Terms      int           `json:"terms"`
	Vectorized int           `json:"vectorized"`
	Skipped    []string      `json:"skipped,omitempty"`
	Failures   []FileFailure `json:"failures,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Failed returns the number of files that failed in any phase.
func (r *Report) Failed() int {
	return len(r.Failures)
}

func (r *Report) addFailure(fileName, phase string, err error) {
	r.Failures = append(r.Failures, FileFailure{
		FileName: fileName,
		Phase:    phase,
		Err:      err,
		Message:  err.Error(),
	})
}

// New creates an Indexer over store.
func New(store corpus.Store, opts Options) *Indexer {
	ix := &Indexer{
		store:     store,
		driver:    NewDriver(opts.Workers),
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    logger.WithComponent("vector-indexer"),
	}
	if ix.metrics != nil {
		ix.driver.onBusy = ix.metrics.WorkersBusy.Add
	}
	return ix
}

// Run executes a full indexing pass for version. The document-frequency
// build, term counting and length scoring run sequentially and abort the run
// on error; the per-file TF-IDF and norm pass then runs on the worker pool,
// where failures stay local to their file and are listed in the report.
func (ix *Indexer) Run(ctx context.Context, version string) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString(), Version: version}
	log := logger.WithRun("vector-indexer", report.RunID, version)
	ctx = logger.WithRunID(ctx, report.RunID)
	log.Info("indexing run started", "workers", ix.driver.Workers())

	err := ix.run(ctx, version, report, log)
	report.Duration = time.Since(start)
	if err != nil {
		ix.countRun("failed")
		log.Error("indexing run aborted", "error", err, "duration", report.Duration)
		return report, err
	}
	ix.countRun("ok")
	log.Info("indexing run complete",
		"files", report.Files,
		"terms", report.Terms,
		"vectorized", report.Vectorized,
		"skipped", len(report.Skipped),
		"failed", report.Failed(),
		"duration", report.Duration,
	)
	return report, nil
}

func (ix *Indexer) run(ctx context.Context, version string, report *Report, log *slog.Logger) error {
	var table corpus.DocFreqTable
	var corpora map[string]corpus.Corpus
	err := ix.timed(PhaseDocFreq, func() error {
		var err error
		corpora, table, err = ix.docFrequency(ctx, version)
		return err
	})
	if err != nil {
		return fmt.Errorf("building document frequencies for %s: %w", version, err)
	}
	report.Files = len(corpora)
	report.Terms = len(table)
	if ix.metrics != nil {
		ix.metrics.DocFreqTerms.Set(float64(len(table)))
	}
	log.Info("document-frequency table built", "files", len(corpora), "terms", len(table))

	if ix.publisher != nil {
		if err := ix.publisher.PublishDocFreq(ctx, version, table, len(corpora)); err != nil {
			log.Warn("publishing document-frequency table failed", "error", err)
		}
	}

	err = ix.timed(PhaseTermCount, func() error {
		return ix.countTerms(ctx, version, corpora, table, report)
	})
	if err != nil {
		return fmt.Errorf("counting terms for %s: %w", version, err)
	}

	err = ix.timed(PhaseLengthScore, func() error {
		return ix.lengthScores(ctx, version, log)
	})
	if err != nil {
		return fmt.Errorf("scoring lengths for %s: %w", version, err)
	}

	return ix.timed(PhaseVectorize, func() error {
		return ix.vectorize(ctx, version, report, log)
	})
}

// docFrequency reads the version's corpora, builds the document-frequency
// table and registers every term in the term dictionary.
func (ix *Indexer) docFrequency(ctx context.Context, version string) (map[string]corpus.Corpus, corpus.DocFreqTable, error) {
	corpora, err := ix.store.CorpusMap(ctx, version)
	if err != nil {
		return nil, nil, err
	}
	table := BuildDocFreq(corpora)
	for _, term := range sortedKeys(table) {
		if err := ix.store.InsertTerm(ctx, term); err != nil {
			return nil, nil, err
		}
	}
	return corpora, table, nil
}

// countTerms replaces each file's term weight rows and persists its corpus
// length. A file whose terms disagree with the table is recorded and
// skipped; storage errors abort.
func (ix *Indexer) countTerms(ctx context.Context, version string, corpora map[string]corpus.Corpus, table corpus.DocFreqTable, report *Report) error {
	for _, name := range sortedKeys(corpora) {
		if err := ix.store.DeleteTermWeights(ctx, name, version); err != nil {
			return err
		}
		counts, total := CountTerms(corpora[name].Content)
		if err := ix.store.UpdateTotalCorpusCount(ctx, name, version, total); err != nil {
			return err
		}
		rows, err := termWeightRows(name, version, counts, table)
		if err != nil {
			report.addFailure(name, PhaseTermCount, err)
			ix.countFile("failed")
			continue
		}
		for _, tw := range rows {
			if err := ix.store.InsertTermWeight(ctx, tw); err != nil {
				return err
			}
		}
	}
	return nil
}

// lengthScores computes and persists the length score of every file.
func (ix *Indexer) lengthScores(ctx context.Context, version string, log *slog.Logger) error {
	lengths, err := ix.store.TotalCorpusLengths(ctx, version)
	if err != nil {
		return err
	}
	scores, stats, err := ComputeLengthScores(lengths)
	if err != nil {
		var empty *apperrors.EmptyCorpusError
		if errors.As(err, &empty) {
			empty.Version = version
		}
		return err
	}
	log.Debug("length distribution",
		"files", stats.Count,
		"average", stats.Average,
		"standard_deviation", stats.StandardDeviation,
		"low", stats.Low,
		"high", stats.High,
	)
	for _, name := range sortedKeys(scores) {
		if err := ix.store.UpdateLengthScore(ctx, name, version, scores[name]); err != nil {
			return err
		}
	}
	return nil
}

// vectorize runs the per-file TF-IDF and norm pass on the worker pool.
func (ix *Indexer) vectorize(ctx context.Context, version string, report *Report, log *slog.Logger) error {
	lengths, err := ix.store.TotalCorpusLengths(ctx, version)
	if err != nil {
		return err
	}
	corpora, err := ix.store.CorpusMap(ctx, version)
	if err != nil {
		return err
	}
	fileCount, err := ix.store.SourceFileCount(ctx, version)
	if err != nil {
		return err
	}

	failedEarlier := make(map[string]struct{}, len(report.Failures))
	for _, f := range report.Failures {
		failedEarlier[f.FileName] = struct{}{}
	}
	files := make([]string, 0, len(lengths))
	for _, name := range sortedKeys(lengths) {
		if _, ok := failedEarlier[name]; !ok {
			files = append(files, name)
		}
	}
	log.Info("vectorizing files", "files", len(files), "file_count", fileCount)

	task := func(ctx context.Context, name string) error {
		return ix.vectorizeFile(ctx, name, version, corpora[name], fileCount)
	}
	for _, res := range ix.driver.Run(ctx, files, task) {
		if ix.metrics != nil {
			ix.metrics.FileVectorDuration.Observe(res.Elapsed.Seconds())
		}
		switch {
		case res.Err == nil:
			report.Vectorized++
			ix.countFile("vectorized")
		case errors.Is(res.Err, apperrors.ErrNoTerms):
			report.Skipped = append(report.Skipped, res.FileName)
			ix.countFile("skipped")
		default:
			report.addFailure(res.FileName, PhaseVectorize, res.Err)
			ix.countFile("failed")
		}
	}
	return nil
}

// vectorizeFile fills TF and IDF on every term weight of the file and
// persists its five norms in a single write.
func (ix *Indexer) vectorizeFile(ctx context.Context, name, version string, c corpus.Corpus, fileCount int) error {
	weights, err := ix.store.TermMap(ctx, name, version)
	if err != nil {
		return err
	}
	if weights == nil {
		// clear norms left by a previous run
		if err := ix.store.UpdateNormValues(ctx, name, version, corpus.Norms{}); err != nil {
			return err
		}
		logger.FromContext(ctx).Warn("file has no valid terms, skipping",
			"component", "vector-indexer",
			"file", name,
			"version", version,
		)
		return fmt.Errorf("%s: %w", name, apperrors.ErrNoTerms)
	}
	for term, tw := range weights {
		if err := fillWeight(&tw, fileCount); err != nil {
			return err
		}
		weights[term] = tw
		if err := ix.store.UpdateTermWeight(ctx, tw); err != nil {
			return err
		}
	}
	norms := ComputeNorms(weights, c)
	if err := ix.store.UpdateNormValues(ctx, name, version, norms); err != nil {
		return err
	}
	ix.logger.Debug("file vectorized",
		"file", name,
		"terms", len(weights),
		"corpus_norm", norms.Corpus,
	)
	return nil
}

func (ix *Indexer) timed(phase string, fn func() error) error {
	start := time.Now()
	err := fn()
	if ix.metrics != nil {
		ix.metrics.PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	}
	return err
}

func (ix *Indexer) countRun(status string) {
	if ix.metrics != nil {
		ix.metrics.RunsTotal.WithLabelValues(status).Inc()
	}
}

func (ix *Indexer) countFile(outcome string) {
	if ix.metrics != nil {
		ix.metrics.FilesTotal.WithLabelValues(outcome).Inc()
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
