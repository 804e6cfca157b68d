// Package store provides corpus store backends: an in-memory store and a
// database/sql store with PostgreSQL and SQLite dialects.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/errors"
)

type fileKey struct {
	fileName string
	version  string
}

type fileRow struct {
	corpus corpus.Corpus
	vector corpus.FileVector
}

// Memory is a mutex-guarded in-memory corpus store.
type Memory struct {
	mu      sync.RWMutex
	files   map[fileKey]*fileRow
	terms   map[string]struct{}
	weights map[fileKey]map[string]corpus.TermWeight
}

var _ corpus.Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		files:   make(map[fileKey]*fileRow),
		terms:   make(map[string]struct{}),
		weights: make(map[fileKey]map[string]corpus.TermWeight),
	}
}

func (m *Memory) SaveCorpus(_ context.Context, fileName, version string, c corpus.Corpus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fileKey{fileName, version}
	row, ok := m.files[key]
	if !ok {
		row = &fileRow{vector: corpus.FileVector{FileName: fileName, Version: version}}
		m.files[key] = row
	}
	row.corpus = c
	return nil
}

func (m *Memory) CorpusMap(_ context.Context, version string) (map[string]corpus.Corpus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]corpus.Corpus)
	for key, row := range m.files {
		if key.version == version {
			out[key.fileName] = row.corpus
		}
	}
	return out, nil
}

func (m *Memory) TotalCorpusLengths(_ context.Context, version string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]int)
	for key, row := range m.files {
		if key.version == version {
			out[key.fileName] = row.vector.TotalCorpusLength
		}
	}
	return out, nil
}

func (m *Memory) SourceFileCount(_ context.Context, version string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for key := range m.files {
		if key.version == version {
			n++
		}
	}
	return n, nil
}

func (m *Memory) TermMap(_ context.Context, fileName, version string) (map[string]corpus.TermWeight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.weights[fileKey{fileName, version}]
	if len(rows) == 0 {
		return nil, nil
	}
	out := make(map[string]corpus.TermWeight, len(rows))
	for term, tw := range rows {
		out[term] = tw
	}
	return out, nil
}

func (m *Memory) InsertTerm(_ context.Context, term string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terms[term] = struct{}{}
	return nil
}

func (m *Memory) InsertTermWeight(_ context.Context, tw corpus.TermWeight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fileKey{tw.FileName, tw.Version}
	rows, ok := m.weights[key]
	if !ok {
		rows = make(map[string]corpus.TermWeight)
		m.weights[key] = rows
	}
	rows[tw.Term] = tw
	return nil
}

func (m *Memory) DeleteTermWeights(_ context.Context, fileName, version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.weights, fileKey{fileName, version})
	return nil
}

func (m *Memory) UpdateTermWeight(_ context.Context, tw corpus.TermWeight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.weights[fileKey{tw.FileName, tw.Version}]
	if _, ok := rows[tw.Term]; !ok {
		return apperrors.Storage("update term weight", fmt.Errorf("no row for %s/%s/%s", tw.FileName, tw.Version, tw.Term))
	}
	rows[tw.Term] = tw
	return nil
}

func (m *Memory) UpdateTotalCorpusCount(_ context.Context, fileName, version string, count int) error {
	return m.updateFile("update total corpus count", fileName, version, func(v *corpus.FileVector) {
		v.TotalCorpusLength = count
	})
}

func (m *Memory) UpdateNormValues(_ context.Context, fileName, version string, norms corpus.Norms) error {
	return m.updateFile("update norm values", fileName, version, func(v *corpus.FileVector) {
		v.Norms = norms
	})
}

func (m *Memory) UpdateLengthScore(_ context.Context, fileName, version string, score float64) error {
	return m.updateFile("update length score", fileName, version, func(v *corpus.FileVector) {
		v.LengthScore = score
	})
}

func (m *Memory) updateFile(op, fileName, version string, fn func(*corpus.FileVector)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.files[fileKey{fileName, version}]
	if !ok {
		return apperrors.Storage(op, fmt.Errorf("unknown file %s (version %s)", fileName, version))
	}
	fn(&row.vector)
	return nil
}

// FileVectors returns the persisted vector of every file in version.
func (m *Memory) FileVectors(_ context.Context, version string) (map[string]corpus.FileVector, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]corpus.FileVector)
	for key, row := range m.files {
		if key.version == version {
			out[key.fileName] = row.vector
		}
	}
	return out, nil
}

// Terms returns the size of the term dictionary.
func (m *Memory) Terms() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.terms)
}
