// Package errors defines the error taxonomy of the indexing pass: sentinel
// values for errors.Is checks and typed wrappers carrying the file, term or
// storage operation involved.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInconsistentIndex = errors.New("inconsistent index")
	ErrEmptyCorpus       = errors.New("empty corpus")
	ErrStorage           = errors.New("storage error")
	ErrNoTerms           = errors.New("file has no term weights")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// InconsistentIndexError reports a term whose bookkeeping disagrees between
// the document-frequency table and a file's term weights, meaning two passes
// ran against different corpus states.
type InconsistentIndexError struct {
	FileName string
	Version  string
	Term     string
	Reason   string
}

func (e *InconsistentIndexError) Error() string {
	return fmt.Sprintf("%s: file %s (version %s) term %q: %s",
		ErrInconsistentIndex.Error(), e.FileName, e.Version, e.Term, e.Reason)
}

func (e *InconsistentIndexError) Unwrap() error {
	return ErrInconsistentIndex
}

// EmptyCorpusError is returned when length scores are requested for a
// version without any non-empty file.
type EmptyCorpusError struct {
	Version string
}

func (e *EmptyCorpusError) Error() string {
	if e.Version == "" {
		return ErrEmptyCorpus.Error() + ": no file with a nonzero corpus length"
	}
	return fmt.Sprintf("%s: version %s has no file with a nonzero corpus length", ErrEmptyCorpus.Error(), e.Version)
}

func (e *EmptyCorpusError) Unwrap() error {
	return ErrEmptyCorpus
}

// StorageError wraps a failure returned by a corpus store backend.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage.Error(), e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// Storage wraps err as a StorageError for op. A nil err stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err originated in a corpus store.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
