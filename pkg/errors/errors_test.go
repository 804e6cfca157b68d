package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorage_WrapsAndUnwraps(t *testing.T) {
	cause := context.DeadlineExceeded
	err := Storage("update norms", cause)

	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "update norms")

	var se *StorageError
	assert.True(t, errors.As(fmt.Errorf("vectorizing: %w", err), &se))
	assert.Equal(t, "update norms", se.Op)
}

func TestStorage_NilAndAlreadyWrapped(t *testing.T) {
	assert.NoError(t, Storage("noop", nil))

	inner := Storage("read corpus", errors.New("connection reset"))
	outer := Storage("outer", fmt.Errorf("context: %w", inner))

	var se *StorageError
	assert.True(t, errors.As(outer, &se))
	assert.Equal(t, "read corpus", se.Op)
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	inc := &InconsistentIndexError{FileName: "a.java", Version: "v1", Term: "foo", Reason: "missing from document-frequency table"}
	assert.ErrorIs(t, inc, ErrInconsistentIndex)
	assert.False(t, IsStorage(inc))
	assert.Contains(t, inc.Error(), `"foo"`)

	empty := &EmptyCorpusError{Version: "v1"}
	assert.ErrorIs(t, empty, ErrEmptyCorpus)
	assert.Contains(t, empty.Error(), "v1")
}
