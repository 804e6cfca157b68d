package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/sqlite"
)

type fullStore interface {
	corpus.Store
	corpus.Saver
	FileVectors(ctx context.Context, version string) (map[string]corpus.FileVector, error)
}

func newSQLiteStore(t *testing.T) *SQL {
	t.Helper()
	client, err := sqlite.New(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := NewSQLite(client)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func backends(t *testing.T) map[string]fullStore {
	return map[string]fullStore{
		"memory": NewMemory(),
		"sqlite": newSQLiteStore(t),
	}
}

func TestStore_CorpusRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c := corpus.Corpus{
				Content:     "widget paint widget",
				ClassPart:   "widget",
				MethodPart:  "paint",
				CommentPart: "paint the widget",
			}
			require.NoError(t, s.SaveCorpus(ctx, "Widget.java", "v1", c))
			require.NoError(t, s.SaveCorpus(ctx, "Other.java", "v2", corpus.Corpus{Content: "other"}))

			got, err := s.CorpusMap(ctx, "v1")
			require.NoError(t, err)
			assert.Equal(t, map[string]corpus.Corpus{"Widget.java": c}, got)

			n, err := s.SourceFileCount(ctx, "v1")
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			// saving again replaces the corpus in place
			c.Content = "widget"
			require.NoError(t, s.SaveCorpus(ctx, "Widget.java", "v1", c))
			got, err = s.CorpusMap(ctx, "v1")
			require.NoError(t, err)
			assert.Equal(t, "widget", got["Widget.java"].Content)
		})
	}
}

func TestStore_TermWeights(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.SaveCorpus(ctx, "A.java", "v1", corpus.Corpus{Content: "foo foo bar"}))

			empty, err := s.TermMap(ctx, "A.java", "v1")
			require.NoError(t, err)
			assert.Nil(t, empty)

			require.NoError(t, s.InsertTerm(ctx, "foo"))
			require.NoError(t, s.InsertTerm(ctx, "foo"))

			foo := corpus.TermWeight{FileName: "A.java", Version: "v1", Term: "foo", TermCount: 2, InvDocCount: 1}
			bar := corpus.TermWeight{FileName: "A.java", Version: "v1", Term: "bar", TermCount: 1, InvDocCount: 1}
			require.NoError(t, s.InsertTermWeight(ctx, foo))
			require.NoError(t, s.InsertTermWeight(ctx, bar))

			foo.TF, foo.IDF = 1.5, 0.25
			require.NoError(t, s.UpdateTermWeight(ctx, foo))

			got, err := s.TermMap(ctx, "A.java", "v1")
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, foo, got["foo"])
			assert.Equal(t, bar, got["bar"])

			missing := corpus.TermWeight{FileName: "A.java", Version: "v1", Term: "baz", TermCount: 1, InvDocCount: 1}
			err = s.UpdateTermWeight(ctx, missing)
			require.Error(t, err)
			assert.True(t, apperrors.IsStorage(err))

			other := corpus.TermWeight{FileName: "B.java", Version: "v1", Term: "foo", TermCount: 1, InvDocCount: 1}
			require.NoError(t, s.SaveCorpus(ctx, "B.java", "v1", corpus.Corpus{Content: "foo"}))
			require.NoError(t, s.InsertTermWeight(ctx, other))

			require.NoError(t, s.DeleteTermWeights(ctx, "A.java", "v1"))
			require.NoError(t, s.DeleteTermWeights(ctx, "A.java", "v1"))
			gone, err := s.TermMap(ctx, "A.java", "v1")
			require.NoError(t, err)
			assert.Nil(t, gone)
			kept, err := s.TermMap(ctx, "B.java", "v1")
			require.NoError(t, err)
			assert.Equal(t, map[string]corpus.TermWeight{"foo": other}, kept)
		})
	}
}

func TestStore_FileVectorUpdates(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.SaveCorpus(ctx, "A.java", "v1", corpus.Corpus{Content: "a b c"}))

			require.NoError(t, s.UpdateTotalCorpusCount(ctx, "A.java", "v1", 3))
			norms := corpus.Norms{Corpus: 5, Class: 1, Method: 2, Variable: 3, Comment: 4}
			require.NoError(t, s.UpdateNormValues(ctx, "A.java", "v1", norms))
			require.NoError(t, s.UpdateLengthScore(ctx, "A.java", "v1", 0.75))

			lengths, err := s.TotalCorpusLengths(ctx, "v1")
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"A.java": 3}, lengths)

			vectors, err := s.FileVectors(ctx, "v1")
			require.NoError(t, err)
			assert.Equal(t, corpus.FileVector{
				FileName:          "A.java",
				Version:           "v1",
				TotalCorpusLength: 3,
				Norms:             norms,
				LengthScore:       0.75,
			}, vectors["A.java"])

			err = s.UpdateNormValues(ctx, "Missing.java", "v1", norms)
			require.Error(t, err)
			assert.True(t, apperrors.IsStorage(err))
		})
	}
}

func TestSQL_RebindPostgres(t *testing.T) {
	s := &SQL{dialect: DialectPostgres}
	assert.Equal(t,
		"UPDATE t SET a = $1 WHERE b = $2 AND c = $3",
		s.rebind("UPDATE t SET a = ? WHERE b = ? AND c = ?"),
	)

	s.dialect = DialectSQLite
	assert.Equal(t, "SELECT ? FROM t", s.rebind("SELECT ? FROM t"))
}

func TestMemory_Terms(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.InsertTerm(ctx, "a"))
	require.NoError(t, m.InsertTerm(ctx, "b"))
	require.NoError(t, m.InsertTerm(ctx, "a"))
	assert.Equal(t, 2, m.Terms())
}

func TestSQL_Ping(t *testing.T) {
	s := newSQLiteStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
