package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/sourcevec/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/sourcevec/pkg/sqlite"
)

// Dialect selects placeholder syntax.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

// schema is valid for both PostgreSQL and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS source_files (
		file_name           TEXT NOT NULL,
		version             TEXT NOT NULL,
		content             TEXT NOT NULL DEFAULT '',
		class_part          TEXT NOT NULL DEFAULT '',
		method_part         TEXT NOT NULL DEFAULT '',
		variable_part       TEXT NOT NULL DEFAULT '',
		comment_part        TEXT NOT NULL DEFAULT '',
		total_corpus_length INTEGER NOT NULL DEFAULT 0,
		corpus_norm         DOUBLE PRECISION NOT NULL DEFAULT 0,
		class_norm          DOUBLE PRECISION NOT NULL DEFAULT 0,
		method_norm         DOUBLE PRECISION NOT NULL DEFAULT 0,
		variable_norm       DOUBLE PRECISION NOT NULL DEFAULT 0,
		comment_norm        DOUBLE PRECISION NOT NULL DEFAULT 0,
		length_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (file_name, version)
	)`,
	`CREATE TABLE IF NOT EXISTS terms (
		term TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS term_weights (
		file_name     TEXT NOT NULL,
		version       TEXT NOT NULL,
		term          TEXT NOT NULL,
		term_count    INTEGER NOT NULL,
		inv_doc_count INTEGER NOT NULL,
		tf            DOUBLE PRECISION NOT NULL DEFAULT 0,
		idf           DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (file_name, version, term)
	)`,
}

// SQL is a corpus store over database/sql.
type SQL struct {
	db      *sql.DB
	dialect Dialect
	inTx    func(ctx context.Context, fn func(tx *sql.Tx) error) error
	logger  *slog.Logger
}

var _ corpus.Store = (*SQL)(nil)

// NewPostgres creates a store on an open PostgreSQL client.
func NewPostgres(c *postgres.Client) *SQL {
	return &SQL{
		db:      c.DB,
		dialect: DialectPostgres,
		inTx:    c.InTx,
		logger:  slog.Default().With("component", "corpus-store", "dialect", "postgres"),
	}
}

// NewSQLite creates a store on an open SQLite client.
func NewSQLite(c *sqlite.Client) *SQL {
	return &SQL{
		db:      c.DB,
		dialect: DialectSQLite,
		inTx:    c.InTx,
		logger:  slog.Default().With("component", "corpus-store", "dialect", "sqlite"),
	}
}

// Migrate creates the tables if they do not exist.
func (s *SQL) Migrate(ctx context.Context) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Storage("migrate", err)
	}
	s.logger.Info("corpus store schema ready")
	return nil
}

// Ping verifies the database connection.
func (s *SQL) Ping(ctx context.Context) error {
	return apperrors.Storage("ping", s.db.PingContext(ctx))
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQL) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQL) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	return res, nil
}

// execOne runs an UPDATE that must touch exactly one row.
func (s *SQL) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.exec(ctx, op, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage(op, err)
	}
	if n == 0 {
		return apperrors.Storage(op, fmt.Errorf("no matching row for %v", args[len(args)-2:]))
	}
	return nil
}

func (s *SQL) SaveCorpus(ctx context.Context, fileName, version string, c corpus.Corpus) error {
	_, err := s.exec(ctx, "save corpus", `
		INSERT INTO source_files (file_name, version, content, class_part, method_part, variable_part, comment_part)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (file_name, version) DO UPDATE SET
			content = excluded.content,
			class_part = excluded.class_part,
			method_part = excluded.method_part,
			variable_part = excluded.variable_part,
			comment_part = excluded.comment_part`,
		fileName, version, c.Content, c.ClassPart, c.MethodPart, c.VariablePart, c.CommentPart,
	)
	return err
}

func (s *SQL) CorpusMap(ctx context.Context, version string) (map[string]corpus.Corpus, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT file_name, content, class_part, method_part, variable_part, comment_part
		FROM source_files WHERE version = ?`), version)
	if err != nil {
		return nil, apperrors.Storage("get corpus map", err)
	}
	defer rows.Close()

	out := make(map[string]corpus.Corpus)
	for rows.Next() {
		var name string
		var c corpus.Corpus
		if err := rows.Scan(&name, &c.Content, &c.ClassPart, &c.MethodPart, &c.VariablePart, &c.CommentPart); err != nil {
			return nil, apperrors.Storage("scan corpus row", err)
		}
		out[name] = c
	}
	return out, apperrors.Storage("get corpus map", rows.Err())
}

func (s *SQL) TotalCorpusLengths(ctx context.Context, version string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT file_name, total_corpus_length FROM source_files WHERE version = ?`), version)
	if err != nil {
		return nil, apperrors.Storage("get total corpus lengths", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var length int
		if err := rows.Scan(&name, &length); err != nil {
			return nil, apperrors.Storage("scan corpus length row", err)
		}
		out[name] = length
	}
	return out, apperrors.Storage("get total corpus lengths", rows.Err())
}

func (s *SQL) SourceFileCount(ctx context.Context, version string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM source_files WHERE version = ?`), version).Scan(&n)
	if err != nil {
		return 0, apperrors.Storage("get source file count", err)
	}
	return n, nil
}

func (s *SQL) TermMap(ctx context.Context, fileName, version string) (map[string]corpus.TermWeight, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT term, term_count, inv_doc_count, tf, idf
		FROM term_weights WHERE file_name = ? AND version = ?`), fileName, version)
	if err != nil {
		return nil, apperrors.Storage("get term map", err)
	}
	defer rows.Close()

	var out map[string]corpus.TermWeight
	for rows.Next() {
		tw := corpus.TermWeight{FileName: fileName, Version: version}
		if err := rows.Scan(&tw.Term, &tw.TermCount, &tw.InvDocCount, &tw.TF, &tw.IDF); err != nil {
			return nil, apperrors.Storage("scan term weight row", err)
		}
		if out == nil {
			out = make(map[string]corpus.TermWeight)
		}
		out[tw.Term] = tw
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("get term map", err)
	}
	return out, nil
}

func (s *SQL) InsertTerm(ctx context.Context, term string) error {
	_, err := s.exec(ctx, "insert term",
		`INSERT INTO terms (term) VALUES (?) ON CONFLICT (term) DO NOTHING`, term)
	return err
}

func (s *SQL) InsertTermWeight(ctx context.Context, tw corpus.TermWeight) error {
	_, err := s.exec(ctx, "insert term weight", `
		INSERT INTO term_weights (file_name, version, term, term_count, inv_doc_count, tf, idf)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (file_name, version, term) DO UPDATE SET
			term_count = excluded.term_count,
			inv_doc_count = excluded.inv_doc_count,
			tf = excluded.tf,
			idf = excluded.idf`,
		tw.FileName, tw.Version, tw.Term, tw.TermCount, tw.InvDocCount, tw.TF, tw.IDF,
	)
	return err
}

func (s *SQL) DeleteTermWeights(ctx context.Context, fileName, version string) error {
	_, err := s.exec(ctx, "delete term weights",
		`DELETE FROM term_weights WHERE file_name = ? AND version = ?`, fileName, version)
	return err
}

func (s *SQL) UpdateTermWeight(ctx context.Context, tw corpus.TermWeight) error {
	return s.execOne(ctx, "update term weight", `
		UPDATE term_weights SET term_count = ?, inv_doc_count = ?, tf = ?, idf = ?
		WHERE term = ? AND file_name = ? AND version = ?`,
		tw.TermCount, tw.InvDocCount, tw.TF, tw.IDF, tw.Term, tw.FileName, tw.Version,
	)
}

func (s *SQL) UpdateTotalCorpusCount(ctx context.Context, fileName, version string, count int) error {
	return s.execOne(ctx, "update total corpus count",
		`UPDATE source_files SET total_corpus_length = ? WHERE file_name = ? AND version = ?`,
		count, fileName, version,
	)
}

// UpdateNormValues writes all five norms in one statement, so readers never
// observe a partial update.
func (s *SQL) UpdateNormValues(ctx context.Context, fileName, version string, n corpus.Norms) error {
	return s.execOne(ctx, "update norm values", `
		UPDATE source_files
		SET corpus_norm = ?, class_norm = ?, method_norm = ?, variable_norm = ?, comment_norm = ?
		WHERE file_name = ? AND version = ?`,
		n.Corpus, n.Class, n.Method, n.Variable, n.Comment, fileName, version,
	)
}

func (s *SQL) UpdateLengthScore(ctx context.Context, fileName, version string, score float64) error {
	return s.execOne(ctx, "update length score",
		`UPDATE source_files SET length_score = ? WHERE file_name = ? AND version = ?`,
		score, fileName, version,
	)
}

// FileVectors returns the persisted vector of every file in version.
func (s *SQL) FileVectors(ctx context.Context, version string) (map[string]corpus.FileVector, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT file_name, total_corpus_length, corpus_norm, class_norm, method_norm,
		       variable_norm, comment_norm, length_score
		FROM source_files WHERE version = ?`), version)
	if err != nil {
		return nil, apperrors.Storage("get file vectors", err)
	}
	defer rows.Close()

	out := make(map[string]corpus.FileVector)
	for rows.Next() {
		v := corpus.FileVector{Version: version}
		if err := rows.Scan(&v.FileName, &v.TotalCorpusLength,
			&v.Norms.Corpus, &v.Norms.Class, &v.Norms.Method, &v.Norms.Variable, &v.Norms.Comment,
			&v.LengthScore); err != nil {
			return nil, apperrors.Storage("scan file vector row", err)
		}
		out[v.FileName] = v
	}
	return out, apperrors.Storage("get file vectors", rows.Err())
}
