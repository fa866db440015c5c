package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect captures the differences between the SQL backends.
type Dialect struct {
	Name       string
	floatType  string
	positional bool
}

var (
	DialectSQLite   = Dialect{Name: config.StoreSQLite, floatType: "REAL"}
	DialectPostgres = Dialect{Name: config.StorePostgres, floatType: "DOUBLE PRECISION", positional: true}
)

// rebind rewrites ? placeholders into $1, $2, ... for postgres.
func (d Dialect) rebind(query string) string {
	if !d.positional {
		return query
	}
	var b strings.Builder
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

func (d Dialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS index_meta (
			id INTEGER PRIMARY KEY,
			index_type INTEGER NOT NULL,
			num_docs INTEGER NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
			doc_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			max_freq INTEGER NOT NULL DEFAULT 0,
			mean_freq %s NOT NULL DEFAULT 0,
			unique_terms INTEGER NOT NULL DEFAULT 0
		)`, d.floatType),
		`CREATE TABLE IF NOT EXISTS terms (
			term_id INTEGER PRIMARY KEY,
			term TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS postings (
			term_id INTEGER NOT NULL,
			doc_id INTEGER NOT NULL,
			frequency INTEGER NOT NULL DEFAULT 0,
			positions TEXT,
			PRIMARY KEY (term_id, doc_id)
		)`,
	}
}

// SQLStore keeps one index snapshot in four relational tables.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	s, err := NewSQLStore(ctx, db, DialectSQLite)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database and creates the schema.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: dialect}
	for _, stmt := range dialect.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("creating %s schema: %w", dialect.Name, err)
		}
	}
	return s, nil
}

func (s *SQLStore) Backend() string { return s.dialect.Name }

func (s *SQLStore) Close() error { return s.db.Close() }

// Save replaces the stored snapshot inside a single transaction.
func (s *SQLStore) Save(ctx context.Context, idx *index.InvertedIndex) error {
	if !idx.Type.Valid() {
		return fmt.Errorf("saving index of type %d: %w", int(idx.Type), apperrors.ErrUnsupportedIndexType)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"postings", "terms", "documents", "index_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		s.dialect.rebind("INSERT INTO index_meta (id, index_type, num_docs) VALUES (1, ?, ?)"),
		int(idx.Type), idx.NumDocs()); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}

	docStmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
		"INSERT INTO documents (doc_id, name, max_freq, mean_freq, unique_terms) VALUES (?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer docStmt.Close()
	for id, name := range idx.Docs {
		var ds index.DocStats
		if idx.Stats != nil {
			ds = idx.Stats.Doc(id)
		}
		if _, err := docStmt.ExecContext(ctx, id, name, ds.MaxFreq, ds.MeanFreq, ds.UniqueTerms); err != nil {
			return fmt.Errorf("writing document %d: %w", id, err)
		}
	}

	termStmt, err := tx.PrepareContext(ctx, s.dialect.rebind("INSERT INTO terms (term_id, term) VALUES (?, ?)"))
	if err != nil {
		return fmt.Errorf("preparing term insert: %w", err)
	}
	defer termStmt.Close()
	postStmt, err := tx.PrepareContext(ctx, s.dialect.rebind(
		"INSERT INTO postings (term_id, doc_id, frequency, positions) VALUES (?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("preparing posting insert: %w", err)
	}
	defer postStmt.Close()

	for termID, entry := range idx.Entries() {
		if _, err := termStmt.ExecContext(ctx, termID, entry.Term); err != nil {
			return fmt.Errorf("writing term %q: %w", entry.Term, err)
		}
		for _, p := range entry.Postings {
			var positions sql.NullString
			if p.Positions != nil {
				raw, err := json.Marshal(p.Positions)
				if err != nil {
					return fmt.Errorf("encoding positions of %q: %w", entry.Term, err)
				}
				positions = sql.NullString{String: string(raw), Valid: true}
			}
			if _, err := postStmt.ExecContext(ctx, termID, p.DocID, p.Frequency, positions); err != nil {
				return fmt.Errorf("writing posting %q/%d: %w", entry.Term, p.DocID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing index: %w", err)
	}
	return nil
}

// Load reads the stored snapshot back and validates it.
func (s *SQLStore) Load(ctx context.Context) (*index.InvertedIndex, error) {
	var typ, numDocs int
	err := s.db.QueryRowContext(ctx, "SELECT index_type, num_docs FROM index_meta WHERE id = 1").Scan(&typ, &numDocs)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no index saved in %s store: %w", s.dialect.Name, apperrors.ErrIndexNotLoaded)
	}
	if err != nil {
		return nil, fmt.Errorf("reading index metadata: %w", err)
	}
	pt, err := index.ParsePostingType(typ)
	if err != nil {
		return nil, err
	}

	idx := &index.InvertedIndex{
		Type:     pt,
		Postings: make(map[string]index.PostingList),
		Docs:     make([]string, 0, numDocs),
	}
	stats := &index.CollectionStats{NumDocs: numDocs, Docs: make([]index.DocStats, 0, numDocs)}

	rows, err := s.db.QueryContext(ctx,
		"SELECT doc_id, name, max_freq, mean_freq, unique_terms FROM documents ORDER BY doc_id")
	if err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	for rows.Next() {
		var id int
		var name string
		var ds index.DocStats
		if err := rows.Scan(&id, &name, &ds.MaxFreq, &ds.MeanFreq, &ds.UniqueTerms); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if id != len(idx.Docs) {
			rows.Close()
			return nil, fmt.Errorf("document ids not dense at %d: %w", id, apperrors.ErrCorruptIndex)
		}
		idx.Docs = append(idx.Docs, name)
		stats.Docs = append(stats.Docs, ds)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading documents: %w", err)
	}
	if pt == index.Frequency {
		idx.Stats = stats
	}

	rows, err = s.db.QueryContext(ctx, `SELECT t.term, p.doc_id, p.frequency, p.positions
		FROM postings p JOIN terms t ON t.term_id = p.term_id
		ORDER BY t.term_id, p.doc_id`)
	if err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var term string
		var p index.Posting
		var positions sql.NullString
		if err := rows.Scan(&term, &p.DocID, &p.Frequency, &positions); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		if positions.Valid {
			if err := json.Unmarshal([]byte(positions.String), &p.Positions); err != nil {
				return nil, fmt.Errorf("decoding positions of %q: %w", term, apperrors.ErrCorruptIndex)
			}
		}
		idx.Postings[term] = append(idx.Postings[term], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}

	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return idx, nil
}
