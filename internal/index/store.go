package index

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/JaimeStill/formfill/internal/embedding"
)

const dbFile = "index.db"

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id       INTEGER PRIMARY KEY,
	source   TEXT    NOT NULL,
	page     INTEGER NOT NULL,
	position INTEGER NOT NULL,
	text     TEXT    NOT NULL,
	vector   BLOB    NOT NULL
)`

type chunk struct {
	ID       int64     `db:"id"`
	Source   string    `db:"source"`
	Page     int       `db:"page"`
	Position int       `db:"position"`
	Text     string    `db:"text"`
	Vector   []byte    `db:"vector"`
	vec      []float32
}

type store struct {
	db *sqlx.DB
}

func openStore(ctx context.Context, dir string) (*store, error) {
	db, err := sqlx.Open("sqlite3", filepath.Join(dir, dbFile))
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &store{db: db}, nil
}

func (s *store) insert(ctx context.Context, chunks []chunk) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO chunks (source, page, position, text, vector)
		VALUES (:source, :page, :position, :text, :vector)`

	for i := range chunks {
		chunks[i].Vector = embedding.EncodeVector(chunks[i].vec)
		if _, err := tx.NamedExecContext(ctx, q, chunks[i]); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (s *store) all(ctx context.Context) ([]chunk, error) {
	var rows []chunk
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, source, page, position, text, vector FROM chunks ORDER BY id`,
	); err != nil {
		return nil, fmt.Errorf("select chunks: %w", err)
	}

	for i := range rows {
		v, err := embedding.DecodeVector(rows[i].Vector)
		if err != nil {
			return nil, fmt.Errorf("decode chunk %d: %w", rows[i].ID, err)
		}
		rows[i].vec = v
	}
	return rows, nil
}

func (s *store) count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM chunks`)
	return n, err
}

func (s *store) close() error {
	return s.db.Close()
}
