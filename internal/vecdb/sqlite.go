package vecdb

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

const metaDDL = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// SQLite implements Collection backed by SQLite + sqlite-vec. The chunk
// tables are created lazily on the first Create; only the meta table exists
// up front.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite creates or opens a database at the given path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(metaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init meta schema: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }

// Location returns the database file path.
func (s *SQLite) Location() string { return s.path }

func (s *SQLite) Exists(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table','view') AND name = 'chunks'",
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check collection: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) Dimension(ctx context.Context) (int, error) {
	v, err := s.GetMeta(ctx, "dimension")
	if err != nil || v == "" {
		return 0, err
	}
	var dim int
	if _, err := fmt.Sscanf(v, "%d", &dim); err != nil {
		return 0, fmt.Errorf("parse stored dimension %q: %w", v, err)
	}
	return dim, nil
}

func (s *SQLite) Create(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return fmt.Errorf("create collection: empty initial batch")
	}
	dim := len(records[0].Vector)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ddl := fmt.Sprintf(`
CREATE TABLE chunks (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    content    TEXT NOT NULL,
    source     TEXT NOT NULL DEFAULT '',
    file_path  TEXT NOT NULL,
    chunk_hash TEXT NOT NULL,
    timestamp  TEXT NOT NULL DEFAULT '',
    start_line INTEGER NOT NULL DEFAULT 0,
    end_line   INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX chunks_file_path ON chunks(file_path);
CREATE INDEX chunks_hash ON chunks(chunk_hash);
CREATE VIRTUAL TABLE vec_chunks USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%d]
);`, dim)
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("create collection schema: %w", err)
	}

	if err := insertRecords(tx, records, dim); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO meta (key, value) VALUES ('dimension', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		fmt.Sprintf("%d", dim),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Append(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	dim, err := s.Dimension(ctx)
	if err != nil {
		return err
	}
	if dim == 0 {
		return ErrAbsent
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertRecords(tx, records, dim); err != nil {
		return err
	}
	return tx.Commit()
}

func insertRecords(tx *sql.Tx, records []Record, dim int) error {
	stmt, err := tx.Prepare(
		"INSERT INTO chunks (content, source, file_path, chunk_hash, timestamp, start_line, end_line) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	vecStmt, err := tx.Prepare("INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer vecStmt.Close()

	for _, r := range records {
		if len(r.Vector) != dim {
			return fmt.Errorf("%w: record for %s has %d, collection has %d",
				ErrDimensionMismatch, r.FilePath, len(r.Vector), dim)
		}
		res, err := stmt.Exec(r.Content, r.Source, r.FilePath, r.ChunkHash, r.Timestamp, r.StartLine, r.EndLine)
		if err != nil {
			return fmt.Errorf("insert chunk for %s: %w", r.FilePath, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		blob, err := sqlite_vec.SerializeFloat32(r.Vector)
		if err != nil {
			return fmt.Errorf("serialize embedding: %w", err)
		}
		if _, err := vecStmt.Exec(id, blob); err != nil {
			return fmt.Errorf("insert embedding: %w", err)
		}
	}
	return nil
}

func (s *SQLite) Scan(ctx context.Context) ([]Record, error) {
	exists, err := s.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrAbsent
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.content, c.source, c.file_path, c.chunk_hash, c.timestamp, c.start_line, c.end_line, v.embedding
		FROM chunks c
		JOIN vec_chunks v ON v.chunk_id = c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("scan collection: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var blob []byte
		if err := rows.Scan(&r.Content, &r.Source, &r.FilePath, &r.ChunkHash, &r.Timestamp, &r.StartLine, &r.EndLine, &blob); err != nil {
			return nil, err
		}
		r.Vector = deserializeFloat32(blob)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) NearestNeighbors(ctx context.Context, vector []float32, limit int) ([]Scored, error) {
	exists, err := s.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrAbsent
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("serialize query vector: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.distance, c.content, c.source, c.file_path, c.chunk_hash, c.timestamp, c.start_line, c.end_line
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		WHERE v.embedding MATCH ?
		ORDER BY v.distance
		LIMIT ?
	`, blob, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbors: %w", err)
	}
	defer rows.Close()

	var results []Scored
	for rows.Next() {
		var r Scored
		if err := rows.Scan(&r.Distance, &r.Content, &r.Source, &r.FilePath, &r.ChunkHash, &r.Timestamp, &r.StartLine, &r.EndLine); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DeleteByFile removes all records for a file path using native row deletes.
func (s *SQLite) DeleteByFile(ctx context.Context, path string) (int, error) {
	exists, err := s.Exists(ctx)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT id FROM chunks WHERE file_path = ?", path)
	if err != nil {
		return 0, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		if _, err := tx.Exec("DELETE FROM vec_chunks WHERE chunk_id = ?", id); err != nil {
			return 0, err
		}
	}
	if _, err := tx.Exec("DELETE FROM chunks WHERE file_path = ?", path); err != nil {
		return 0, err
	}
	return len(ids), tx.Commit()
}

func (s *SQLite) Drop(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		DROP TABLE IF EXISTS vec_chunks;
		DROP TABLE IF EXISTS chunks;
		DELETE FROM meta WHERE key = 'dimension';
	`)
	if err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return nil
}

func (s *SQLite) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *SQLite) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// deserializeFloat32 decodes the little-endian float32 blob sqlite-vec
// stores for an embedding column.
func deserializeFloat32(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
