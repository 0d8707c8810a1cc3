package merkle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS nodes (
    hash        TEXT PRIMARY KEY,
    parent_hash TEXT,
    bucket      TEXT NOT NULL,
    created_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_nodes_parent_hash ON nodes(parent_hash);
`

// SQLiteStorer is a Storer backed by a SQLite database file.
type SQLiteStorer struct {
	db *sql.DB
}

// NewSQLiteStorer opens (and if needed creates) the database at path.
// ":memory:" or an empty path gives a private in-memory database.
func NewSQLiteStorer(path string) (*SQLiteStorer, error) {
	dsn := path
	switch path {
	case "", ":memory:":
		dsn = ":memory:"
	default:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn = path + "?_busy_timeout=5000&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &SQLiteStorer{db: db}, nil
}

func (s *SQLiteStorer) Put(ctx context.Context, node *Node) (bool, error) {
	if err := validate(node); err != nil {
		return false, err
	}

	bucket, err := json.Marshal(node.Bucket)
	if err != nil {
		return false, fmt.Errorf("marshaling bucket: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO nodes (hash, parent_hash, bucket) VALUES (?, ?, ?)`,
		node.Hash, nullable(node.ParentHash), string(bucket),
	)
	if err != nil {
		return false, fmt.Errorf("inserting node: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading insert result: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStorer) Get(ctx context.Context, hash string) (*Node, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT hash, parent_hash, bucket FROM nodes WHERE hash = ?`, hash)

	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound{Hash: hash}
	}
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (s *SQLiteStorer) Has(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM nodes WHERE hash = ?)`, hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking node: %w", err)
	}
	return exists, nil
}

func (s *SQLiteStorer) GetByParent(ctx context.Context, parentHash *string) ([]*Node, error) {
	if parentHash == nil {
		return s.query(ctx, `SELECT hash, parent_hash, bucket FROM nodes WHERE parent_hash IS NULL ORDER BY rowid`)
	}
	return s.query(ctx, `SELECT hash, parent_hash, bucket FROM nodes WHERE parent_hash = ? ORDER BY rowid`, *parentHash)
}

func (s *SQLiteStorer) List(ctx context.Context) ([]*Node, error) {
	return s.query(ctx, `SELECT hash, parent_hash, bucket FROM nodes ORDER BY rowid`)
}

func (s *SQLiteStorer) Roots(ctx context.Context) ([]*Node, error) {
	return s.GetByParent(ctx, nil)
}

func (s *SQLiteStorer) Leaves(ctx context.Context) ([]*Node, error) {
	return s.query(ctx, `
		SELECT n.hash, n.parent_hash, n.bucket FROM nodes n
		WHERE NOT EXISTS (SELECT 1 FROM nodes c WHERE c.parent_hash = n.hash)
		ORDER BY n.rowid`)
}

func (s *SQLiteStorer) Ancestry(ctx context.Context, hash string) ([]*Node, error) {
	return ancestry(ctx, s.Get, hash)
}

func (s *SQLiteStorer) Descendants(ctx context.Context, hash string) ([]*Node, error) {
	path, err := s.Ancestry(ctx, hash)
	if err != nil {
		return nil, err
	}
	return reversed(path), nil
}

func (s *SQLiteStorer) Depth(ctx context.Context, hash string) (int, error) {
	path, err := s.Ancestry(ctx, hash)
	if err != nil {
		return 0, err
	}
	return len(path) - 1, nil
}

func (s *SQLiteStorer) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorer) query(ctx context.Context, query string, args ...any) ([]*Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	nodes := make([]*Node, 0)
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}
	return nodes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*Node, error) {
	var (
		node   Node
		parent sql.NullString
		bucket string
	)
	if err := row.Scan(&node.Hash, &parent, &bucket); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning node: %w", err)
	}
	if parent.Valid {
		p := parent.String
		node.ParentHash = &p
	}
	if err := json.Unmarshal([]byte(bucket), &node.Bucket); err != nil {
		return nil, fmt.Errorf("unmarshaling bucket for %s: %w", node.Hash, err)
	}
	return &node, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

var _ Storer = (*SQLiteStorer)(nil)
