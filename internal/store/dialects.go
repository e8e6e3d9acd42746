package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/dynir/internal/compiler"
	"github.com/roach88/dynir/internal/ir"
)

// DialectRecord is a catalogued dialect declaration.
type DialectRecord struct {
	Hash          string
	Name          string
	Source        string // textual declaration, re-parseable with compiler.ParseText
	Canonical     string // RFC 8785 JSON the hash is computed over
	Seq           int64
	IRVersion     string
	EngineVersion string
}

// Decl re-parses the stored source and checks that it still hashes to
// the catalogued hash.
func (r DialectRecord) Decl() (*compiler.DialectDecl, error) {
	decls, err := compiler.ParseText(r.Source, "catalog:"+r.Name)
	if err != nil {
		return nil, fmt.Errorf("decode dialect %s: %w", r.Hash, err)
	}
	if len(decls) != 1 {
		return nil, fmt.Errorf("decode dialect %s: expected one declaration, got %d", r.Hash, len(decls))
	}
	hash, err := decls[0].Hash()
	if err != nil {
		return nil, fmt.Errorf("decode dialect %s: %w", r.Hash, err)
	}
	if hash != r.Hash {
		return nil, fmt.Errorf("decode dialect %s: source hashes to %s", r.Hash, hash)
	}
	return decls[0], nil
}

// WriteDialect catalogues decl. Declarations are content-addressed, so
// writing the same declaration twice returns the existing record with
// inserted=false.
func (s *Store) WriteDialect(ctx context.Context, decl *compiler.DialectDecl) (rec DialectRecord, inserted bool, err error) {
	canonical, err := decl.Canonical()
	if err != nil {
		return DialectRecord{}, false, fmt.Errorf("write dialect: %w", err)
	}
	hash := ir.DeclHash(canonical)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DialectRecord{}, false, fmt.Errorf("write dialect: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO dialects
		(hash, name, source, canonical, seq, ir_version, engine_version)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM dialects), ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`,
		hash,
		decl.Name,
		decl.Text(),
		string(canonical),
		ir.DeclVersion,
		ir.EngineVersion,
	)
	if err != nil {
		return DialectRecord{}, false, fmt.Errorf("write dialect: insert: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return DialectRecord{}, false, fmt.Errorf("write dialect: rows affected: %w", err)
	}

	rec, err = scanDialect(tx.QueryRowContext(ctx, selectDialect+` WHERE hash = ?`, hash))
	if err != nil {
		return DialectRecord{}, false, fmt.Errorf("write dialect: select: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return DialectRecord{}, false, fmt.Errorf("write dialect: commit: %w", err)
	}
	return rec, rowsAffected > 0, nil
}

const selectDialect = `
	SELECT hash, name, source, canonical, seq, ir_version, engine_version
	FROM dialects`

// ReadDialect retrieves a dialect by hash.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadDialect(ctx context.Context, hash string) (DialectRecord, error) {
	return scanDialect(s.db.QueryRowContext(ctx, selectDialect+` WHERE hash = ?`, hash))
}

// LatestDialect retrieves the most recently catalogued declaration of the
// named dialect.
// Returns sql.ErrNoRows if not found.
func (s *Store) LatestDialect(ctx context.Context, name string) (DialectRecord, error) {
	return scanDialect(s.db.QueryRowContext(ctx, selectDialect+`
		WHERE name = ?
		ORDER BY seq DESC
		LIMIT 1
	`, name))
}

// ListDialects returns every catalogued dialect in catalog order.
// Returns an empty slice (not nil) for an empty catalog.
func (s *Store) ListDialects(ctx context.Context) ([]DialectRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectDialect+`
		ORDER BY seq ASC, hash COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query dialects: %w", err)
	}
	defer rows.Close()

	records := []DialectRecord{}
	for rows.Next() {
		rec, err := scanDialect(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dialects: %w", err)
	}
	return records, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDialect(row rowScanner) (DialectRecord, error) {
	var rec DialectRecord
	err := row.Scan(
		&rec.Hash,
		&rec.Name,
		&rec.Source,
		&rec.Canonical,
		&rec.Seq,
		&rec.IRVersion,
		&rec.EngineVersion,
	)
	if err == sql.ErrNoRows {
		return DialectRecord{}, err
	}
	if err != nil {
		return DialectRecord{}, fmt.Errorf("scan dialect: %w", err)
	}
	return rec, nil
}
