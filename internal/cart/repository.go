package cart

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository stores cart snapshots in Postgres, one snapshot per session.
// Save replaces the stored line list wholesale inside a transaction so a
// reader never observes a half-written cart.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Load(ctx context.Context, sessionID string) ([]Line, error) {
	const snapshotQuery = `SELECT id FROM cart_snapshots WHERE session_id = $1`

	var snapshotID string
	err := r.db.QueryRowContext(ctx, snapshotQuery, sessionID).Scan(&snapshotID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, name, unit_price, quantity FROM cart_lines WHERE snapshot_id = $1 ORDER BY position`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var ln Line
		if err := rows.Scan(&ln.ProductID, &ln.Name, &ln.UnitPrice, &ln.Quantity); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		lines = append(lines, ln)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (r *Repository) Save(ctx context.Context, sessionID string, lines []Line) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsertSQL = `
INSERT INTO cart_snapshots (id, session_id, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (session_id) DO UPDATE
SET updated_at = NOW()
RETURNING id
`
	var snapshotID string
	if err = tx.QueryRowContext(ctx, upsertSQL, uuid.NewString(), sessionID).Scan(&snapshotID); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE snapshot_id = $1`, snapshotID); err != nil {
		return fmt.Errorf("clear lines: %w", err)
	}

	if len(lines) > 0 {
		stmt, prepErr := tx.PrepareContext(ctx,
			`INSERT INTO cart_lines (id, snapshot_id, position, product_id, name, unit_price, quantity) VALUES ($1, $2, $3, $4, $5, $6, $7)`)
		if prepErr != nil {
			err = prepErr
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, ln := range lines {
			if _, err = stmt.ExecContext(ctx, uuid.NewString(), snapshotID, i, ln.ProductID, ln.Name, ln.UnitPrice, ln.Quantity); err != nil {
				return fmt.Errorf("insert line %q: %w", ln.Name, err)
			}
		}
	}

	err = tx.Commit()
	return err
}

func (r *Repository) Clear(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_snapshots WHERE session_id = $1`, sessionID)
	return err
}
