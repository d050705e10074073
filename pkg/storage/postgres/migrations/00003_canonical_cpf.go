package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/lexaprendiz/lexaprendiz/pkg/cpf"
)

func init() {
	goose.AddMigrationContext(upCanonicalCPF, downCanonicalCPF)
}

// upCanonicalCPF rewrites digits-only CPFs to "000.000.000-00". Rows whose
// canonical form already exists are left for the admin duplicate cleanup.
func upCanonicalCPF(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, cpf FROM users WHERE cpf IS NOT NULL ORDER BY created_at, id`)
	if err != nil {
		return fmt.Errorf("select cpfs: %w", err)
	}
	var ids, stored []string
	for rows.Next() {
		var id, value string
		if err := rows.Scan(&id, &value); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
		stored = append(stored, value)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rewrites, _ := cpf.PlanCanonical(stored)
	for _, rw := range rewrites {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET cpf = $1 WHERE id = $2`, rw.To, ids[rw.Index]); err != nil {
			return fmt.Errorf("canonicalize %s: %w", ids[rw.Index], err)
		}
	}
	return nil
}

// Stored representations are equivalent, so there is nothing to undo.
func downCanonicalCPF(context.Context, *sql.Tx) error { return nil }
