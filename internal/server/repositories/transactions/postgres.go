package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"finledger/internal/common"
	"finledger/internal/dbx"
	"finledger/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const columns = "id, user_id, kind, amount_cents, description, date, created_at, updated_at"

// scanRow reads one transactions row, mapping a NULL description to "".
func scanRow(row interface{ Scan(dest ...any) error }, t *models.Transaction) error {
	var description sql.NullString
	err := row.Scan(&t.ID, &t.UserID, &t.Kind, &t.AmountCents, &description, &t.Date, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return err
	}
	t.Description = description.String
	return nil
}

func nullableDescription(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {

	query :=
		`INSERT INTO transactions (user_id, kind, amount_cents, description, date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		t.UserID, t.Kind, t.AmountCents, nullableDescription(t.Description), t.Date).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT ` + columns + ` FROM transactions WHERE id = $1`

	t := &models.Transaction{}
	err := scanRow(r.db.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, filter models.TransactionFilter) ([]models.Transaction, error) {

	var sb strings.Builder
	sb.WriteString(`SELECT ` + columns + ` FROM transactions WHERE user_id = $1`)
	args := []any{userID}

	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		fmt.Fprintf(&sb, " AND kind = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		fmt.Fprintf(&sb, " AND date >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		fmt.Fprintf(&sb, " AND date <= $%d", len(args))
	}

	sb.WriteString(" ORDER BY date DESC, id DESC")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		if err := scanRow(rows, &t); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch models.TransactionPatch) (*models.Transaction, error) {

	var sb strings.Builder
	sb.WriteString(`UPDATE transactions SET updated_at = now()`)
	args := []any{}

	if patch.Kind != nil {
		args = append(args, *patch.Kind)
		fmt.Fprintf(&sb, ", kind = $%d", len(args))
	}
	if patch.AmountCents != nil {
		args = append(args, *patch.AmountCents)
		fmt.Fprintf(&sb, ", amount_cents = $%d", len(args))
	}
	if patch.Description != nil {
		args = append(args, nullableDescription(*patch.Description))
		fmt.Fprintf(&sb, ", description = $%d", len(args))
	}
	if patch.Date != nil {
		args = append(args, *patch.Date)
		fmt.Fprintf(&sb, ", date = $%d", len(args))
	}

	args = append(args, id)
	fmt.Fprintf(&sb, " WHERE id = $%d RETURNING "+columns, len(args))

	t := &models.Transaction{}
	err := scanRow(r.db.QueryRowContext(ctx, sb.String(), args...), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM transactions WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected > 0, nil
}

func (r *PostgresRepository) SumByKind(ctx context.Context, userID int64, kind models.TransactionKind) (int64, int64, error) {
	query :=
		`SELECT COALESCE(SUM(amount_cents), 0), COUNT(*) FROM transactions
		 WHERE user_id = $1 AND kind = $2
		 `

	var totalCents, count int64
	err := r.db.QueryRowContext(ctx, query, userID, kind).Scan(&totalCents, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("db error: %w", err)
	}

	return totalCents, count, nil
}
