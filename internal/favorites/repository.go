// Package favorites persists user product saves.
package favorites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"

	"github.com/cozycove/cozycove/internal/model"
)

// Repository errors.
var (
	ErrAlreadySaved = errors.New("product already saved")
	ErrNotSaved     = errors.New("product not saved")
)

// uniqueViolation is the Postgres error code for unique constraint breaks.
const uniqueViolation = "23505"

// Repository handles favorite database operations.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new favorites repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save records a user saving a product. Saving twice is reported as
// ErrAlreadySaved so callers can treat it as a no-op.
func (r *Repository) Save(ctx context.Context, userID, productID string) error {
	query := `
		INSERT INTO favorites (id, user_id, product_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		ulid.Make().String(),
		userID,
		productID,
		time.Now().UTC(),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrAlreadySaved
		}
		return fmt.Errorf("insert favorite: %w", err)
	}

	return nil
}

// Remove deletes a user's save for a product.
func (r *Repository) Remove(ctx context.Context, userID, productID string) error {
	query := `DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotSaved
	}

	return nil
}

// ListByUser returns a user's saves, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*model.Favorite, error) {
	query := `
		SELECT id, user_id, product_id, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var favorites []*model.Favorite
	for rows.Next() {
		var f model.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.ProductID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, &f)
	}

	return favorites, rows.Err()
}

// CountByProductIDs returns save counts per product for the given ids.
// Products never saved are absent from the map.
func (r *Repository) CountByProductIDs(ctx context.Context, productIDs []string) (map[string]int64, error) {
	if len(productIDs) == 0 {
		return map[string]int64{}, nil
	}

	query := `
		SELECT product_id, COUNT(*)
		FROM favorites
		WHERE product_id = ANY($1)
		GROUP BY product_id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("query favorite counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64, len(productIDs))
	for rows.Next() {
		var productID string
		var count int64
		if err := rows.Scan(&productID, &count); err != nil {
			return nil, fmt.Errorf("scan favorite count: %w", err)
		}
		counts[productID] = count
	}

	return counts, rows.Err()
}

// IsSaved reports whether the user has saved the product.
func (r *Repository) IsSaved(ctx context.Context, userID, productID string) (bool, error) {
	query := `SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2`

	var one int
	err := r.db.QueryRowContext(ctx, query, userID, productID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query favorite: %w", err)
	}

	return true, nil
}
