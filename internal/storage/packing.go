package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier abstracts the subset of pgxpool.Pool used by PackingRepository.
// This allows injection of a fake in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PackingRepository reads the standard packing item tables.
type PackingRepository struct {
	q Querier
}

// NewPackingRepository constructs a PackingRepository backed by the given pool.
func NewPackingRepository(pool *pgxpool.Pool) *PackingRepository {
	return &PackingRepository{q: pool}
}

// NewPackingRepositoryWithQuerier constructs a PackingRepository with a custom Querier (for tests).
func NewPackingRepositoryWithQuerier(q Querier) *PackingRepository {
	return &PackingRepository{q: q}
}

const suggestItemsSQL = `
	SELECT standard_packing_item.name
	FROM standard_packing_item
	JOIN standard_packing_item_activity_type
	  ON standard_packing_item.id = standard_packing_item_activity_type.standard_packing_item_id
	JOIN standard_packing_item_vacation_type
	  ON standard_packing_item.id = standard_packing_item_vacation_type.standard_packing_item_id
	WHERE standard_packing_item_activity_type.activity_type_id =
	      (SELECT id FROM activity_type WHERE LOWER(name) = LOWER($1))
	  AND standard_packing_item_vacation_type.vacation_type_id =
	      (SELECT id FROM vacation_type WHERE LOWER(name) = LOWER($2))
	ORDER BY standard_packing_item.id
`

// SuggestItems returns the names of items associated with both the activity
// type and the vacation type, matched case-insensitively.
// An unknown type or no matching item yields an empty slice, not an error.
func (r *PackingRepository) SuggestItems(ctx context.Context, activityType, vacationType string) ([]string, error) {
	names, err := r.queryNames(ctx, suggestItemsSQL, activityType, vacationType)
	if err != nil {
		return nil, fmt.Errorf("suggesting items for %s/%s: %w", activityType, vacationType, err)
	}
	return names, nil
}

// ListActivityTypes returns every activity type name, alphabetically.
func (r *PackingRepository) ListActivityTypes(ctx context.Context) ([]string, error) {
	names, err := r.queryNames(ctx, `SELECT name FROM activity_type ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing activity types: %w", err)
	}
	return names, nil
}

// ListVacationTypes returns every vacation type name, alphabetically.
func (r *PackingRepository) ListVacationTypes(ctx context.Context) ([]string, error) {
	names, err := r.queryNames(ctx, `SELECT name FROM vacation_type ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing vacation types: %w", err)
	}
	return names, nil
}

func (r *PackingRepository) queryNames(ctx context.Context, sql string, args ...any) ([]string, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return names, nil
}
