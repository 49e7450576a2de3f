package history

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// DefaultQuery selects one int[] column named numbers per draw.
const DefaultQuery = `SELECT numbers FROM draws ORDER BY drawn_at`

// SQLSource reads draws from a table holding one integer array per draw.
type SQLSource struct {
	DB    *sqlx.DB
	Query string
}

type drawRow struct {
	Numbers pq.Int64Array `db:"numbers"`
}

// OpenPostgres connects to the draw database.
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: connect postgres: %w", err)
	}
	return db, nil
}

// Load implements Source.
func (s SQLSource) Load(ctx context.Context) ([]Draw, error) {
	q := s.Query
	if q == "" {
		q = DefaultQuery
	}
	var rows []drawRow
	if err := s.DB.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("history: query draws: %w", err)
	}
	raw := make([][]int, len(rows))
	for i, r := range rows {
		nums := make([]int, len(r.Numbers))
		for j, n := range r.Numbers {
			nums[j] = int(n)
		}
		raw[i] = nums
	}
	return collect(raw)
}
