package compliance

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ngtax/ngtax/internal/tax"
)

const defaultHistoryLimit = 12

// Repository persists scan results.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repo.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save stores a scored result.
func (r *Repository) Save(ctx context.Context, result Result) error {
	alerts, err := json.Marshal(result.Alerts)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO compliance_results (entity_id, tax_year, month, score, alerts, evaluated_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		result.EntityID, int(result.TaxYear), result.Month, result.Score, alerts, result.EvaluatedAt,
	)
	return err
}

// History returns the latest stored results for an entity, newest first.
func (r *Repository) History(ctx context.Context, entityID uuid.UUID, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := r.pool.Query(ctx, `SELECT entity_id, tax_year, month, score, alerts, evaluated_at
FROM compliance_results
WHERE entity_id = $1
ORDER BY evaluated_at DESC, id DESC
LIMIT $2`, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []Result
	for rows.Next() {
		var (
			res    Result
			year   int
			alerts []byte
		)
		if err := rows.Scan(&res.EntityID, &year, &res.Month, &res.Score, &alerts, &res.EvaluatedAt); err != nil {
			return nil, err
		}
		res.TaxYear = tax.TaxYear(year)
		if err := json.Unmarshal(alerts, &res.Alerts); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
