package filing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ngtax/ngtax/internal/platform/db"
	"github.com/ngtax/ngtax/internal/tax"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Repository persists entities, transactions and filings in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repo.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entityColumns = `id, name, taxpayer_class, tin, vat_registered, created_at`

// GetEntity fetches by id.
func (r *Repository) GetEntity(ctx context.Context, id uuid.UUID) (Entity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = $1`, id)
	entity, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entity{}, ErrEntityNotFound
		}
		return Entity{}, err
	}
	return entity, nil
}

// ListEntities returns all entities ordered by creation.
func (r *Repository) ListEntities(ctx context.Context) ([]Entity, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+entityColumns+` FROM entities ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entities []Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, rows.Err()
}

// InsertEntity registers a taxpayer.
func (r *Repository) InsertEntity(ctx context.Context, e Entity) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO entities (`+entityColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Name, string(e.TaxpayerClass), e.TIN, e.VATRegistered, e.CreatedAt,
	)
	return mapWriteError(err, ErrDuplicateEntity)
}

const transactionColumns = `id, entity_id, kind, amount::text, transaction_date, service_category, vat_exempt, tax_year, taxpayer_class, amended_at`

// GetTransaction fetches a transaction scoped to its entity.
func (r *Repository) GetTransaction(ctx context.Context, entityID, id uuid.UUID) (tax.Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE entity_id = $1 AND id = $2`, entityID, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tax.Transaction{}, ErrTransactionNotFound
		}
		return tax.Transaction{}, err
	}
	return tx, nil
}

// ListTransactions returns transactions dated within [from, to).
func (r *Repository) ListTransactions(ctx context.Context, entityID uuid.UUID, from, to time.Time) ([]tax.Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+transactionColumns+`
FROM transactions
WHERE entity_id = $1 AND transaction_date >= $2 AND transaction_date < $3
ORDER BY transaction_date, id`, entityID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txs []tax.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// InsertTransaction stores a transaction and its derived results atomically.
func (r *Repository) InsertTransaction(ctx context.Context, tx tax.Transaction, result tax.TransactionResult) error {
	err := db.WithTx(ctx, r.pool, func(dbtx pgx.Tx) error {
		if _, err := dbtx.Exec(ctx, `INSERT INTO transactions
(id, entity_id, kind, amount, transaction_date, service_category, vat_exempt, tax_year, taxpayer_class)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9)`,
			tx.ID, tx.EntityID, string(tx.Kind), tx.Amount.String(), tx.Date,
			string(tx.ServiceCategory), tx.VATExempt, int(tx.TaxYear), string(tx.TaxpayerClass),
		); err != nil {
			return err
		}
		return upsertResult(ctx, dbtx, tx.ID, result)
	})
	return mapWriteError(err, ErrDuplicateTransaction)
}

// UpdateTransaction rewrites a transaction and replaces its derived results.
func (r *Repository) UpdateTransaction(ctx context.Context, tx tax.Transaction, result tax.TransactionResult) error {
	err := db.WithTx(ctx, r.pool, func(dbtx pgx.Tx) error {
		tag, err := dbtx.Exec(ctx, `UPDATE transactions SET
kind = $3, amount = $4::numeric, transaction_date = $5, service_category = $6,
vat_exempt = $7, tax_year = $8, taxpayer_class = $9, amended_at = $10
WHERE entity_id = $1 AND id = $2`,
			tx.EntityID, tx.ID, string(tx.Kind), tx.Amount.String(), tx.Date,
			string(tx.ServiceCategory), tx.VATExempt, int(tx.TaxYear), string(tx.TaxpayerClass), tx.AmendedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrTransactionNotFound
		}
		return upsertResult(ctx, dbtx, tx.ID, result)
	})
	return mapWriteError(err, ErrDuplicateTransaction)
}

// ListFilings returns filings for the period; an annual period includes every month.
func (r *Repository) ListFilings(ctx context.Context, entityID uuid.UUID, period Period) ([]Filing, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, entity_id, tax_type, tax_year, month, amount::text, due_at, filed_at
FROM filings
WHERE entity_id = $1 AND tax_year = $2 AND ($3::int IS NULL OR month IS NULL OR month = $3)
ORDER BY filed_at, id`, entityID, int(period.TaxYear), period.Month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var filings []Filing
	for rows.Next() {
		var (
			f       Filing
			taxType string
			year    int
			amount  string
		)
		if err := rows.Scan(&f.ID, &f.EntityID, &taxType, &year, &f.Month, &amount, &f.DueAt, &f.FiledAt); err != nil {
			return nil, err
		}
		f.TaxType = TaxType(taxType)
		f.TaxYear = tax.TaxYear(year)
		if f.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		filings = append(filings, f)
	}
	return filings, rows.Err()
}

// InsertFiling stores a submitted return.
func (r *Repository) InsertFiling(ctx context.Context, f Filing) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO filings (id, entity_id, tax_type, tax_year, month, amount, due_at, filed_at)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)`,
		f.ID, f.EntityID, string(f.TaxType), int(f.TaxYear), f.Month, f.Amount.String(), f.DueAt, f.FiledAt,
	)
	return mapWriteError(err, ErrDuplicateFiling)
}

func upsertResult(ctx context.Context, dbtx pgx.Tx, id uuid.UUID, result tax.TransactionResult) error {
	whtRate, whtAmount := decimal.Zero, decimal.Zero
	if result.WHT != nil {
		whtRate, whtAmount = result.WHT.Rate, result.WHT.WHTAmount
	}
	_, err := dbtx.Exec(ctx, `INSERT INTO transaction_results
(transaction_id, output_vat, input_vat, wht_rate, wht_amount, paye, computed_at)
VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, $6::numeric, NOW())
ON CONFLICT (transaction_id) DO UPDATE SET
output_vat = EXCLUDED.output_vat, input_vat = EXCLUDED.input_vat, wht_rate = EXCLUDED.wht_rate,
wht_amount = EXCLUDED.wht_amount, paye = EXCLUDED.paye, computed_at = EXCLUDED.computed_at`,
		id, result.OutputVAT.String(), result.InputVAT.String(), whtRate.String(), whtAmount.String(), result.PAYE.String(),
	)
	return err
}

func mapWriteError(err error, duplicate error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return duplicate
		case pgForeignKeyViolation:
			return ErrEntityNotFound
		}
	}
	return err
}

func scanEntity(row pgx.Row) (Entity, error) {
	var (
		e     Entity
		class string
	)
	if err := row.Scan(&e.ID, &e.Name, &class, &e.TIN, &e.VATRegistered, &e.CreatedAt); err != nil {
		return Entity{}, err
	}
	e.TaxpayerClass = tax.TaxpayerClass(class)
	return e, nil
}

func scanTransaction(row pgx.Row) (tax.Transaction, error) {
	var (
		tx       tax.Transaction
		kind     string
		amount   string
		category string
		year     int
		class    string
	)
	if err := row.Scan(&tx.ID, &tx.EntityID, &kind, &amount, &tx.Date, &category, &tx.VATExempt, &year, &class, &tx.AmendedAt); err != nil {
		return tax.Transaction{}, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return tax.Transaction{}, err
	}
	tx.Kind = tax.TransactionKind(kind)
	tx.Amount = parsed
	tx.ServiceCategory = tax.ServiceCategory(category)
	tx.TaxYear = tax.TaxYear(year)
	tx.TaxpayerClass = tax.TaxpayerClass(class)
	return tx, nil
}
