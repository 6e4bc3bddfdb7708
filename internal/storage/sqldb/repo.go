package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bank_reviews/internal/domain"
)

// batchSize bounds rows per INSERT statement.
const batchSize = 500

type Repo struct {
	db *sql.DB
	d  Dialect
}

func New(db *sql.DB, d Dialect) *Repo { return &Repo{db: db, d: d} }

// EnsureSchema creates the two tables when absent.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	for _, stmt := range r.d.Schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s schema: %w", r.d.Name, err)
		}
	}
	return nil
}

func (r *Repo) ReplaceBanks(ctx context.Context, names []string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error { return replaceBanks(ctx, tx, names) })
}

func (r *Repo) ReplaceReviews(ctx context.Context, rs []domain.StoredReview) error {
	return r.inTx(ctx, func(tx *sql.Tx) error { return replaceReviews(ctx, tx, rs) })
}

// ReplaceAll swaps both tables in a single transaction.
func (r *Repo) ReplaceAll(ctx context.Context, names []string, rs []domain.StoredReview) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if err := replaceBanks(ctx, tx, names); err != nil {
			return fmt.Errorf("banks: %w", err)
		}
		if err := replaceReviews(ctx, tx, rs); err != nil {
			return fmt.Errorf("reviews: %w", err)
		}
		return nil
	})
}

// inTx runs fn in one transaction so readers never observe a partial table.
func (r *Repo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceBanks(ctx context.Context, tx *sql.Tx, names []string) error {
	return replace(ctx, tx, deleteBanksSQL, insertBanksPrefix, "(?)", len(names), func(i int) []any {
		return []any{names[i]}
	})
}

func replaceReviews(ctx context.Context, tx *sql.Tx, rs []domain.StoredReview) error {
	return replace(ctx, tx, deleteReviewsSQL, insertReviewsPrefix, "(?,?,?,?,?,?,?)", len(rs), func(i int) []any {
		rv := rs[i]
		return []any{
			rv.Bank,
			rv.Review,
			rv.Rating,
			rv.ReviewDate.Format(domain.DateLayout),
			rv.Source,
			rv.SentimentLabel,
			rv.SentimentScore,
		}
	})
}

// replace deletes every row and inserts n new ones in batches.
func replace(ctx context.Context, tx *sql.Tx, deleteSQL, prefix, tuple string, n int, args func(i int) []any) error {
	if _, err := tx.ExecContext(ctx, deleteSQL); err != nil {
		return err
	}
	for lo := 0; lo < n; lo += batchSize {
		hi := min(lo+batchSize, n)
		values := make([]string, 0, hi-lo)
		var params []any
		for i := lo; i < hi; i++ {
			values = append(values, tuple)
			params = append(params, args(i)...)
		}
		if _, err := tx.ExecContext(ctx, prefix+strings.Join(values, ","), params...); err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", lo, hi, err)
		}
	}
	return nil
}

func (r *Repo) ListBanks(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listBanksSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repo) ListReviews(ctx context.Context, bank string, pg domain.PageQuery) (domain.ReviewsPage, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, bank, pg.Limit)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	var out []domain.StoredReview
	for rows.Next() {
		var (
			rv   domain.StoredReview
			date sqlDate
		)
		if err := rows.Scan(
			&rv.Bank,
			&rv.Review,
			&rv.Rating,
			&date,
			&rv.Source,
			&rv.SentimentLabel,
			&rv.SentimentScore,
		); err != nil {
			return domain.ReviewsPage{}, err
		}
		rv.ReviewDate = date.t
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: out}, nil
}

func (r *Repo) SentimentByRating(ctx context.Context, bank string) ([]domain.SentimentAggregate, error) {
	rows, err := r.db.QueryContext(ctx, sentimentByRatingSQL, bank)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SentimentAggregate
	for rows.Next() {
		var a domain.SentimentAggregate
		if err := rows.Scan(&a.Bank, &a.Rating, &a.MeanScore, &a.Count); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// sqlDate scans DATE columns from MySQL (time.Time with parseTime) and
// SQLite (TEXT).
type sqlDate struct{ t time.Time }

func (d *sqlDate) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.t = v.UTC()
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	case nil:
		d.t = time.Time{}
		return nil
	}
	return fmt.Errorf("unsupported date type %T", src)
}

func (d *sqlDate) parse(s string) error {
	if len(s) > len(domain.DateLayout) {
		s = s[:len(domain.DateLayout)]
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return err
	}
	d.t = t
	return nil
}
