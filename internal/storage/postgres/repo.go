package postgres

import (
	"context"

	"gorm.io/gorm"

	"bank_reviews/internal/domain"
)

const batchSize = 500

// Repo implements domain.ReviewRepository over gorm.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) EnsureSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&BankRow{}, &ReviewRow{})
}

func (r *Repo) ReplaceBanks(ctx context.Context, names []string) error {
	return r.inTx(ctx, func(tx *gorm.DB) error {
		return replace(tx, &BankRow{}, bankRows(names))
	})
}

func (r *Repo) ReplaceReviews(ctx context.Context, rs []domain.StoredReview) error {
	return r.inTx(ctx, func(tx *gorm.DB) error {
		return replace(tx, &ReviewRow{}, reviewRows(rs))
	})
}

// ReplaceAll swaps both tables in a single transaction.
func (r *Repo) ReplaceAll(ctx context.Context, names []string, rs []domain.StoredReview) error {
	return r.inTx(ctx, func(tx *gorm.DB) error {
		if err := replace(tx, &BankRow{}, bankRows(names)); err != nil {
			return err
		}
		return replace(tx, &ReviewRow{}, reviewRows(rs))
	})
}

func (r *Repo) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// replace deletes every row of model and inserts rows.
func replace[T any](tx *gorm.DB, model *T, rows []T) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, batchSize).Error
}

func bankRows(names []string) []BankRow {
	rows := make([]BankRow, 0, len(names))
	for _, n := range names {
		rows = append(rows, BankRow{Name: n})
	}
	return rows
}

func reviewRows(rs []domain.StoredReview) []ReviewRow {
	rows := make([]ReviewRow, 0, len(rs))
	for _, s := range rs {
		rows = append(rows, ReviewRow{
			Name:           s.Bank,
			Review:         s.Review,
			Rating:         s.Rating,
			ReviewDate:     s.ReviewDate,
			Source:         s.Source,
			SentimentLabel: s.SentimentLabel,
			SentimentScore: s.SentimentScore,
		})
	}
	return rows
}

func (r *Repo) ListBanks(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.WithContext(ctx).
		Model(&BankRow{}).
		Order("name").
		Pluck("name", &out).Error
	return out, err
}

func (r *Repo) ListReviews(ctx context.Context, bank string, pg domain.PageQuery) (domain.ReviewsPage, error) {
	var rows []ReviewRow
	err := r.db.WithContext(ctx).
		Where("name = ?", bank).
		Order("review_date DESC").
		Limit(pg.Limit).
		Find(&rows).Error
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	out := make([]domain.StoredReview, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.StoredReview{
			Bank:           row.Name,
			Review:         row.Review,
			Rating:         row.Rating,
			ReviewDate:     row.ReviewDate.UTC(),
			Source:         row.Source,
			SentimentLabel: row.SentimentLabel,
			SentimentScore: row.SentimentScore,
		})
	}
	return domain.ReviewsPage{Items: out}, nil
}

func (r *Repo) SentimentByRating(ctx context.Context, bank string) ([]domain.SentimentAggregate, error) {
	var out []domain.SentimentAggregate
	err := r.db.WithContext(ctx).
		Model(&ReviewRow{}).
		Select("name AS bank, rating, AVG(sentiment_score) AS mean_score, COUNT(*) AS count").
		Where("name = ?", bank).
		Group("name, rating").
		Order("rating").
		Scan(&out).Error
	return out, err
}
