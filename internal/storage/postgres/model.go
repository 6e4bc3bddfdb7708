package postgres

import "time"

// BankRow maps the banks dimension table.
type BankRow struct {
	Name string `gorm:"column:name;type:varchar(255);not null"`
}

func (BankRow) TableName() string { return "banks" }

// ReviewRow maps the reviews fact table.
type ReviewRow struct {
	Name           string    `gorm:"column:name;type:varchar(255);not null;index:idx_reviews_name_date"`
	Review         string    `gorm:"column:review;type:text;not null"`
	Rating         int       `gorm:"column:rating;not null"`
	ReviewDate     time.Time `gorm:"column:review_date;type:date;not null;index:idx_reviews_name_date"`
	Source         string    `gorm:"column:source;type:varchar(64);not null"`
	SentimentLabel string    `gorm:"column:sentiment_label;type:varchar(16);not null"`
	SentimentScore float64   `gorm:"column:sentiment_score;not null"`
}

func (ReviewRow) TableName() string { return "reviews" }
