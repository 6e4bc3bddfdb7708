package sqldb

// Dialect carries the DDL that differs between engines; the DML below is
// shared because both engines take "?" placeholders.
type Dialect struct {
	Name   string
	Schema []string
}

var MySQL = Dialect{
	Name: "mysql",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS banks (
  name VARCHAR(255) NOT NULL
) CHARACTER SET utf8mb4`,
		`CREATE TABLE IF NOT EXISTS reviews (
  name            VARCHAR(255) NOT NULL,
  review          TEXT         NOT NULL,
  rating          INT          NOT NULL,
  review_date     DATE         NOT NULL,
  source          VARCHAR(64)  NOT NULL,
  sentiment_label VARCHAR(16)  NOT NULL,
  sentiment_score DOUBLE       NOT NULL,
  INDEX idx_reviews_name_date (name, review_date)
) CHARACTER SET utf8mb4`,
	},
}

var SQLite = Dialect{
	Name: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS banks (
  name TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS reviews (
  name            TEXT    NOT NULL,
  review          TEXT    NOT NULL,
  rating          INTEGER NOT NULL,
  review_date     TEXT    NOT NULL,
  source          TEXT    NOT NULL,
  sentiment_label TEXT    NOT NULL,
  sentiment_score REAL    NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_name_date ON reviews (name, review_date)`,
	},
}

const (
	deleteBanksSQL   = `DELETE FROM banks`
	deleteReviewsSQL = `DELETE FROM reviews`

	insertBanksPrefix   = "INSERT INTO banks (name) VALUES "
	insertReviewsPrefix = "INSERT INTO reviews\n  (name, review, rating, review_date, source, sentiment_label, sentiment_score)\nVALUES "
)

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const listBanksSQL = `SELECT name FROM banks ORDER BY name`

const listReviewsSQL = `
SELECT name, review, rating, review_date, source, sentiment_label, sentiment_score
FROM reviews
WHERE name = ?
ORDER BY review_date DESC
LIMIT ?`

const sentimentByRatingSQL = `
SELECT name, rating, AVG(sentiment_score), COUNT(*)
FROM reviews
WHERE name = ?
GROUP BY name, rating
ORDER BY rating`
