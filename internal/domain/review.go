package domain

import "time"

// DateLayout is the canonical calendar-date form used in files and tables.
const DateLayout = "2006-01-02"

// EpochDate is the placeholder for missing or unparseable dates.
const EpochDate = "1970-01-01"

// Placeholders written by the source adapter for absent fields.
const (
	MissingTimestamp = "N/A"
	MissingReply     = "—"
	SourceGooglePlay = "Google Play"
)

// Bank is a bank descriptor: display name plus the store application id.
type Bank struct {
	Name  string `yaml:"name"`
	AppID string `yaml:"app_id"`
}

// RawReview is one row as retrieved from the review source. Every field is
// a string and is never absent; see the placeholders above.
type RawReview struct {
	ReviewID      string
	UserName      string
	Rating        string
	Date          string
	Review        string
	AppVersion    string
	RepliedAt     string
	ReplyContent  string
	ThumbsUpCount string
	UserImageURL  string
	Bank          string
	Source        string
}

// Review is a cleaned row: rating in [1,5], date normalized to a calendar day.
type Review struct {
	ReviewID      string
	UserName      string
	Bank          string
	Text          string
	Rating        int
	Date          time.Time
	Source        string
	AppVersion    string
	ThumbsUpCount string
}

// DateString renders Date in DateLayout.
func (r Review) DateString() string { return r.Date.Format(DateLayout) }

// EnrichedReview is a Review with the enrichment columns appended.
type EnrichedReview struct {
	Review
	Tokens    []string
	Keywords  []string
	Sentiment Sentiment
	Themes    []string
}

// StoredReview is the reviews fact-table row.
type StoredReview struct {
	Bank           string    `json:"bank"`
	Review         string    `json:"review"`
	Rating         int       `json:"rating"`
	ReviewDate     time.Time `json:"review_date"`
	Source         string    `json:"source"`
	SentimentLabel string    `json:"sentiment_label"`
	SentimentScore float64   `json:"sentiment_score"`
}
