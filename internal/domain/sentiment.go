package domain

const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// OtherTheme is assigned when no taxonomy keyword matches.
const OtherTheme = "Other"

type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// NeutralSentiment is the zero-confidence fallback for failed classifications.
var NeutralSentiment = Sentiment{Label: LabelNeutral, Score: 0}

// Outcome carries either a computed value or a documented fallback together
// with the error that forced it.
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Err      error
}

func Ok[T any](v T) Outcome[T] { return Outcome[T]{Value: v} }

func FallbackTo[T any](v T, err error) Outcome[T] {
	return Outcome[T]{Value: v, Fallback: true, Err: err}
}

// SentimentAggregate is one (bank, rating) group.
type SentimentAggregate struct {
	Bank      string  `json:"bank"`
	Rating    int     `json:"rating"`
	MeanScore float64 `json:"sentiment_score"`
	Count     int     `json:"count"`
}

// ThemeCounts is keyed by bank, then theme.
type ThemeCounts map[string]map[string]int

// Theme is one taxonomy entry; Triggers are matched as substrings.
type Theme struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
}

// Taxonomy is ordered; assignment preserves this order.
type Taxonomy []Theme
