package store

// Review sentiment labels assigned at ingestion time.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Review is one customer review of a product.
type Review struct {
	ID        int32  `json:"id"`
	ProductID string `json:"product_id"`
	Rating    int32  `json:"rating"` // 1..5
	Text      string `json:"text"`
	Date      string `json:"date"`
	Sentiment string `json:"sentiment"`
}

// FindReview narrows a review listing. Nil fields are not filtered on.
type FindReview struct {
	ProductID *string
	Sentiment *string
	Limit     *int
}

// ReviewStats is the single-query aggregate the review agent reads before
// fetching any review text.
type ReviewStats struct {
	ProductID     string  `json:"product_id"`
	TotalReviews  int32   `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`
	PositiveCount int32   `json:"positive_count"`
	NegativeCount int32   `json:"negative_count"`
	NeutralCount  int32   `json:"neutral_count"`
}
