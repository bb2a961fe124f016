// Package routing classifies a chat query into one of the closed set of
// assistant intents. Classification is best-effort: any failure degrades to
// the general intent instead of surfacing an error.
package routing

// Intent is the closed set of user goals the orchestrator routes on.
type Intent string

const (
	IntentRecommendation Intent = "recommendation"
	IntentComparison     Intent = "comparison"
	IntentReview         Intent = "review"
	IntentPolicy         Intent = "policy"
	IntentPrice          Intent = "price"
	IntentGeneral        Intent = "general"
)

// AllIntents lists every valid intent.
var AllIntents = []Intent{
	IntentRecommendation,
	IntentComparison,
	IntentReview,
	IntentPolicy,
	IntentPrice,
	IntentGeneral,
}

// IsValid reports whether the intent belongs to the closed set.
func (i Intent) IsValid() bool {
	switch i {
	case IntentRecommendation, IntentComparison, IntentReview, IntentPolicy, IntentPrice, IntentGeneral:
		return true
	}
	return false
}

func (i Intent) String() string {
	return string(i)
}

// Result is the classifier output: the routed intent plus any structured
// entities pulled from the query.
type Result struct {
	Intent      Intent   `json:"intent"`
	Confidence  float64  `json:"confidence"`
	ProductName string   `json:"product_name,omitempty"`
	Category    string   `json:"category,omitempty"`
	MaxPrice    *float64 `json:"max_price,omitempty"`
	MinPrice    *float64 `json:"min_price,omitempty"`
	Reasoning   string   `json:"reasoning"`
}

// GeneralResult builds the degraded result used whenever classification
// fails.
func GeneralResult(reasoning string) *Result {
	return &Result{
		Intent:     IntentGeneral,
		Confidence: 0.0,
		Reasoning:  reasoning,
	}
}
