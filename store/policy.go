package store

// Policy is one seller policy row (returns, shipping, warranty, ...).
// Each row becomes exactly one chunk in the policy retrieval index.
type Policy struct {
	ID          int32  `json:"id"`
	PolicyType  string `json:"policy_type"`
	Description string `json:"description"`
	Conditions  string `json:"conditions"`
	Timeframe   string `json:"timeframe"`
}

// FindPolicy narrows a policy listing. Nil fields are not filtered on.
type FindPolicy struct {
	ID         *int32
	PolicyType *string
}

// PolicyWithScore pairs a policy row with its retrieval score.
type PolicyWithScore struct {
	Policy *Policy
	Score  float32
}
