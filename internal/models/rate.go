package models

// RateKind names the entity a rating applies to
type RateKind string

const (
	RateKindPost    RateKind = "post"
	RateKindComment RateKind = "comment"
	RateKindBlog    RateKind = "blog"
	RateKindUser    RateKind = "user"
)

// ValidRateKinds defines accepted rating subjects
var ValidRateKinds = map[RateKind]bool{
	RateKindPost:    true,
	RateKindComment: true,
	RateKindBlog:    true,
	RateKindUser:    true,
}

// RateResult reports the outcome of a rating.
// Applied is false when the user already rated the subject.
type RateResult struct {
	Applied   bool `json:"applied"`
	Rate      int  `json:"rate"`
	RateCount int  `json:"rate_count"`
}

// RateRequest carries the rating direction, +1 or -1
type RateRequest struct {
	Delta int `json:"delta"`
}
