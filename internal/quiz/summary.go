package quiz

import "math"

type Rating int

const (
	RatingKeepStudying Rating = iota
	RatingFair
	RatingGood
	RatingExpert
)

func (r Rating) String() string {
	switch r {
	case RatingExpert:
		return "expert"
	case RatingGood:
		return "good"
	case RatingFair:
		return "fair"
	default:
		return "keep studying"
	}
}

// Summary is the outcome of a session.
type Summary struct {
	Score int
	Total int
}

// Percent is the share of correct answers rounded to the nearest integer.
// An empty session scores 0.
func (s Summary) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return int(math.Round(float64(s.Score) / float64(s.Total) * 100))
}

func (s Summary) Rating() Rating {
	switch p := s.Percent(); {
	case p >= 80:
		return RatingExpert
	case p >= 60:
		return RatingGood
	case p >= 40:
		return RatingFair
	default:
		return RatingKeepStudying
	}
}
