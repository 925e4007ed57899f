package survey

import "math"

const (
	MinRating = 0
	MaxRating = 4
	MaxScore  = MaxRating * 12
)

// Score is the sum of the twelve ratings, 0 to MaxScore.
func Score(r Ratings) int {
	total := 0
	for _, v := range r.Values() {
		total += v
	}
	return total
}

// Percentage is score as a share of MaxScore, rounded to one decimal.
func Percentage(score int) float64 {
	return math.Round(float64(score)/MaxScore*1000) / 10
}

// RatingLabel buckets a total score.
func RatingLabel(score int) string {
	switch {
	case score >= 40:
		return "mild"
	case score >= 30:
		return "moderate"
	case score >= 20:
		return "severe"
	default:
		return "very severe"
	}
}

// Apply fills the derived fields of s from its ratings.
func (s *Survey) Apply() {
	s.TotalScore = Score(s.Ratings)
	s.Percentage = Percentage(s.TotalScore)
	s.Rating = RatingLabel(s.TotalScore)
}
