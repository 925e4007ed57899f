package survey

import (
	"math/rand"
	"testing"
)

func uniform(v int) Ratings {
	return Ratings{v, v, v, v, v, v, v, v, v, v, v, v}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		ratings Ratings
		want    int
	}{
		{"all zero", uniform(0), 0},
		{"all two", uniform(2), 24},
		{"all four", uniform(4), 48},
		{"mixed", Ratings{Speech: 4, Walking: 3, Dyspnea: 1}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.ratings); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScore_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 50; n++ {
		var r Ratings
		vals := make([]int, len(Fields))
		for i, f := range Fields {
			vals[i] = rng.Intn(MaxRating + 1)
			*f.ptr(&r) = vals[i]
		}
		rng.Shuffle(len(vals), func(i, j int) { vals[i], vals[j] = vals[j], vals[i] })
		var shuffled Ratings
		for i, f := range Fields {
			*f.ptr(&shuffled) = vals[i]
		}
		if Score(r) != Score(shuffled) {
			t.Fatalf("score depends on field order: %v vs %v", r, shuffled)
		}
		if s := Score(r); s < 0 || s > MaxScore {
			t.Fatalf("score %d out of range", s)
		}
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		score int
		want  float64
	}{
		{0, 0},
		{24, 50},
		{48, 100},
		{31, 64.6},
		{1, 2.1},
	}
	for _, tt := range tests {
		if got := Percentage(tt.score); got != tt.want {
			t.Errorf("Percentage(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestRatingLabel(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{48, "mild"},
		{40, "mild"},
		{39, "moderate"},
		{30, "moderate"},
		{29, "severe"},
		{20, "severe"},
		{19, "very severe"},
		{0, "very severe"},
	}
	for _, tt := range tests {
		if got := RatingLabel(tt.score); got != tt.want {
			t.Errorf("RatingLabel(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestApply(t *testing.T) {
	s := &Survey{Ratings: uniform(2), TotalScore: 99, Rating: "client"}
	s.Apply()
	if s.TotalScore != 24 || s.Percentage != 50 || s.Rating != "severe" {
		t.Errorf("unexpected derived fields %+v", s)
	}
}
