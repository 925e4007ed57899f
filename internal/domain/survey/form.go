package survey

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ParseRatings binds the twelve rating fields. Every field is required and
// must be a whole number from MinRating to MaxRating. Score fields sent by
// the client are never read.
func ParseRatings(form url.Values) (Ratings, error) {
	var r Ratings
	for _, f := range Fields {
		raw := strings.TrimSpace(form.Get(f.Form))
		if raw == "" {
			return Ratings{}, &ValidationError{Field: f.Label, Reason: "is required"}
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < MinRating || v > MaxRating {
			return Ratings{}, &ValidationError{Field: f.Label, Reason: "must be a whole number from 0 to 4"}
		}
		*f.ptr(&r) = v
	}
	return r, nil
}

// ParsePatientID reads the patientId field.
func ParsePatientID(form url.Values) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(form.Get("patientId")))
	if err != nil {
		return uuid.Nil, &ValidationError{Field: "Patient", Reason: "is required"}
	}
	return id, nil
}
