package patient

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alstrack/alstrack/internal/platform/web/views"
)

const dateLayout = "2006-01-02"

// FormFromValues reads the add-patient form fields.
func FormFromValues(v url.Values) views.PatientForm {
	get := func(k string) string { return strings.TrimSpace(v.Get(k)) }
	return views.PatientForm{
		FirstName:        get("fname"),
		LastName:         get("lname"),
		Address:          get("address"),
		Sex:              get("gender"),
		Age:              get("age"),
		SSN:              get("ssn"),
		Phone:            get("phone"),
		Allergies:        get("allergies"),
		Medications:      get("medications"),
		GeneticMutations: get("genetic-mutations"),
		FamilyHistory:    get("family-history"),
		MedicalHistory:   get("medical-history"),
		SymptomOnset:     get("symptom-onset"),
		FirstVisit:       get("firstv"),
	}
}

// FromForm binds the form to a Patient. Empty fields stay empty; only values
// that cannot be bound to their type are rejected.
func FromForm(f views.PatientForm) (*Patient, error) {
	p := &Patient{
		FirstName:        f.FirstName,
		LastName:         f.LastName,
		Address:          f.Address,
		Sex:              f.Sex,
		SSN:              f.SSN,
		Phone:            f.Phone,
		Allergies:        f.Allergies,
		Medications:      f.Medications,
		GeneticMutations: f.GeneticMutations,
		FamilyHistory:    f.FamilyHistory,
		MedicalHistory:   f.MedicalHistory,
	}

	if f.Age != "" {
		age, err := strconv.Atoi(f.Age)
		if err != nil || age < 0 {
			return nil, &ValidationError{Field: "age", Reason: "must be a whole number"}
		}
		p.Age = &age
	}

	var err error
	if p.SymptomOnset, err = parseDate("symptom-onset", f.SymptomOnset); err != nil {
		return nil, err
	}
	if p.FirstVisit, err = parseDate("firstv", f.FirstVisit); err != nil {
		return nil, err
	}
	return p, nil
}

func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, &ValidationError{Field: field, Reason: "must be a date (YYYY-MM-DD)"}
	}
	return &t, nil
}
