package integration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/alstrack/alstrack/internal/domain/account"
	"github.com/alstrack/alstrack/internal/domain/patient"
	"github.com/alstrack/alstrack/internal/domain/survey"
	"github.com/alstrack/alstrack/internal/platform/mongodb"
	"github.com/alstrack/alstrack/internal/platform/session"
)

func TestMongo_FirstUserIsAdmin(t *testing.T) {
	a := newMongoApp(t)
	ctx := context.Background()

	alice := a.register(t, "alice")
	bob := a.register(t, "bob")

	if !alice.IsAdmin {
		t.Error("expected first registered user to be admin")
	}
	if bob.IsAdmin {
		t.Error("expected second registered user not to be admin")
	}

	// The unique username index only exists if the database was opened
	// with its indexes built.
	_, err := a.accounts.Register(ctx, account.RegisterInput{Username: "alice", Password: "other"})
	if !errors.Is(err, account.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if n := a.countDocs(t, mongodb.Users, bson.M{}); n != 2 {
		t.Errorf("expected 2 users, got %d", n)
	}
}

func TestMongo_ConcurrentRegistrationSingleAdmin(t *testing.T) {
	a := newMongoApp(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = a.accounts.Register(ctx, account.RegisterInput{
				Username: "user-" + uuid.NewString()[:8],
				Password: "pw",
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}
	if admins := a.countDocs(t, mongodb.Users, bson.M{"is_admin": true}); admins != 1 {
		t.Errorf("expected exactly one admin, got %d", admins)
	}
}

func TestMongo_UserRoundTrip(t *testing.T) {
	a := newMongoApp(t)
	ctx := context.Background()

	alice := a.register(t, "alice")
	got, err := a.accounts.GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if diff := cmp.Diff(alice, got, cmpopts.IgnoreFields(account.User{}, "Patients")); diff != "" {
		t.Errorf("user mismatch after reload (-registered +stored):\n%s", diff)
	}
}

func TestMongo_AttachDetach(t *testing.T) {
	a := newMongoApp(t)
	ctx := context.Background()

	alice := a.register(t, "alice")
	bob := a.register(t, "bob")
	p := &patient.Patient{FirstName: "Ann", LastName: "Adams"}
	if err := a.patients.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := a.accounts.AttachPatient(ctx, alice.ID, p.ID); err != nil {
			t.Fatalf("attach %d: %v", i, err)
		}
	}
	u, err := a.accounts.ListWithPatients(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListWithPatients: %v", err)
	}
	if len(u.Patients) != 1 {
		t.Fatalf("expected attaching twice to leave one patient, got %d", len(u.Patients))
	}

	if err := a.accounts.AttachPatient(ctx, bob.ID, p.ID); !errors.Is(err, patient.ErrNotFound) {
		t.Errorf("expected ErrNotFound attaching another user's patient, got %v", err)
	}

	if err := a.accounts.DetachPatient(ctx, bob.ID, p.ID); err != nil {
		t.Fatalf("detach by non-owner: %v", err)
	}
	got, err := a.patients.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.OwnerID == nil || *got.OwnerID != alice.ID {
		t.Fatalf("expected detach by non-owner to leave alice as owner, got %v", got.OwnerID)
	}

	if err := a.accounts.DetachPatient(ctx, alice.ID, p.ID); err != nil {
		t.Fatalf("detach by owner: %v", err)
	}
	got, err = a.patients.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("patient should survive detach: %v", err)
	}
	if got.OwnerID != nil || got.AttachedAt != nil {
		t.Errorf("expected unowned patient, got owner %v attached %v", got.OwnerID, got.AttachedAt)
	}
}

func TestMongo_PatientRoundTrip(t *testing.T) {
	a := newMongoApp(t)
	ctx := context.Background()
	alice := a.register(t, "alice")

	form := url.Values{
		"fname":         {"Ann"},
		"lname":         {"Adams"},
		"age":           {"61"},
		"gender":        {"F"},
		"symptom-onset": {"2023-04-01"},
		"firstv":        {"2023-06-15"},
		"allergies":     {"penicillin"},
		"medications":   {"riluzole"},
	}
	p, err := patient.FromForm(patient.FormFromValues(form))
	if err != nil {
		t.Fatalf("FromForm: %v", err)
	}
	if err := a.patients.CreateForOwner(ctx, p, alice.ID); err != nil {
		t.Fatalf("CreateForOwner: %v", err)
	}

	got, err := a.patients.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	// AttachedAt is stamped separately by the store and the service.
	if diff := cmp.Diff(p, got, cmpopts.IgnoreFields(patient.Patient{}, "AttachedAt")); diff != "" {
		t.Errorf("patient mismatch after reload (-created +stored):\n%s", diff)
	}
	if got.AttachedAt == nil {
		t.Error("expected attached_at to be set")
	}
}

func TestMongo_SurveySubmission(t *testing.T) {
	a := newMongoApp(t)
	ctx := context.Background()

	alice := a.register(t, "alice")
	bob := a.register(t, "bob")
	pb := a.addPatient(t, bob, "Ben", "Brown")

	sv, err := a.surveys.Submit(ctx, survey.SubmitInput{PatientID: pb.ID, Ratings: uniform(2), SubmitterID: bob.ID})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if sv.TotalScore != 24 || sv.Percentage != 50.0 {
		t.Errorf("expected 24 / 50.0%%, got %d / %v", sv.TotalScore, sv.Percentage)
	}

	list, err := a.surveys.ListForPatient(ctx, pb.ID)
	if err != nil {
		t.Fatalf("ListForPatient: %v", err)
	}
	if diff := cmp.Diff([]*survey.Survey{sv}, list); diff != "" {
		t.Errorf("survey mismatch after reload (-submitted +stored):\n%s", diff)
	}

	bad := uniform(2)
	bad.Walking = 5
	if _, err := a.surveys.Submit(ctx, survey.SubmitInput{PatientID: pb.ID, Ratings: bad, SubmitterID: bob.ID}); err == nil {
		t.Fatal("expected an out-of-range rating to be rejected")
	}
	_, err = a.surveys.Submit(ctx, survey.SubmitInput{PatientID: pb.ID, Ratings: uniform(4), SubmitterID: uuid.New()})
	if !errors.Is(err, survey.ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound for a stranger, got %v", err)
	}
	if n := a.surveyCount(t, pb.ID); n != 1 {
		t.Errorf("expected rejected submissions to leave 1 survey, got %d", n)
	}

	if _, err := a.surveys.Submit(ctx, survey.SubmitInput{PatientID: pb.ID, Ratings: uniform(4), SubmitterID: alice.ID, IsAdmin: true}); err != nil {
		t.Fatalf("admin Submit: %v", err)
	}
	if n := a.surveyCount(t, pb.ID); n != 2 {
		t.Errorf("expected 2 surveys, got %d", n)
	}

	// The store itself refuses a survey for a patient that does not exist.
	orphan := &survey.Survey{PatientID: uuid.New(), Ratings: uniform(1), SubmittedAt: time.Now()}
	orphan.Apply()
	if err := a.surveyRepo.Create(ctx, orphan); !errors.Is(err, survey.ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound for an unknown patient, got %v", err)
	}
}

func TestMongo_DeletePatientRemovesSurveys(t *testing.T) {
	a := newMongoApp(t)
	ctx := context.Background()

	alice := a.register(t, "alice")
	bob := a.register(t, "bob")
	pb := a.addPatient(t, bob, "Ben", "Brown")
	pa := a.addPatient(t, alice, "Ann", "Adams")
	for _, p := range []*patient.Patient{pa, pb} {
		if _, err := a.surveys.Submit(ctx, survey.SubmitInput{PatientID: p.ID, Ratings: uniform(1), SubmitterID: alice.ID, IsAdmin: true}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	if err := a.patients.Delete(ctx, pb.ID, uuid.New(), false); !errors.Is(err, patient.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a stranger, got %v", err)
	}
	if err := a.patients.Delete(ctx, pb.ID, alice.ID, true); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}

	if n := a.surveyCount(t, pb.ID); n != 0 {
		t.Errorf("expected surveys to be removed with the patient, got %d", n)
	}
	if n := a.surveyCount(t, pa.ID); n != 1 {
		t.Errorf("expected other patient's survey to remain, got %d", n)
	}
	if n := a.countDocs(t, mongodb.Patients, bson.M{}); n != 1 {
		t.Errorf("expected 1 patient left, got %d", n)
	}
}

func TestMongo_DeleteAccountReleasesPatients(t *testing.T) {
	a := newMongoApp(t)
	ctx := context.Background()

	a.register(t, "alice")
	bob := a.register(t, "bob")
	pb := a.addPatient(t, bob, "Ben", "Brown")

	s := &session.Session{ID: uuid.New(), UserID: &bob.ID, Flashes: map[string][]string{}, ExpiresAt: time.Now().Add(time.Hour)}
	if err := a.sessions.Save(ctx, s); err != nil {
		t.Fatalf("Save session: %v", err)
	}

	if err := a.accounts.DeleteAccount(ctx, bob.ID); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	if _, err := a.accounts.GetByID(ctx, bob.ID); !errors.Is(err, account.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	p, err := a.patients.FindByID(ctx, pb.ID)
	if err != nil {
		t.Fatalf("patient should survive its owner: %v", err)
	}
	if p.OwnerID != nil {
		t.Error("expected patient to be unowned")
	}
	got, err := a.sessions.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get session: %v", err)
	}
	if got != nil {
		t.Error("expected the deleted user's session to be gone")
	}
}

func TestMongo_TransferAdmin(t *testing.T) {
	a := newMongoApp(t)
	ctx := context.Background()

	alice := a.register(t, "alice")
	a.register(t, "bob")

	u, err := a.accounts.TransferAdmin(ctx, "bob")
	if err != nil {
		t.Fatalf("TransferAdmin: %v", err)
	}
	if !u.IsAdmin {
		t.Error("expected bob to be admin")
	}
	prev, err := a.accounts.GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if prev.IsAdmin {
		t.Error("expected alice to lose the admin role")
	}
	if admins := a.countDocs(t, mongodb.Users, bson.M{"is_admin": true}); admins != 1 {
		t.Errorf("expected exactly one admin, got %d", admins)
	}
}

func TestMongo_SessionFlashAndExpiry(t *testing.T) {
	a := newMongoApp(t)
	ctx := context.Background()
	m := session.NewManager(a.sessions, []byte("0123456789abcdef0123456789abcdef"), time.Hour, false)

	c, rec := echoContext()
	if err := m.AddFlash(c, "info", "Patient saved"); err != nil {
		t.Fatalf("AddFlash: %v", err)
	}
	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			cookie = ck
		}
	}
	if cookie == nil {
		t.Fatal("expected session cookie in response")
	}

	c, _ = echoContext(cookie)
	msgs, err := m.PopFlash(c, "info")
	if err != nil {
		t.Fatalf("PopFlash: %v", err)
	}
	if diff := cmp.Diff([]string{"Patient saved"}, msgs); diff != "" {
		t.Errorf("flash mismatch (-want +got):\n%s", diff)
	}
	c, _ = echoContext(cookie)
	if msgs, err := m.PopFlash(c, "info"); err != nil || len(msgs) != 0 {
		t.Errorf("expected flash to be shown once, got %v (%v)", msgs, err)
	}

	expired := &session.Session{ID: uuid.New(), Flashes: map[string][]string{}, ExpiresAt: time.Now().Add(-time.Minute)}
	if err := a.sessions.Save(ctx, expired); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := a.sessions.Get(ctx, expired.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Error("expected an expired session to read as missing")
	}

	// The TTL monitor may already have removed it.
	n, err := a.sessions.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if n > 1 {
		t.Errorf("expected at most 1 expired session removed, got %d", n)
	}
	if left := a.countDocs(t, mongodb.Sessions, bson.M{}); left != 1 {
		t.Errorf("expected only the live session to remain, got %d", left)
	}
}

func echoContext(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}
