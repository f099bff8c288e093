package record_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/record"
	dummydb "github.com/sudarshan-gautam/placement-tracking-app-sub003/storage/database/dummy"
)

const (
	owner    = "1f5c2de7-9e26-4e56-8a33-cf1eaa9c5a6d"
	stranger = "9a1b2c3d-0e26-4e56-8a33-cf1eaa9c5a6d"
	reviewer = "5e4d3c2b-1a26-4e56-8a33-cf1eaa9c5a6d"
)

func setup(t *testing.T) (*record.Service, record.Repository) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewRecordRepository(db)
	return record.NewService(repo), repo
}

func verifiedState(id string) record.VerificationState {
	return record.VerificationState{
		Status:     record.StatusVerified,
		ReviewerID: null.StringFrom(id),
		ReviewedAt: null.TimeFrom(time.Now().UTC()),
	}
}

func Test_Service_Create_startsPending(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	q, err := svc.CreateQualification(ctx, owner, record.NewQualification{
		Title:        "PGCE",
		Institution:  "UCL",
		DateObtained: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateQualification() failed: %v", err)
	}
	if q.Verification.Status != record.StatusPending {
		t.Errorf("Status = %s, want pending", q.Verification.Status)
	}
	if q.Verification.ReviewerID.Valid {
		t.Error("fresh record must have no reviewer")
	}

	s, err := svc.CreateSession(ctx, owner, record.NewSession{
		Title:           "Algebra intro",
		Subject:         "Mathematics",
		SessionDate:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if s.Verification.Status != record.StatusPending {
		t.Errorf("Status = %s, want pending", s.Verification.Status)
	}
}

func Test_Service_Update_ownership(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, owner, record.NewSession{
		Title:           "Algebra intro",
		Subject:         "Mathematics",
		SessionDate:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}

	upd := record.NewSession{
		Title:           "Algebra intro (revised)",
		Subject:         "Mathematics",
		SessionDate:     sess.SessionDate,
		DurationMinutes: 50,
	}

	if _, err = svc.UpdateSession(ctx, stranger, sess.ID, upd); errors.Cause(err) != core.ErrForbidden {
		t.Errorf("UpdateSession() by non-owner error = %v, want %v", err, core.ErrForbidden)
	}
	if _, err = svc.UpdateSession(ctx, owner, "c0ffee00-0000-4e56-8a33-cf1eaa9c5a6d", upd); errors.Cause(err) != record.ErrNotFound {
		t.Errorf("UpdateSession() on unknown id error = %v, want %v", err, record.ErrNotFound)
	}
	got, err := svc.UpdateSession(ctx, owner, sess.ID, upd)
	if err != nil {
		t.Fatalf("UpdateSession() failed: %v", err)
	}
	if got.Title != "Algebra intro (revised)" || got.DurationMinutes != 50 {
		t.Errorf("UpdateSession() = %+v", got)
	}
}

func Test_Service_Update_resetsVerification(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, owner, record.NewSession{
		Title:           "Algebra intro",
		Subject:         "Mathematics",
		SessionDate:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if _, err = repo.UpsertVerification(ctx, record.KindSession, sess.ID, verifiedState(reviewer)); err != nil {
		t.Fatalf("UpsertVerification() failed: %v", err)
	}

	got, err := svc.UpdateSession(ctx, owner, sess.ID, record.NewSession{
		Title:           "Algebra intro (revised)",
		Subject:         "Mathematics",
		SessionDate:     sess.SessionDate,
		DurationMinutes: 45,
	})
	if err != nil {
		t.Fatalf("UpdateSession() failed: %v", err)
	}
	if got.Verification.Status != record.StatusPending {
		t.Errorf("edited session status = %s, want pending", got.Verification.Status)
	}
	if got.Verification.ReviewerID.Valid {
		t.Error("edited session must drop its reviewer")
	}

	act, err := svc.CreateActivity(ctx, owner, record.NewActivity{
		Title:        "First aid course",
		ActivityType: "training",
		CompletedAt:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateActivity() failed: %v", err)
	}
	if _, err = repo.UpsertVerification(ctx, record.KindActivity, act.ID, verifiedState(reviewer)); err != nil {
		t.Fatalf("UpsertVerification() failed: %v", err)
	}
	gotAct, err := svc.UpdateActivity(ctx, owner, act.ID, record.NewActivity{
		Title:        "First aid course (refresher)",
		ActivityType: "training",
		CompletedAt:  act.CompletedAt,
	})
	if err != nil {
		t.Fatalf("UpdateActivity() failed: %v", err)
	}
	if gotAct.Verification.Status != record.StatusPending {
		t.Errorf("edited activity status = %s, want pending", gotAct.Verification.Status)
	}
}

func Test_Service_Update_keepsVerification(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	qualn, err := svc.CreateQualification(ctx, owner, record.NewQualification{
		Title:        "PGCE",
		Institution:  "UCL",
		DateObtained: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateQualification() failed: %v", err)
	}
	if _, err = repo.UpsertVerification(ctx, record.KindQualification, qualn.ID, verifiedState(reviewer)); err != nil {
		t.Fatalf("UpsertVerification() failed: %v", err)
	}

	got, err := svc.UpdateQualification(ctx, owner, qualn.ID, record.NewQualification{
		Title:        "PGCE (Secondary)",
		Institution:  "UCL",
		DateObtained: qualn.DateObtained,
	})
	if err != nil {
		t.Fatalf("UpdateQualification() failed: %v", err)
	}
	if got.Verification.Status != record.StatusVerified {
		t.Errorf("edited qualification status = %s, want verified", got.Verification.Status)
	}
	if got.Verification.ReviewerID.String != reviewer {
		t.Errorf("edited qualification reviewer = %s, want %s", got.Verification.ReviewerID.String, reviewer)
	}
}
