package verify_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/record"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/user"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/verify"
	emailsvc "github.com/sudarshan-gautam/placement-tracking-app-sub003/services/email"
	dummydb "github.com/sudarshan-gautam/placement-tracking-app-sub003/storage/database/dummy"
	testutil "github.com/sudarshan-gautam/placement-tracking-app-sub003/tests"
)

type fixture struct {
	svc     *verify.Service
	usrRepo user.Repository
	recRepo record.Repository

	admin    user.User
	mentor   user.User // assigned to student1
	idle     user.User // mentor with no assignments
	student1 user.User
	student2 user.User
}

func actorFor(usr user.User) verify.Actor {
	return verify.Actor{ID: usr.ID, Roles: usr.Roles}
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conf := &core.Config{
		TestMode:                  true,
		SecretKey:                 "secret",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	recRepo := dummydb.NewRecordRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)

	f := &fixture{
		svc:      verify.NewService(recRepo, usrSvc, mailSvc, conf),
		usrRepo:  usrRepo,
		recRepo:  recRepo,
		admin:    testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true),
		mentor:   testutil.CreateUser(t, usrRepo, "Mentor", "mentor", "mentor@test.cd", "", []string{user.RoleMentor}, true),
		idle:     testutil.CreateUser(t, usrRepo, "Idle", "idle", "idle@test.cd", "", []string{user.RoleMentor}, true),
		student1: testutil.CreateUser(t, usrRepo, "Student One", "student1", "student1@test.cd", "", []string{user.RoleStudent}, true),
		student2: testutil.CreateUser(t, usrRepo, "Student Two", "student2", "student2@test.cd", "", []string{user.RoleStudent}, true),
	}
	testutil.CreateAssignment(t, usrRepo, f.mentor.ID, f.student1.ID)
	return f
}

func statusPtr(s record.Status) *record.Status { return &s }

func Test_Service_List_scoping(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	q1 := testutil.CreateQualification(t, f.recRepo, f.student1.ID, "PGCE")
	q2 := testutil.CreateQualification(t, f.recRepo, f.student2.ID, "BSc Mathematics")
	s1 := testutil.CreateSession(t, f.recRepo, f.student1.ID, "Algebra intro")
	testutil.CreateActivity(t, f.recRepo, f.student2.ID, "First aid course")

	tests := []struct {
		name       string
		actor      verify.Actor
		kind       record.Kind
		owner      string
		wantQualns []string
		wantErr    error
	}{
		{name: "admin sees everything", actor: actorFor(f.admin), kind: record.KindQualification, wantQualns: []string{q1.ID, q2.ID}},
		{name: "mentor sees assigned students only", actor: actorFor(f.mentor), kind: record.KindQualification, wantQualns: []string{q1.ID}},
		{name: "mentor with no assignments sees nothing", actor: actorFor(f.idle), kind: record.KindQualification, wantQualns: []string{}},
		{name: "student sees own records only", actor: actorFor(f.student1), kind: record.KindQualification, wantQualns: []string{q1.ID}},
		{name: "owner filter within scope", actor: actorFor(f.admin), kind: record.KindQualification, owner: f.student2.ID, wantQualns: []string{q2.ID}},
		{name: "owner filter outside scope is refused", actor: actorFor(f.mentor), kind: record.KindQualification, owner: f.student2.ID, wantErr: core.ErrForbidden},
		{name: "student asking for another owner is refused", actor: actorFor(f.student1), kind: record.KindQualification, owner: f.student2.ID, wantErr: core.ErrForbidden},
		{name: "unauthenticated actor is refused", actor: verify.Actor{}, kind: record.KindQualification, wantErr: core.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing, err := f.svc.List(ctx, tt.actor, tt.kind, nil, tt.owner)
			if tt.wantErr != nil {
				if errors.Cause(err) != tt.wantErr {
					t.Fatalf("List() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("List() failed: %v", err)
			}
			if len(listing.Qualifications) != len(tt.wantQualns) {
				t.Fatalf("List() returned %d qualifications, want %d", len(listing.Qualifications), len(tt.wantQualns))
			}
			got := make(map[string]bool, len(listing.Qualifications))
			for _, q := range listing.Qualifications {
				got[q.ID] = true
			}
			for _, id := range tt.wantQualns {
				if !got[id] {
					t.Errorf("List() missing qualification %s", id)
				}
			}
		})
	}

	// a fan-out across all kinds returns each kind's list under the same scope
	listing, err := f.svc.List(ctx, actorFor(f.mentor), record.KindAll, nil, "")
	if err != nil {
		t.Fatalf("List(all) failed: %v", err)
	}
	if len(listing.Qualifications) != 1 || listing.Qualifications[0].ID != q1.ID {
		t.Errorf("List(all) qualifications = %v", listing.Qualifications)
	}
	if len(listing.Sessions) != 1 || listing.Sessions[0].ID != s1.ID {
		t.Errorf("List(all) sessions = %v", listing.Sessions)
	}
	if len(listing.Activities) != 0 {
		t.Errorf("List(all) leaked another student's activities: %v", listing.Activities)
	}
}

func Test_Service_List_statusFilter(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	pending := testutil.CreateSession(t, f.recRepo, f.student1.ID, "Pending session")
	reviewed := testutil.CreateSession(t, f.recRepo, f.student1.ID, "Reviewed session")
	if _, err := f.svc.SetStatus(ctx, actorFor(f.admin), record.KindSession, reviewed.ID, verify.StatusChange{Status: record.StatusVerified}); err != nil {
		t.Fatalf("SetStatus() failed: %v", err)
	}

	listing, err := f.svc.List(ctx, actorFor(f.admin), record.KindSession, statusPtr(record.StatusPending), "")
	if err != nil {
		t.Fatalf("List(pending) failed: %v", err)
	}
	if len(listing.Sessions) != 1 || listing.Sessions[0].ID != pending.ID {
		t.Errorf("List(pending) sessions = %v", listing.Sessions)
	}

	listing, err = f.svc.List(ctx, actorFor(f.admin), record.KindSession, statusPtr(record.StatusVerified), "")
	if err != nil {
		t.Fatalf("List(verified) failed: %v", err)
	}
	if len(listing.Sessions) != 1 || listing.Sessions[0].ID != reviewed.ID {
		t.Errorf("List(verified) sessions = %v", listing.Sessions)
	}

	// counts ignore the status filter: one session is still pending
	if listing.Counts.ByKind[record.KindSession] != 1 {
		t.Errorf("Counts.ByKind[session] = %d, want 1", listing.Counts.ByKind[record.KindSession])
	}

	if _, err = f.svc.List(ctx, actorFor(f.admin), record.KindSession, statusPtr(record.Status("lol")), ""); err == nil {
		t.Error("List() accepted an unknown status")
	}
	if _, err = f.svc.List(ctx, actorFor(f.admin), record.Kind("lol"), nil, ""); err == nil {
		t.Error("List() accepted an unknown kind")
	}
}

func Test_Service_CountPending(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.CreateQualification(t, f.recRepo, f.student1.ID, "PGCE")
	testutil.CreateSession(t, f.recRepo, f.student1.ID, "Algebra intro")
	testutil.CreateSession(t, f.recRepo, f.student2.ID, "Geometry intro")
	verified := testutil.CreateActivity(t, f.recRepo, f.student1.ID, "First aid course")
	if _, err := f.svc.SetStatus(ctx, actorFor(f.admin), record.KindActivity, verified.ID, verify.StatusChange{Status: record.StatusVerified}); err != nil {
		t.Fatalf("SetStatus() failed: %v", err)
	}

	tests := []struct {
		name      string
		actor     verify.Actor
		wantTotal int
		wantKinds map[record.Kind]int
	}{
		{
			name: "admin counts all pending", actor: actorFor(f.admin), wantTotal: 3,
			wantKinds: map[record.Kind]int{record.KindQualification: 1, record.KindSession: 2, record.KindActivity: 0},
		},
		{
			name: "mentor counts assigned students only", actor: actorFor(f.mentor), wantTotal: 2,
			wantKinds: map[record.Kind]int{record.KindQualification: 1, record.KindSession: 1},
		},
		{name: "mentor with no assignments counts zero", actor: actorFor(f.idle), wantTotal: 0},
		{
			name: "student counts own pending", actor: actorFor(f.student1), wantTotal: 2,
			wantKinds: map[record.Kind]int{record.KindQualification: 1, record.KindSession: 1, record.KindActivity: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts, err := f.svc.CountPending(ctx, tt.actor)
			if err != nil {
				t.Fatalf("CountPending() failed: %v", err)
			}
			if counts.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", counts.Total, tt.wantTotal)
			}
			for kind, want := range tt.wantKinds {
				if counts.ByKind[kind] != want {
					t.Errorf("ByKind[%s] = %d, want %d", kind, counts.ByKind[kind], want)
				}
			}
		})
	}

	// the count a List returns matches CountPending under the same scope
	listing, err := f.svc.List(ctx, actorFor(f.mentor), record.KindAll, nil, "")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	counts, err := f.svc.CountPending(ctx, actorFor(f.mentor))
	if err != nil {
		t.Fatalf("CountPending() failed: %v", err)
	}
	if listing.Counts.Total != counts.Total {
		t.Errorf("List counts (%d) diverge from CountPending (%d)", listing.Counts.Total, counts.Total)
	}
}

func Test_Service_SetStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ownQualn := testutil.CreateQualification(t, f.recRepo, f.student1.ID, "PGCE")
	otherSession := testutil.CreateSession(t, f.recRepo, f.student2.ID, "Geometry intro")

	tests := []struct {
		name     string
		actor    verify.Actor
		kind     record.Kind
		recordID string
		change   verify.StatusChange
		wantErr  error
	}{
		{
			name: "student may not review, own records included", actor: actorFor(f.student1),
			kind: record.KindQualification, recordID: ownQualn.ID,
			change: verify.StatusChange{Status: record.StatusVerified}, wantErr: core.ErrForbidden,
		},
		{
			name: "unknown record id", actor: actorFor(f.admin),
			kind: record.KindQualification, recordID: "2c6f4f78-36e5-47c4-b4ca-f71f5a7b06c0",
			change: verify.StatusChange{Status: record.StatusVerified}, wantErr: record.ErrNotFound,
		},
		{
			name: "mentor outside scope", actor: actorFor(f.mentor),
			kind: record.KindSession, recordID: otherSession.ID,
			change: verify.StatusChange{Status: record.StatusVerified}, wantErr: core.ErrForbidden,
		},
		{
			name: "mentor within scope", actor: actorFor(f.mentor),
			kind: record.KindQualification, recordID: ownQualn.ID,
			change: verify.StatusChange{Status: record.StatusVerified},
		},
		{
			name: "admin rejects with feedback", actor: actorFor(f.admin),
			kind: record.KindQualification, recordID: ownQualn.ID,
			change: verify.StatusChange{Status: record.StatusRejected, Feedback: "certificate is unreadable"},
		},
		{
			name: "reviewer reverts to pending", actor: actorFor(f.admin),
			kind: record.KindQualification, recordID: ownQualn.ID,
			change: verify.StatusChange{Status: record.StatusPending},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ver, err := f.svc.SetStatus(ctx, tt.actor, tt.kind, tt.recordID, tt.change)
			if tt.wantErr != nil {
				if errors.Cause(err) != tt.wantErr {
					t.Fatalf("SetStatus() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetStatus() failed: %v", err)
			}
			if ver.Status != tt.change.Status {
				t.Errorf("Status = %s, want %s", ver.Status, tt.change.Status)
			}
			if tt.change.Status == record.StatusPending {
				if ver.ReviewerID.Valid || ver.ReviewedAt.Valid {
					t.Error("revert to pending must clear the reviewer")
				}
			} else {
				if ver.ReviewerID.String != tt.actor.ID {
					t.Errorf("ReviewerID = %s, want %s", ver.ReviewerID.String, tt.actor.ID)
				}
				if !ver.ReviewedAt.Valid {
					t.Error("ReviewedAt not set")
				}
			}
		})
	}
}

func Test_Service_SetStatus_validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	qualn := testutil.CreateQualification(t, f.recRepo, f.student1.ID, "PGCE")

	tests := []struct {
		name   string
		kind   record.Kind
		change verify.StatusChange
	}{
		{name: "rejection requires feedback", kind: record.KindQualification, change: verify.StatusChange{Status: record.StatusRejected}},
		{name: "unknown status", kind: record.KindQualification, change: verify.StatusChange{Status: "approved"}},
		{name: "unknown kind", kind: record.Kind("lol"), change: verify.StatusChange{Status: record.StatusVerified}},
		{name: "kind all is not reviewable", kind: record.KindAll, change: verify.StatusChange{Status: record.StatusVerified}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SetStatus(ctx, actorFor(f.admin), tt.kind, qualn.ID, tt.change)
			if err == nil {
				t.Fatal("SetStatus() accepted an invalid change")
			}
			if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
				t.Errorf("SetStatus() error = %v, want validation error", err)
			}
		})
	}
}

func Test_Service_SetStatus_createsVerificationRow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// a freshly created session has no verification row; it must still read
	// as pending and the first review must create the row in place
	sess := testutil.CreateSession(t, f.recRepo, f.student1.ID, "Algebra intro")

	got, err := f.recRepo.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}
	if got.Verification.Status != record.StatusPending {
		t.Fatalf("fresh session status = %s, want pending", got.Verification.Status)
	}

	if _, err = f.svc.SetStatus(ctx, actorFor(f.mentor), record.KindSession, sess.ID, verify.StatusChange{
		Status:   record.StatusRejected,
		Feedback: "reflection is missing",
	}); err != nil {
		t.Fatalf("SetStatus() failed: %v", err)
	}

	got, err = f.recRepo.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}
	if got.Verification.Status != record.StatusRejected {
		t.Errorf("Status = %s, want rejected", got.Verification.Status)
	}
	if got.Verification.Feedback.String != "reflection is missing" {
		t.Errorf("Feedback = %q", got.Verification.Feedback.String)
	}
	if got.Verification.ReviewerName.String != f.mentor.Name {
		t.Errorf("ReviewerName = %q, want %q", got.Verification.ReviewerName.String, f.mentor.Name)
	}
}
