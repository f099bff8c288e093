package verify

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/record"
)

var errFeedbackRequired = errors.New("feedback is required when rejecting")

type (
	// PendingCounts is the review-queue badge payload: outstanding work for
	// the actor, per kind and in total.
	PendingCounts struct {
		ByKind map[record.Kind]int `json:"by_kind"`
		Total  int                 `json:"total"`
	}

	// Listing is the read-path result: one independently ordered list per
	// kind, plus pending counts computed from the same scope regardless of
	// the requested status filter.
	Listing struct {
		Qualifications []record.Qualification    `json:"qualifications,omitempty"`
		Sessions       []record.Session          `json:"sessions,omitempty"`
		Activities     []record.Activity         `json:"activities,omitempty"`
		Competencies   []record.CompetencyRating `json:"competencies,omitempty"`
		Profiles       []record.ProfileDocument  `json:"profiles,omitempty"`
		Counts         PendingCounts             `json:"counts"`
	}

	// SetStatus input payload.
	StatusChange struct {
		Status   record.Status `json:"status" validate:"required"`
		Feedback string        `json:"feedback"`
	}

	Service struct {
		repo record.Repository
		dir  Directory
		mail core.EmailService
		conf *core.Config
	}
)

func (sc *StatusChange) Validate() error {
	sc.Feedback = core.CleanString(sc.Feedback)
	if err := core.Validate.Struct(sc); err != nil {
		return err
	}
	if !sc.Status.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown status"})
	}
	if sc.Status == record.StatusRejected && sc.Feedback == "" {
		return core.NewValidationError(errFeedbackRequired, core.FieldError{Field: "feedback", Error: errFeedbackRequired.Error()})
	}
	return nil
}

func NewService(repo record.Repository, dir Directory, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, dir: dir, mail: mailSvc, conf: conf}
}

func validateKind(kind record.Kind, allowAll bool) error {
	if kind.Valid() || (allowAll && kind == record.KindAll) {
		return nil
	}
	return core.NewValidationError(record.ErrUnknownKind, core.FieldError{Field: "kind", Error: record.ErrUnknownKind.Error()})
}

// List returns the actor-visible records of the requested kind (or all five
// kinds), optionally narrowed by status and owner. A kind with no matching
// records yields an empty list. The counts in the result always reflect
// pending work under the actor's scope, independent of statusFilter.
func (svc *Service) List(ctx context.Context, actor Actor, kind record.Kind, statusFilter *record.Status, ownerFilter string) (Listing, error) {
	if err := validateKind(kind, true /* allowAll */); err != nil {
		return Listing{}, err
	}
	if statusFilter != nil && !statusFilter.Valid() {
		return Listing{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "unknown status"})
	}

	scope, err := svc.ResolveScope(ctx, actor)
	if err != nil {
		return Listing{}, err
	}
	if ownerFilter != "" {
		if scope, err = scope.Narrow(ownerFilter); err != nil {
			return Listing{}, err
		}
	}

	listing := Listing{}
	filter := scope.Filter(statusFilter)

	if kind == record.KindAll || kind == record.KindQualification {
		if listing.Qualifications, err = svc.repo.QueryQualifications(ctx, filter); err != nil {
			return Listing{}, errors.Wrap(err, "querying qualifications")
		}
	}
	if kind == record.KindAll || kind == record.KindSession {
		if listing.Sessions, err = svc.repo.QuerySessions(ctx, filter); err != nil {
			return Listing{}, errors.Wrap(err, "querying sessions")
		}
	}
	if kind == record.KindAll || kind == record.KindActivity {
		if listing.Activities, err = svc.repo.QueryActivities(ctx, filter); err != nil {
			return Listing{}, errors.Wrap(err, "querying activities")
		}
	}
	if kind == record.KindAll || kind == record.KindCompetency {
		if listing.Competencies, err = svc.repo.QueryCompetencyRatings(ctx, filter); err != nil {
			return Listing{}, errors.Wrap(err, "querying competency ratings")
		}
	}
	if kind == record.KindAll || kind == record.KindProfile {
		if listing.Profiles, err = svc.repo.QueryProfileDocuments(ctx, filter); err != nil {
			return Listing{}, errors.Wrap(err, "querying profile documents")
		}
	}

	if listing.Counts, err = svc.countPending(ctx, scope); err != nil {
		return Listing{}, err
	}
	return listing, nil
}

// CountPending computes the actor's outstanding review work, scoped exactly
// like List.
func (svc *Service) CountPending(ctx context.Context, actor Actor) (PendingCounts, error) {
	scope, err := svc.ResolveScope(ctx, actor)
	if err != nil {
		return PendingCounts{}, err
	}
	return svc.countPending(ctx, scope)
}

func (svc *Service) countPending(ctx context.Context, scope Scope) (PendingCounts, error) {
	counts := PendingCounts{ByKind: make(map[record.Kind]int, len(record.Kinds))}
	filter := scope.Filter(nil)
	for _, kind := range record.Kinds {
		cnt, err := svc.repo.CountPending(ctx, kind, filter.OwnerIDs)
		if err != nil {
			return PendingCounts{}, errors.Wrap(err, "counting pending "+string(kind))
		}
		counts.ByKind[kind] = cnt
		counts.Total += cnt
	}
	return counts, nil
}

// SetStatus applies a verification transition to a record:
//
//	pending  -> verified | rejected  (rejected requires feedback)
//	verified -> rejected | pending   (reviewer revises)
//	rejected -> verified | pending
//
// Only an admin or a mentor assigned to the record's owner may call it;
// students are always refused, their own records included. When no
// verification row exists yet the transition creates one; the write is a
// single atomic upsert either way.
func (svc *Service) SetStatus(ctx context.Context, actor Actor, kind record.Kind, recordID string, change StatusChange) (record.VerificationState, error) {
	if actor.IsStudent() || !(actor.IsAdmin() || actor.IsMentor()) {
		return record.VerificationState{}, core.ErrForbidden
	}
	if err := validateKind(kind, false); err != nil {
		return record.VerificationState{}, err
	}
	if err := change.Validate(); err != nil {
		return record.VerificationState{}, err
	}

	// NotFound before Forbidden: an unknown id must stay distinguishable
	// from a record outside the actor's scope.
	ownerID, err := svc.repo.GetOwnerID(ctx, kind, recordID)
	if err != nil {
		return record.VerificationState{}, err
	}

	scope, err := svc.ResolveScope(ctx, actor)
	if err != nil {
		return record.VerificationState{}, err
	}
	if !scope.Allows(ownerID) {
		return record.VerificationState{}, core.ErrForbidden
	}

	ver := record.VerificationState{Status: change.Status}
	if change.Status != record.StatusPending {
		ver.ReviewerID = null.StringFrom(actor.ID)
		ver.Feedback = null.NewString(change.Feedback, change.Feedback != "")
		ver.ReviewedAt = null.TimeFrom(time.Now().UTC())
	}

	ver, err = svc.repo.UpsertVerification(ctx, kind, recordID, ver)
	if err != nil {
		return record.VerificationState{}, errors.Wrap(err, "upserting verification")
	}

	if change.Status != record.StatusPending {
		svc.notifyOwner(ctx, kind, recordID, ownerID, ver)
	}
	return ver, nil
}

// notifyOwner emails the student about the review outcome; best effort.
func (svc *Service) notifyOwner(ctx context.Context, kind record.Kind, recordID, ownerID string, ver record.VerificationState) {
	if svc.mail == nil {
		return
	}
	owner, err := svc.dir.GetByID(ctx, ownerID)
	if err != nil || owner.Email == "" {
		return
	}

	svc.mail.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: owner.Name, Address: owner.Email}},
		Subject:      "Your " + kind.Label() + " has been reviewed",
		TemplateName: "review-feedback",
		TemplateData: struct {
			OwnerName string
			KindLabel string
			Title     string
			Status    string
			Feedback  string
		}{owner.Name, kind.Label(), svc.recordTitle(ctx, kind, recordID), string(ver.Status), ver.Feedback.String},
	})
}

func (svc *Service) recordTitle(ctx context.Context, kind record.Kind, id string) string {
	switch kind {
	case record.KindQualification:
		if q, err := svc.repo.GetQualification(ctx, id); err == nil {
			return q.Title
		}
	case record.KindSession:
		if s, err := svc.repo.GetSession(ctx, id); err == nil {
			return s.Title
		}
	case record.KindActivity:
		if a, err := svc.repo.GetActivity(ctx, id); err == nil {
			return a.Title
		}
	case record.KindCompetency:
		if c, err := svc.repo.GetCompetencyRating(ctx, id); err == nil {
			return c.Category + " / " + c.Name
		}
	case record.KindProfile:
		if d, err := svc.repo.GetProfileDocument(ctx, id); err == nil {
			return d.Title
		}
	}
	return ""
}
