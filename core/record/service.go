package record

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core"
)

// Service owns student-facing record CRUD. All reads and edits are bound to
// the owning student; reviewer-side operations live in the verify package.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// checkOwner returns ErrNotFound for an unknown record and core.ErrForbidden
// when the record is owned by someone else.
func (svc *Service) checkOwner(ctx context.Context, kind Kind, id, ownerID string) error {
	owner, err := svc.repo.GetOwnerID(ctx, kind, id)
	if err != nil {
		return err
	}
	if owner != ownerID {
		return core.ErrForbidden
	}
	return nil
}

// resetVerification puts a record back to pending with no reviewer; called
// when a student edits a resubmittable record.
func (svc *Service) resetVerification(ctx context.Context, kind Kind, id string) error {
	_, err := svc.repo.UpsertVerification(ctx, kind, id, VerificationState{Status: StatusPending})
	return errors.Wrap(err, "resetting verification")
}

// Qualifications

func (svc *Service) CreateQualification(ctx context.Context, ownerID string, n NewQualification) (Qualification, error) {
	now := time.Now().UTC()
	q := Qualification{
		OwnerID:      ownerID,
		Title:        n.Title,
		Institution:  n.Institution,
		DateObtained: n.DateObtained,
		ExpiryDate:   n.ExpiryDate,
		EvidenceURL:  null.NewString(n.EvidenceURL, n.EvidenceURL != ""),
		Verification: VerificationState{Status: StatusPending},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateQualification(ctx, q)
}

func (svc *Service) UpdateQualification(ctx context.Context, ownerID, id string, n NewQualification) (Qualification, error) {
	if err := svc.checkOwner(ctx, KindQualification, id, ownerID); err != nil {
		return Qualification{}, err
	}
	orig, err := svc.repo.GetQualification(ctx, id)
	if err != nil {
		return Qualification{}, err
	}
	orig.Title = n.Title
	orig.Institution = n.Institution
	orig.DateObtained = n.DateObtained
	orig.ExpiryDate = n.ExpiryDate
	orig.EvidenceURL = null.NewString(n.EvidenceURL, n.EvidenceURL != "")
	orig.UpdatedAt = time.Now().UTC()
	// a qualification keeps its verification on edit; re-review is the
	// reviewer's call
	return svc.repo.UpdateQualification(ctx, orig)
}

func (svc *Service) GetQualification(ctx context.Context, id string) (Qualification, error) {
	return svc.repo.GetQualification(ctx, id)
}

// Sessions

func (svc *Service) CreateSession(ctx context.Context, ownerID string, n NewSession) (Session, error) {
	now := time.Now().UTC()
	s := Session{
		OwnerID:         ownerID,
		Title:           n.Title,
		Subject:         n.Subject,
		YearGroup:       n.YearGroup,
		SessionDate:     n.SessionDate,
		DurationMinutes: n.DurationMinutes,
		Reflection:      n.Reflection,
		Verification:    VerificationState{Status: StatusPending},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return svc.repo.CreateSession(ctx, s)
}

// UpdateSession applies a student's edit and resets verification to pending:
// an edited session is a resubmission.
func (svc *Service) UpdateSession(ctx context.Context, ownerID, id string, n NewSession) (Session, error) {
	if err := svc.checkOwner(ctx, KindSession, id, ownerID); err != nil {
		return Session{}, err
	}
	orig, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	orig.Title = n.Title
	orig.Subject = n.Subject
	orig.YearGroup = n.YearGroup
	orig.SessionDate = n.SessionDate
	orig.DurationMinutes = n.DurationMinutes
	orig.Reflection = n.Reflection
	orig.UpdatedAt = time.Now().UTC()

	s, err := svc.repo.UpdateSession(ctx, orig)
	if err != nil {
		return Session{}, err
	}
	if err = svc.resetVerification(ctx, KindSession, id); err != nil {
		return Session{}, err
	}
	s.Verification = VerificationState{Status: StatusPending}
	return s, nil
}

func (svc *Service) GetSession(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSession(ctx, id)
}

// Activities

func (svc *Service) CreateActivity(ctx context.Context, ownerID string, n NewActivity) (Activity, error) {
	now := time.Now().UTC()
	a := Activity{
		OwnerID:       ownerID,
		Title:         n.Title,
		ActivityType:  n.ActivityType,
		CompletedAt:   n.CompletedAt,
		DurationHours: n.DurationHours,
		Description:   n.Description,
		EvidenceURL:   null.NewString(n.EvidenceURL, n.EvidenceURL != ""),
		Verification:  VerificationState{Status: StatusPending},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return svc.repo.CreateActivity(ctx, a)
}

// UpdateActivity applies a student's edit and resets verification to pending,
// same as UpdateSession.
func (svc *Service) UpdateActivity(ctx context.Context, ownerID, id string, n NewActivity) (Activity, error) {
	if err := svc.checkOwner(ctx, KindActivity, id, ownerID); err != nil {
		return Activity{}, err
	}
	orig, err := svc.repo.GetActivity(ctx, id)
	if err != nil {
		return Activity{}, err
	}
	orig.Title = n.Title
	orig.ActivityType = n.ActivityType
	orig.CompletedAt = n.CompletedAt
	orig.DurationHours = n.DurationHours
	orig.Description = n.Description
	orig.EvidenceURL = null.NewString(n.EvidenceURL, n.EvidenceURL != "")
	orig.UpdatedAt = time.Now().UTC()

	a, err := svc.repo.UpdateActivity(ctx, orig)
	if err != nil {
		return Activity{}, err
	}
	if err = svc.resetVerification(ctx, KindActivity, id); err != nil {
		return Activity{}, err
	}
	a.Verification = VerificationState{Status: StatusPending}
	return a, nil
}

func (svc *Service) GetActivity(ctx context.Context, id string) (Activity, error) {
	return svc.repo.GetActivity(ctx, id)
}

// Competency ratings

func (svc *Service) CreateCompetencyRating(ctx context.Context, ownerID string, n NewCompetencyRating) (CompetencyRating, error) {
	now := time.Now().UTC()
	c := CompetencyRating{
		OwnerID:      ownerID,
		Category:     n.Category,
		Name:         n.Name,
		SelfRating:   n.SelfRating,
		Statement:    n.Statement,
		Verification: VerificationState{Status: StatusPending},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateCompetencyRating(ctx, c)
}

func (svc *Service) UpdateCompetencyRating(ctx context.Context, ownerID, id string, n NewCompetencyRating) (CompetencyRating, error) {
	if err := svc.checkOwner(ctx, KindCompetency, id, ownerID); err != nil {
		return CompetencyRating{}, err
	}
	orig, err := svc.repo.GetCompetencyRating(ctx, id)
	if err != nil {
		return CompetencyRating{}, err
	}
	orig.Category = n.Category
	orig.Name = n.Name
	orig.SelfRating = n.SelfRating
	orig.Statement = n.Statement
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCompetencyRating(ctx, orig)
}

func (svc *Service) GetCompetencyRating(ctx context.Context, id string) (CompetencyRating, error) {
	return svc.repo.GetCompetencyRating(ctx, id)
}

// Profile documents

func (svc *Service) CreateProfileDocument(ctx context.Context, ownerID, ownerName string, n NewProfileDocument) (ProfileDocument, error) {
	now := time.Now().UTC()
	d := ProfileDocument{
		OwnerID:      ownerID,
		OwnerName:    ownerName,
		DocumentType: n.DocumentType,
		Title:        n.Title,
		FileURL:      n.FileURL,
		UploadedAt:   now,
		Verification: VerificationState{Status: StatusPending},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateProfileDocument(ctx, d)
}

func (svc *Service) UpdateProfileDocument(ctx context.Context, ownerID, id string, n NewProfileDocument) (ProfileDocument, error) {
	if err := svc.checkOwner(ctx, KindProfile, id, ownerID); err != nil {
		return ProfileDocument{}, err
	}
	orig, err := svc.repo.GetProfileDocument(ctx, id)
	if err != nil {
		return ProfileDocument{}, err
	}
	orig.DocumentType = n.DocumentType
	orig.Title = n.Title
	orig.FileURL = n.FileURL
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProfileDocument(ctx, orig)
}

func (svc *Service) GetProfileDocument(ctx context.Context, id string) (ProfileDocument, error) {
	return svc.repo.GetProfileDocument(ctx, id)
}
