package record

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core"
)

// Kind identifies one of the five verifiable record kinds.
type Kind string

const (
	KindQualification Kind = "qualification"
	KindSession       Kind = "session"
	KindActivity      Kind = "activity"
	KindCompetency    Kind = "competency"
	KindProfile       Kind = "profile"

	// KindAll fans a query out to every kind; it is never stored.
	KindAll Kind = "all"
)

var Kinds = []Kind{KindQualification, KindSession, KindActivity, KindCompetency, KindProfile}

func (k Kind) Valid() bool {
	for _, kind := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (k Kind) Label() string {
	switch k {
	case KindQualification:
		return "qualification"
	case KindSession:
		return "teaching session"
	case KindActivity:
		return "logged activity"
	case KindCompetency:
		return "competency self-rating"
	case KindProfile:
		return "profile document"
	}
	return string(k)
}

// Status is the verification status of a record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// VerificationState is the {status, reviewer, feedback} tuple attached to a
// verifiable record. The zero value is a pending state with no reviewer;
// kinds that store verification as a joined row treat an absent row the same
// way. ReviewerName is denormalized; it stays null when the reviewer can no
// longer be resolved and must never fail a query.
type VerificationState struct {
	Status       Status      `json:"status"`
	ReviewerID   null.String `json:"reviewer_id"`
	ReviewerName null.String `json:"reviewer_name"`
	Feedback     null.String `json:"feedback"`
	ReviewedAt   null.Time   `json:"reviewed_at"`
}

// Normalize maps the zero value (absent join row) to an explicit pending state.
func (v VerificationState) Normalize() VerificationState {
	if v.Status == "" {
		v.Status = StatusPending
	}
	return v
}

func (v VerificationState) Pending() bool { return v.Normalize().Status == StatusPending }

// Qualification is an academic or professional qualification held by a
// student. Its verification state is stored inline on the row.
type Qualification struct {
	ID           string            `json:"id"`
	OwnerID      string            `json:"owner_id"`
	Title        string            `json:"title"`
	Institution  string            `json:"institution"`
	DateObtained time.Time         `json:"date_obtained"`
	ExpiryDate   null.Time         `json:"expiry_date"`
	EvidenceURL  null.String       `json:"evidence_url"`
	Verification VerificationState `json:"verification"`
	CreatedAt    time.Time         `json:"created_at"` // UTC
	UpdatedAt    time.Time         `json:"updated_at"` // UTC
}

// Session is a logged teaching session.
type Session struct {
	ID              string            `json:"id"`
	OwnerID         string            `json:"owner_id"`
	Title           string            `json:"title"`
	Subject         string            `json:"subject"`
	YearGroup       string            `json:"year_group"`
	SessionDate     time.Time         `json:"session_date"`
	DurationMinutes int               `json:"duration_minutes"`
	Reflection      string            `json:"reflection"`
	Verification    VerificationState `json:"verification"`
	CreatedAt       time.Time         `json:"created_at"` // UTC
	UpdatedAt       time.Time         `json:"updated_at"` // UTC
}

// Activity is a logged professional development activity.
type Activity struct {
	ID            string            `json:"id"`
	OwnerID       string            `json:"owner_id"`
	Title         string            `json:"title"`
	ActivityType  string            `json:"activity_type"`
	CompletedAt   time.Time         `json:"completed_at"`
	DurationHours float64           `json:"duration_hours"`
	Description   string            `json:"description"`
	EvidenceURL   null.String       `json:"evidence_url"`
	Verification  VerificationState `json:"verification"`
	CreatedAt     time.Time         `json:"created_at"` // UTC
	UpdatedAt     time.Time         `json:"updated_at"` // UTC
}

// CompetencyRating is a student's self-rating against a competency framework item.
type CompetencyRating struct {
	ID           string            `json:"id"`
	OwnerID      string            `json:"owner_id"`
	Category     string            `json:"category"`
	Name         string            `json:"name"`
	SelfRating   int               `json:"self_rating"`
	Statement    string            `json:"statement"`
	Verification VerificationState `json:"verification"`
	CreatedAt    time.Time         `json:"created_at"` // UTC
	UpdatedAt    time.Time         `json:"updated_at"` // UTC
}

// ProfileDocument is a CV or other profile document attached to a student.
// File upload mechanics are owned by the surrounding app; the engine only
// sees the stored URL.
type ProfileDocument struct {
	ID           string            `json:"id"`
	OwnerID      string            `json:"owner_id"`
	OwnerName    string            `json:"owner_name"`
	DocumentType string            `json:"document_type"`
	Title        string            `json:"title"`
	FileURL      string            `json:"file_url"`
	UploadedAt   time.Time         `json:"uploaded_at"`
	Verification VerificationState `json:"verification"`
	CreatedAt    time.Time         `json:"created_at"` // UTC
	UpdatedAt    time.Time         `json:"updated_at"` // UTC
}

// QueryFilter is the single scoped-query vocabulary shared by record lists
// and pending counts. A nil OwnerIDs leaves ownership unrestricted; an empty
// non-nil slice matches nothing.
type QueryFilter struct {
	OwnerIDs []string
	Status   *Status
}

func (qf QueryFilter) Matches(ownerID string, ver VerificationState) bool {
	if qf.OwnerIDs != nil {
		var found bool
		for _, id := range qf.OwnerIDs {
			if id == ownerID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if qf.Status != nil && ver.Normalize().Status != *qf.Status {
		return false
	}
	return true
}

// New/Update payloads

type NewQualification struct {
	Title        string    `json:"title" validate:"required"`
	Institution  string    `json:"institution" validate:"required"`
	DateObtained time.Time `json:"date_obtained" validate:"required"`
	ExpiryDate   null.Time `json:"expiry_date"`
	EvidenceURL  string    `json:"evidence_url" validate:"omitempty,url"`
}

func (n *NewQualification) Validate() error {
	n.Title = core.CleanString(n.Title)
	n.Institution = core.CleanString(n.Institution)
	return core.Validate.Struct(n)
}

type NewSession struct {
	Title           string    `json:"title" validate:"required"`
	Subject         string    `json:"subject" validate:"required"`
	YearGroup       string    `json:"year_group"`
	SessionDate     time.Time `json:"session_date" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,gt=0"`
	Reflection      string    `json:"reflection"`
}

func (n *NewSession) Validate() error {
	n.Title = core.CleanString(n.Title)
	n.Subject = core.CleanString(n.Subject)
	n.YearGroup = core.CleanString(n.YearGroup)
	return core.Validate.Struct(n)
}

type NewActivity struct {
	Title         string    `json:"title" validate:"required"`
	ActivityType  string    `json:"activity_type" validate:"required"`
	CompletedAt   time.Time `json:"completed_at" validate:"required"`
	DurationHours float64   `json:"duration_hours" validate:"omitempty,gt=0"`
	Description   string    `json:"description"`
	EvidenceURL   string    `json:"evidence_url" validate:"omitempty,url"`
}

func (n *NewActivity) Validate() error {
	n.Title = core.CleanString(n.Title)
	n.ActivityType = core.CleanString(n.ActivityType)
	return core.Validate.Struct(n)
}

type NewCompetencyRating struct {
	Category   string `json:"category" validate:"required"`
	Name       string `json:"name" validate:"required"`
	SelfRating int    `json:"self_rating" validate:"required,min=1,max=5"`
	Statement  string `json:"statement"`
}

func (n *NewCompetencyRating) Validate() error {
	n.Category = core.CleanString(n.Category)
	n.Name = core.CleanString(n.Name)
	return core.Validate.Struct(n)
}

type NewProfileDocument struct {
	DocumentType string `json:"document_type" validate:"required"`
	Title        string `json:"title" validate:"required"`
	FileURL      string `json:"file_url" validate:"required,url"`
}

func (n *NewProfileDocument) Validate() error {
	n.DocumentType = core.CleanString(n.DocumentType)
	n.Title = core.CleanString(n.Title)
	return core.Validate.Struct(n)
}
