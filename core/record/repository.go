package record

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound    = errors.New("record not found")
	ErrUnknownKind = errors.New("unknown record kind")
)

// Repository persists the five verifiable record kinds and their verification
// substates.
//
// Query* methods apply the QueryFilter uniformly: owner restriction first,
// then exact status match, with an absent verification row reading as pending.
// Each kind is returned in its natural order (date obtained / session date /
// completion date / category+name / owner name, all dates descending).
type Repository interface {
	CreateQualification(ctx context.Context, q Qualification) (Qualification, error)
	UpdateQualification(ctx context.Context, q Qualification) (Qualification, error)
	GetQualification(ctx context.Context, id string) (Qualification, error)
	QueryQualifications(ctx context.Context, filter QueryFilter) ([]Qualification, error)

	CreateSession(ctx context.Context, s Session) (Session, error)
	UpdateSession(ctx context.Context, s Session) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	QuerySessions(ctx context.Context, filter QueryFilter) ([]Session, error)

	CreateActivity(ctx context.Context, a Activity) (Activity, error)
	UpdateActivity(ctx context.Context, a Activity) (Activity, error)
	GetActivity(ctx context.Context, id string) (Activity, error)
	QueryActivities(ctx context.Context, filter QueryFilter) ([]Activity, error)

	CreateCompetencyRating(ctx context.Context, c CompetencyRating) (CompetencyRating, error)
	UpdateCompetencyRating(ctx context.Context, c CompetencyRating) (CompetencyRating, error)
	GetCompetencyRating(ctx context.Context, id string) (CompetencyRating, error)
	QueryCompetencyRatings(ctx context.Context, filter QueryFilter) ([]CompetencyRating, error)

	CreateProfileDocument(ctx context.Context, d ProfileDocument) (ProfileDocument, error)
	UpdateProfileDocument(ctx context.Context, d ProfileDocument) (ProfileDocument, error)
	GetProfileDocument(ctx context.Context, id string) (ProfileDocument, error)
	QueryProfileDocuments(ctx context.Context, filter QueryFilter) ([]ProfileDocument, error)

	// GetOwnerID resolves the owning student of a record, or ErrNotFound.
	// It never considers verification state, so "doesn't exist" stays
	// distinguishable from "not allowed to see".
	GetOwnerID(ctx context.Context, kind Kind, id string) (string, error)

	// CountPending counts records of the kind whose current status is pending
	// (absent verification row included), restricted to ownerIDs when non-nil.
	CountPending(ctx context.Context, kind Kind, ownerIDs []string) (int, error)

	// UpsertVerification writes the verification substate of a record as a
	// single atomic create-or-update; callers never need to know whether a
	// verification row already exists. ReviewerName in the returned state is
	// re-resolved from the reviewer, or null when that fails.
	UpsertVerification(ctx context.Context, kind Kind, recordID string, ver VerificationState) (VerificationState, error)
}
