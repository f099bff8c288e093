package user

import (
	"context"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core"
)

// Repository persists Users and mentor↔student Assignments.
type Repository interface {
	CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
	CreateUser(ctx context.Context, usr User) (User, error)
	// QueryUsers applies AND operation on available QueryFilter fields.
	// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
	QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
	GetUser(ctx context.Context, filter GetFilter) (User, error)
	UpdateUser(ctx context.Context, usr User) (User, error)
	UpdateOrCreateUser(ctx context.Context, usr User) (User, error)
	DeleteUsersByID(ctx context.Context, ids ...string) (int, error)

	CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
	QueryAssignments(ctx context.Context, filter *AssignmentFilter) ([]Assignment, error)
	DeleteAssignmentsByID(ctx context.Context, ids ...string) (int, error)
	// QueryStudentIDsByMentor returns the IDs of all students currently assigned
	// to the mentor. Callers must not cache the result across requests.
	QueryStudentIDsByMentor(ctx context.Context, mentorID string) ([]string, error)
}
