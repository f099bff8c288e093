package verify

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/record"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/user"
)

// Actor is the authenticated identity + roles a request acts as. It is passed
// explicitly into every engine call; the engine never reads ambient identity
// state.
type Actor struct {
	ID    string
	Roles []string
}

func (a Actor) roleStartsWith(prefix string) bool {
	u := user.User{Roles: a.Roles}
	return u.RoleStartsWith(prefix)
}

func (a Actor) IsAdmin() bool   { return a.roleStartsWith(user.RoleAdmin) }
func (a Actor) IsMentor() bool  { return a.roleStartsWith(user.RoleMentor) }
func (a Actor) IsStudent() bool { return a.roleStartsWith(user.RoleStudent) }

// Directory resolves actor identities and mentor assignment sets.
// *user.Service satisfies it.
type Directory interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	// StudentIDsByMentor must be computed fresh per call; assignments change
	// between requests.
	StudentIDsByMentor(ctx context.Context, mentorID string) ([]string, error)
}

// Scope is the predicate over record ownership an actor may see. A nil owner
// set is unrestricted (admin); an empty non-nil set matches nothing (a mentor
// with no assignments).
type Scope struct {
	ownerIDs []string
}

func UnrestrictedScope() Scope { return Scope{} }
func OwnerScope(ownerIDs ...string) Scope { return Scope{ownerIDs: ownerIDs} }

func (s Scope) Unrestricted() bool { return s.ownerIDs == nil }

func (s Scope) Allows(ownerID string) bool {
	if s.Unrestricted() {
		return true
	}
	for _, id := range s.ownerIDs {
		if id == ownerID {
			return true
		}
	}
	return false
}

// Narrow restricts the scope to a single owner. Asking for an owner outside
// the scope is an authorization error, never an empty result.
func (s Scope) Narrow(ownerID string) (Scope, error) {
	if !s.Allows(ownerID) {
		return Scope{}, core.ErrForbidden
	}
	return OwnerScope(ownerID), nil
}

// Filter translates the scope into the record store's query vocabulary.
func (s Scope) Filter(status *record.Status) record.QueryFilter {
	return record.QueryFilter{OwnerIDs: s.ownerIDs, Status: status}
}

// ResolveScope computes the actor's visibility predicate. This is the single
// place role-based visibility exists; every engine read and write goes
// through it before any kind-specific query.
func (svc *Service) ResolveScope(ctx context.Context, actor Actor) (Scope, error) {
	switch {
	case actor.ID == "":
		return Scope{}, core.ErrForbidden
	case actor.IsAdmin():
		return UnrestrictedScope(), nil
	case actor.IsMentor():
		studentIDs, err := svc.dir.StudentIDsByMentor(ctx, actor.ID)
		if err != nil {
			return Scope{}, errors.Wrap(err, "resolving mentor scope")
		}
		if studentIDs == nil {
			studentIDs = []string{}
		}
		return OwnerScope(studentIDs...), nil
	case actor.IsStudent():
		return OwnerScope(actor.ID), nil
	}
	return Scope{}, core.ErrForbidden
}
