package dummydb

import (
	"sync"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/record"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/user"
)

// verKey identifies a joined verification row.
type verKey struct {
	kind record.Kind
	id   string
}

type (
	DB struct {
		user   *userTable
		record *recordTable
	}

	userTable struct {
		sync.RWMutex
		users       map[string]*user.User
		assignments map[string]*user.Assignment
	}

	recordTable struct {
		sync.RWMutex
		qualifications   map[string]*record.Qualification
		sessions         map[string]*record.Session
		activities       map[string]*record.Activity
		competencies     map[string]*record.CompetencyRating
		profileDocuments map[string]*record.ProfileDocument
		// verification rows for the kinds that store them joined; an
		// absent entry reads as pending
		verifications map[verKey]record.VerificationState
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{
			users:       make(map[string]*user.User),
			assignments: make(map[string]*user.Assignment),
		},
		record: &recordTable{
			qualifications:   make(map[string]*record.Qualification),
			sessions:         make(map[string]*record.Session),
			activities:       make(map[string]*record.Activity),
			competencies:     make(map[string]*record.CompetencyRating),
			profileDocuments: make(map[string]*record.ProfileDocument),
			verifications:    make(map[verKey]record.VerificationState),
		},
	}
	return db, nil
}

// Reset drops all stored data; used between tests.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.users = make(map[string]*user.User)
	db.user.assignments = make(map[string]*user.Assignment)
	db.user.Unlock()

	db.record.Lock()
	db.record.qualifications = make(map[string]*record.Qualification)
	db.record.sessions = make(map[string]*record.Session)
	db.record.activities = make(map[string]*record.Activity)
	db.record.competencies = make(map[string]*record.CompetencyRating)
	db.record.profileDocuments = make(map[string]*record.ProfileDocument)
	db.record.verifications = make(map[verKey]record.VerificationState)
	db.record.Unlock()
}
