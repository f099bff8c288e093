package user

import (
	"time"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core"
)

// Assignment binds a mentor to a student they may review. Membership in this
// relation is what makes a student's records visible to a mentor.
type Assignment struct {
	ID        string    `json:"id"`
	MentorID  string    `json:"mentor_id"`
	StudentID string    `json:"student_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewAssignment contains information needed to assign a mentor to a student.
type NewAssignment struct {
	MentorID  string `json:"mentor_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}

func (na *NewAssignment) Validate(svc *Service) error {
	na.MentorID = core.CleanString(na.MentorID)
	na.StudentID = core.CleanString(na.StudentID)

	if err := core.Validate.Struct(na); err != nil {
		return err
	}
	return svc.CheckAssignable(na.MentorID, na.StudentID)
}

// AssignmentFilter narrows an assignment query; zero fields are ignored.
type AssignmentFilter struct {
	MentorID  string `query:"mentor"`
	StudentID string `query:"student"`
}
