package main

import (
	"context"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/user"
)

// assignMentor resolves both users by username or email and binds them.
func (cli *commandLine) assignMentor(mentor, student string) error {
	ctx := context.Background()

	mentorUsr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{mentor}})
	if err != nil {
		return err
	}
	studentUsr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: []string{student}})
	if err != nil {
		return err
	}

	na := user.NewAssignment{MentorID: mentorUsr.ID, StudentID: studentUsr.ID}
	if err := na.Validate(cli.usrSvc); err != nil {
		return err
	}
	_, err = cli.usrSvc.Assign(ctx, na)
	return err
}
