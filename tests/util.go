package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/record"
	"github.com/sudarshan-gautam/placement-tracking-app-sub003/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateAssignment(t *testing.T, repo user.Repository, mentorID, studentID string) user.Assignment {
	asg, err := repo.CreateAssignment(context.Background(), user.Assignment{
		MentorID:  mentorID,
		StudentID: studentID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	return asg
}

func CreateQualification(t *testing.T, repo record.Repository, ownerID, title string) record.Qualification {
	now := time.Now().UTC()
	q, err := repo.CreateQualification(context.Background(), record.Qualification{
		OwnerID:      ownerID,
		Title:        title,
		Institution:  "Test Institution",
		DateObtained: now.AddDate(-1, 0, 0),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateQualification() failed: %v", err)
	}
	return q
}

func CreateSession(t *testing.T, repo record.Repository, ownerID, title string) record.Session {
	now := time.Now().UTC()
	s, err := repo.CreateSession(context.Background(), record.Session{
		OwnerID:         ownerID,
		Title:           title,
		Subject:         "Mathematics",
		YearGroup:       "Year 9",
		SessionDate:     now.AddDate(0, 0, -7),
		DurationMinutes: 60,
		Reflection:      "Went well.",
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	return s
}

func CreateActivity(t *testing.T, repo record.Repository, ownerID, title string) record.Activity {
	now := time.Now().UTC()
	a, err := repo.CreateActivity(context.Background(), record.Activity{
		OwnerID:       ownerID,
		Title:         title,
		ActivityType:  "workshop",
		CompletedAt:   now.AddDate(0, 0, -3),
		DurationHours: 2,
		Description:   "Safeguarding workshop.",
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateActivity() failed: %v", err)
	}
	return a
}

func CreateCompetencyRating(t *testing.T, repo record.Repository, ownerID, name string) record.CompetencyRating {
	now := time.Now().UTC()
	c, err := repo.CreateCompetencyRating(context.Background(), record.CompetencyRating{
		OwnerID:    ownerID,
		Category:   "Classroom Practice",
		Name:       name,
		SelfRating: 3,
		Statement:  "Consistently applied in sessions.",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreateCompetencyRating() failed: %v", err)
	}
	return c
}

func CreateProfileDocument(t *testing.T, repo record.Repository, ownerID, ownerName, title string) record.ProfileDocument {
	now := time.Now().UTC()
	d, err := repo.CreateProfileDocument(context.Background(), record.ProfileDocument{
		OwnerID:      ownerID,
		OwnerName:    ownerName,
		DocumentType: "cv",
		Title:        title,
		FileURL:      "https://files.test/" + title + ".pdf",
		UploadedAt:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateProfileDocument() failed: %v", err)
	}
	return d
}
