// Package testutil holds the fixtures shared by the package tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/edubridge/backoffice/core"
	"github.com/edubridge/backoffice/core/assignment"
	"github.com/edubridge/backoffice/core/brochure"
	"github.com/edubridge/backoffice/core/user"
	logsvc "github.com/edubridge/backoffice/services/logger"
)

// NewLogger returns a disabled rollbar logger that prints nowhere.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, email, pwd, role, status string,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		FirstName: firstName,
		Email:     email,
		Role:      role,
		Status:    status,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
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

func CreateType(t *testing.T, repo brochure.Repository, name string) brochure.BrochureType {
	now := time.Now().UTC()
	typ, err := repo.CreateType(context.Background(), brochure.BrochureType{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateType() failed: %v", err)
	}
	return typ
}

func CreateCategory(t *testing.T, repo brochure.Repository, name string, typeID *string) brochure.Category {
	now := time.Now().UTC()
	cat, err := repo.CreateCategory(context.Background(), brochure.Category{
		ID:        uuid.New().String(),
		Name:      name,
		TypeID:    typeID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCategory() failed: %v", err)
	}
	return cat
}

func CreateProgram(t *testing.T, repo brochure.Repository, name, typeID string) brochure.Program {
	now := time.Now().UTC()
	p, err := repo.CreateProgram(context.Background(), brochure.Program{
		ID:        uuid.New().String(),
		Name:      name,
		TypeID:    typeID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProgram() failed: %v", err)
	}
	return p
}

// CreateBrochure stores a brochure record. The file at fileURL, if any, is not created.
func CreateBrochure(t *testing.T, repo brochure.Repository, title, programID, fileURL string) brochure.Brochure {
	now := time.Now().UTC()
	b, err := repo.CreateBrochure(context.Background(), brochure.Brochure{
		ID:        uuid.New().String(),
		Title:     title,
		ProgramID: programID,
		FileURL:   fileURL,
		URL:       fileURL,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateBrochure() failed: %v", err)
	}
	return b
}

func Assign(t *testing.T, repo assignment.Repository, agentID, programID string, assignedAt ...time.Time) {
	tstamp := time.Now().UTC()
	if len(assignedAt) > 0 {
		tstamp = assignedAt[0].UTC()
	}
	_, err := repo.InsertMany(context.Background(), []assignment.Assignment{{
		AgentID:    agentID,
		ProgramID:  programID,
		AssignedAt: tstamp,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}})
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
}
