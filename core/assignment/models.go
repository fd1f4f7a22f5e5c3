package assignment

import (
	"strings"
	"time"

	"github.com/edubridge/backoffice/core"
)

// Assignment grants one agent access to one university program.
// The (AgentID, ProgramID) pair is unique and records are never updated in place.
type Assignment struct {
	ID         string    `json:"id" db:"id"`
	AgentID    string    `json:"agentId" db:"agent_id"`
	ProgramID  string    `json:"universityId" db:"program_id"`
	AssignedBy string    `json:"assignedBy" db:"assigned_by"`
	AssignedAt time.Time `json:"assignedAt" db:"assigned_at"` // UTC
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`   // UTC
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`   // UTC
}

// AgentSummary is the agent projection returned along with an assignment.
type AgentSummary struct {
	ID          string `json:"id" db:"id"`
	FirstName   string `json:"firstName" db:"first_name"`
	LastName    string `json:"lastName" db:"last_name"`
	Email       string `json:"email" db:"email"`
	CompanyName string `json:"companyName" db:"company_name"`
	Status      string `json:"status" db:"status"`
}

// AssignedAgent is an Assignment joined with its agent.
type AssignedAgent struct {
	Assignment
	Agent AgentSummary `json:"agent"`
}

// ProgramCount is the number of agents assigned to a program.
type ProgramCount struct {
	ProgramID string   `json:"universityId"`
	Count     int      `json:"count"`
	Agents    []string `json:"agents"`
}

type SyncResult struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// SyncAgents is the desired agent set of a program.
// A nil AgentIDs is rejected, an empty one removes every assignment.
type SyncAgents struct {
	AgentIDs []string `json:"agentIds" validate:"dive,uuid"`
}

func (sa *SyncAgents) Clean() {
	if sa.AgentIDs != nil {
		sa.AgentIDs = core.UniqueStrings(sa.AgentIDs)
	}
}

// BulkAssign assigns every agent of AgentIDs to every program of ProgramIDs.
type BulkAssign struct {
	ProgramIDs []string `json:"universityIds" validate:"required,min=1,dive,uuid"`
	AgentIDs   []string `json:"agentIds" validate:"required,min=1,dive,uuid"`
}

func (ba *BulkAssign) Clean() {
	ba.ProgramIDs = core.UniqueStrings(ba.ProgramIDs)
	ba.AgentIDs = core.UniqueStrings(ba.AgentIDs)
}

func newAssignment(agentID, programID, assignedBy string, now time.Time) Assignment {
	return Assignment{
		AgentID:    strings.TrimSpace(agentID),
		ProgramID:  strings.TrimSpace(programID),
		AssignedBy: assignedBy,
		AssignedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
