package assignment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edubridge/backoffice/core"
)

var (
	nowFunc = time.Now // mockable

	// errors
	errProgramIDRequired = core.NewValidationError(nil, core.FieldError{Field: "universityId", Error: "University ID is required"})
	errAgentIDsNotArray  = core.NewValidationError(nil, core.FieldError{Field: "agentIds", Error: "Agent IDs must be an array"})
)

type (
	Repository interface {
		QueryByProgram(ctx context.Context, programID string) ([]Assignment, error)
		QueryAssignedAgents(ctx context.Context, programID string) ([]AssignedAgent, error)
		// DeleteAgentsFromProgram removes the assignments of agentIDs to programID in one statement.
		DeleteAgentsFromProgram(ctx context.Context, programID string, agentIDs ...string) (int, error)
		// InsertMany inserts every assignment atomically; an existing pair fails the whole batch.
		InsertMany(ctx context.Context, asgs []Assignment) (int, error)
		// InsertIfAbsent inserts the assignments whose pair does not exist yet, existing pairs are left untouched.
		InsertIfAbsent(ctx context.Context, asgs []Assignment) (int, error)
		CountByProgram(ctx context.Context) ([]ProgramCount, error)
		Exists(ctx context.Context, agentID, programID string) (bool, error)
		ProgramIDsByAgent(ctx context.Context, agentID string) ([]string, error)
		DeleteByProgram(ctx context.Context, programIDs ...string) error
		DeleteByAgent(ctx context.Context, agentIDs ...string) error
	}

	Service interface {
		Sync(ctx context.Context, actor core.Actor, programID string, agentIDs []string) (SyncResult, error)
		BulkAssign(ctx context.Context, actor core.Actor, data BulkAssign) (int, error)
		AgentsForProgram(ctx context.Context, programID string) ([]AssignedAgent, error)
		Counts(ctx context.Context) ([]ProgramCount, error)
		IsAssigned(ctx context.Context, agentID, programID string) (bool, error)
		ProgramIDsForAgent(ctx context.Context, agentID string) ([]string, error)
		DeleteForPrograms(ctx context.Context, programIDs ...string) error
		DeleteForAgents(ctx context.Context, agentIDs ...string) error
	}

	service struct {
		repo      Repository
		validator *core.Validator
		logger    core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, validator *core.Validator, logger core.Logger) Service {
	return &service{repo: repo, validator: validator, logger: logger}
}

// Sync makes the agents assigned to programID exactly agentIDs.
// Removals and additions are two separate batches: a failed insert leaves the removals applied.
func (svc *service) Sync(ctx context.Context, actor core.Actor, programID string, agentIDs []string) (SyncResult, error) {
	programID = core.CleanString(programID)
	if programID == "" {
		return SyncResult{}, errProgramIDRequired
	}
	if agentIDs == nil {
		return SyncResult{}, errAgentIDsNotArray
	}
	data := SyncAgents{AgentIDs: agentIDs}
	data.Clean()
	if err := svc.validator.Struct(data); err != nil {
		return SyncResult{}, err
	}

	existing, err := svc.repo.QueryByProgram(ctx, programID)
	if err != nil {
		return SyncResult{}, errors.Wrap(err, "loading existing assignments")
	}
	existingIDs := make([]string, 0, len(existing))
	for _, asg := range existing {
		existingIDs = append(existingIDs, asg.AgentID)
	}

	toAdd, toRemove := Diff(existingIDs, data.AgentIDs)

	var res SyncResult
	if len(toRemove) > 0 {
		if _, err := svc.repo.DeleteAgentsFromProgram(ctx, programID, toRemove...); err != nil {
			return SyncResult{}, errors.Wrap(err, "removing agents")
		}
		res.Removed = len(toRemove)
	}
	if len(toAdd) > 0 {
		now := nowFunc().UTC()
		asgs := make([]Assignment, 0, len(toAdd))
		for _, agentID := range toAdd {
			asgs = append(asgs, newAssignment(agentID, programID, actor.UserID, now))
		}
		if _, err := svc.repo.InsertMany(ctx, asgs); err != nil {
			return res, errors.Wrap(err, "adding agents")
		}
		res.Added = len(toAdd)
	}

	svc.logger.Info("University agents synced", map[string]interface{}{
		"universityId": programID,
		"added":        res.Added,
		"removed":      res.Removed,
	})
	return res, nil
}

// BulkAssign assigns every agent to every program, skipping the pairs that already exist.
// It returns the number of assignments created.
func (svc *service) BulkAssign(ctx context.Context, actor core.Actor, data BulkAssign) (int, error) {
	data.Clean()
	if err := svc.validator.Struct(data); err != nil {
		return 0, err
	}

	now := nowFunc().UTC()
	asgs := make([]Assignment, 0, len(data.ProgramIDs)*len(data.AgentIDs))
	for _, programID := range data.ProgramIDs {
		for _, agentID := range data.AgentIDs {
			asgs = append(asgs, newAssignment(agentID, programID, actor.UserID, now))
		}
	}

	created, err := svc.repo.InsertIfAbsent(ctx, asgs)
	if err != nil {
		return 0, errors.Wrap(err, "bulk assigning")
	}
	svc.logger.Info("Bulk assignment completed", map[string]interface{}{
		"universities": len(data.ProgramIDs),
		"agents":       len(data.AgentIDs),
		"created":      created,
	})
	return created, nil
}

func (svc *service) AgentsForProgram(ctx context.Context, programID string) ([]AssignedAgent, error) {
	programID = core.CleanString(programID)
	if programID == "" {
		return nil, errProgramIDRequired
	}
	return svc.repo.QueryAssignedAgents(ctx, programID)
}

func (svc *service) Counts(ctx context.Context) ([]ProgramCount, error) {
	return svc.repo.CountByProgram(ctx)
}

func (svc *service) IsAssigned(ctx context.Context, agentID, programID string) (bool, error) {
	return svc.repo.Exists(ctx, agentID, programID)
}

func (svc *service) ProgramIDsForAgent(ctx context.Context, agentID string) ([]string, error) {
	return svc.repo.ProgramIDsByAgent(ctx, agentID)
}

func (svc *service) DeleteForPrograms(ctx context.Context, programIDs ...string) error {
	if programIDs = core.UniqueStrings(programIDs); len(programIDs) == 0 {
		return nil
	}
	return svc.repo.DeleteByProgram(ctx, programIDs...)
}

func (svc *service) DeleteForAgents(ctx context.Context, agentIDs ...string) error {
	if agentIDs = core.UniqueStrings(agentIDs); len(agentIDs) == 0 {
		return nil
	}
	return svc.repo.DeleteByAgent(ctx, agentIDs...)
}
