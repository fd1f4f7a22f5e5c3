package inmemdb

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/edubridge/backoffice/core"
	"github.com/edubridge/backoffice/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

// sorted returns the assignments matching keep, oldest first.
func (repo *assignmentRepository) sorted(keep func(assignment.Assignment) bool) []assignment.Assignment {
	asgs := make([]assignment.Assignment, 0)
	for _, asg := range repo.db.assignments {
		if keep(*asg) {
			asgs = append(asgs, *asg)
		}
	}
	sort.Slice(asgs, func(i, j int) bool {
		if asgs[i].AssignedAt.Equal(asgs[j].AssignedAt) {
			return asgs[i].AgentID < asgs[j].AgentID
		}
		return asgs[i].AssignedAt.Before(asgs[j].AssignedAt)
	})
	return asgs
}

func (repo *assignmentRepository) find(agentID, programID string) *assignment.Assignment {
	for _, asg := range repo.db.assignments {
		if asg.AgentID == agentID && asg.ProgramID == programID {
			return asg
		}
	}
	return nil
}

func (repo *assignmentRepository) QueryByProgram(_ context.Context, programID string) ([]assignment.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.sorted(func(a assignment.Assignment) bool { return a.ProgramID == programID }), nil
}

func (repo *assignmentRepository) QueryAssignedAgents(_ context.Context, programID string) ([]assignment.AssignedAgent, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	asgs := repo.sorted(func(a assignment.Assignment) bool { return a.ProgramID == programID })
	agents := make([]assignment.AssignedAgent, 0, len(asgs))
	for _, asg := range asgs {
		aa := assignment.AssignedAgent{Assignment: asg}
		if usr, ok := repo.db.users[asg.AgentID]; ok {
			aa.Agent = assignment.AgentSummary{
				ID:          usr.ID,
				FirstName:   usr.FirstName,
				LastName:    usr.LastName,
				Email:       usr.Email,
				CompanyName: usr.CompanyName,
				Status:      usr.Status,
			}
		}
		agents = append(agents, aa)
	}
	return agents, nil
}

func (repo *assignmentRepository) DeleteAgentsFromProgram(_ context.Context, programID string, agentIDs ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	agents := toSet(agentIDs)
	var n int
	for id, asg := range repo.db.assignments {
		if _, ok := agents[asg.AgentID]; ok && asg.ProgramID == programID {
			delete(repo.db.assignments, id)
			n++
		}
	}
	return n, nil
}

func (repo *assignmentRepository) InsertMany(_ context.Context, asgs []assignment.Assignment) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	seen := make(map[[2]string]struct{}, len(asgs))
	for _, asg := range asgs {
		key := [2]string{asg.AgentID, asg.ProgramID}
		if _, dup := seen[key]; dup || repo.find(asg.AgentID, asg.ProgramID) != nil {
			return 0, errDuplicateAssignment(asg)
		}
		seen[key] = struct{}{}
	}
	for _, asg := range asgs {
		asg := asg
		asg.ID = uuid.New().String()
		repo.db.assignments[asg.ID] = &asg
	}
	return len(asgs), nil
}

func (repo *assignmentRepository) InsertIfAbsent(_ context.Context, asgs []assignment.Assignment) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for _, asg := range asgs {
		if repo.find(asg.AgentID, asg.ProgramID) != nil {
			continue
		}
		asg := asg
		asg.ID = uuid.New().String()
		repo.db.assignments[asg.ID] = &asg
		n++
	}
	return n, nil
}

func (repo *assignmentRepository) CountByProgram(_ context.Context) ([]assignment.ProgramCount, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	byProgram := make(map[string]*assignment.ProgramCount)
	for _, asg := range repo.sorted(func(assignment.Assignment) bool { return true }) {
		pc, ok := byProgram[asg.ProgramID]
		if !ok {
			pc = &assignment.ProgramCount{ProgramID: asg.ProgramID, Agents: []string{}}
			byProgram[asg.ProgramID] = pc
		}
		pc.Count++
		pc.Agents = append(pc.Agents, asg.AgentID)
	}

	counts := make([]assignment.ProgramCount, 0, len(byProgram))
	for _, pc := range byProgram {
		counts = append(counts, *pc)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].ProgramID < counts[j].ProgramID })
	return counts, nil
}

func (repo *assignmentRepository) Exists(_ context.Context, agentID, programID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.find(agentID, programID) != nil, nil
}

func (repo *assignmentRepository) ProgramIDsByAgent(_ context.Context, agentID string) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := make([]string, 0)
	for _, asg := range repo.sorted(func(a assignment.Assignment) bool { return a.AgentID == agentID }) {
		ids = append(ids, asg.ProgramID)
	}
	return ids, nil
}

func (repo *assignmentRepository) DeleteByProgram(_ context.Context, programIDs ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	programs := toSet(programIDs)
	for id, asg := range repo.db.assignments {
		if _, ok := programs[asg.ProgramID]; ok {
			delete(repo.db.assignments, id)
		}
	}
	return nil
}

func (repo *assignmentRepository) DeleteByAgent(_ context.Context, agentIDs ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	agents := toSet(agentIDs)
	for id, asg := range repo.db.assignments {
		if _, ok := agents[asg.AgentID]; ok {
			delete(repo.db.assignments, id)
		}
	}
	return nil
}

func errDuplicateAssignment(asg assignment.Assignment) error {
	return core.NewPersistenceError(
		"inserting assignments",
		fmt.Errorf("agent %s is already assigned to program %s", asg.AgentID, asg.ProgramID),
	)
}
