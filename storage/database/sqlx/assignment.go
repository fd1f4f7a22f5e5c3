package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/edubridge/backoffice/core/assignment"
)

const (
	assignmentColumns = `id, agent_id, program_id, assigned_by, assigned_at, created_at, updated_at`
	// 7 parameters per row, Postgres accepts at most 65535 per statement.
	insertBatchSize = 1000
)

type assignmentRow struct {
	ID         string         `db:"id"`
	AgentID    string         `db:"agent_id"`
	ProgramID  string         `db:"program_id"`
	AssignedBy sql.NullString `db:"assigned_by"`
	AssignedAt time.Time      `db:"assigned_at"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func newAssignmentRow(asg assignment.Assignment) assignmentRow {
	if asg.ID == "" {
		asg.ID = uuid.New().String()
	}
	return assignmentRow{
		ID:         asg.ID,
		AgentID:    asg.AgentID,
		ProgramID:  asg.ProgramID,
		AssignedBy: sql.NullString{String: asg.AssignedBy, Valid: asg.AssignedBy != ""},
		AssignedAt: asg.AssignedAt,
		CreatedAt:  asg.CreatedAt,
		UpdatedAt:  asg.UpdatedAt,
	}
}

func (r assignmentRow) assignment() assignment.Assignment {
	return assignment.Assignment{
		ID:         r.ID,
		AgentID:    r.AgentID,
		ProgramID:  r.ProgramID,
		AssignedBy: r.AssignedBy.String,
		AssignedAt: r.AssignedAt.UTC(),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) QueryByProgram(ctx context.Context, programID string) ([]assignment.Assignment, error) {
	var rows []assignmentRow
	q := `SELECT ` + assignmentColumns + ` FROM agent_assignments WHERE program_id = $1 ORDER BY assigned_at, agent_id`
	if err := repo.db.SelectContext(ctx, &rows, q, programID); err != nil {
		return nil, persistenceErr("querying assignments", err)
	}
	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		asgs = append(asgs, r.assignment())
	}
	return asgs, nil
}

func (repo *assignmentRepository) QueryAssignedAgents(ctx context.Context, programID string) ([]assignment.AssignedAgent, error) {
	var rows []struct {
		assignmentRow
		Agent assignment.AgentSummary `db:"agent"`
	}
	q := `SELECT a.id, a.agent_id, a.program_id, a.assigned_by, a.assigned_at, a.created_at, a.updated_at,
			u.id AS "agent.id", u.first_name AS "agent.first_name", u.last_name AS "agent.last_name",
			u.email AS "agent.email", u.company_name AS "agent.company_name", u.status AS "agent.status"
		FROM agent_assignments a
		JOIN users u ON u.id = a.agent_id
		WHERE a.program_id = $1
		ORDER BY a.assigned_at, a.agent_id`
	if err := repo.db.SelectContext(ctx, &rows, q, programID); err != nil {
		return nil, persistenceErr("querying assigned agents", err)
	}
	agents := make([]assignment.AssignedAgent, 0, len(rows))
	for _, r := range rows {
		agents = append(agents, assignment.AssignedAgent{Assignment: r.assignment(), Agent: r.Agent})
	}
	return agents, nil
}

func (repo *assignmentRepository) DeleteAgentsFromProgram(ctx context.Context, programID string, agentIDs ...string) (int, error) {
	if len(agentIDs) == 0 {
		return 0, nil
	}
	res, err := execIn(ctx, repo.db, `DELETE FROM agent_assignments WHERE program_id = ? AND agent_id IN (?)`, programID, agentIDs)
	if err != nil {
		return 0, persistenceErr("deleting assignments", err)
	}
	return rowsAffected(res), nil
}

// insert runs one multi-row INSERT per batch of insertBatchSize rows, all in one transaction,
// keeping each statement under the Postgres bind parameter limit.
func (repo *assignmentRepository) insert(ctx context.Context, op, suffix string, asgs []assignment.Assignment) (int, error) {
	if len(asgs) == 0 {
		return 0, nil
	}
	rows := make([]assignmentRow, 0, len(asgs))
	for _, asg := range asgs {
		rows = append(rows, newAssignmentRow(asg))
	}
	q := `INSERT INTO agent_assignments (` + assignmentColumns + `)
		VALUES (:id, :agent_id, :program_id, :assigned_by, :assigned_at, :created_at, :updated_at)` + suffix

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, persistenceErr(op, err)
	}
	defer tx.Rollback() // no-op after Commit

	var n int
	for _, b := range batches(len(rows), insertBatchSize) {
		res, err := tx.NamedExecContext(ctx, q, rows[b.start:b.end])
		if err != nil {
			return 0, persistenceErr(op, err)
		}
		n += rowsAffected(res)
	}
	if err := tx.Commit(); err != nil {
		return 0, persistenceErr(op, err)
	}
	return n, nil
}

func (repo *assignmentRepository) InsertMany(ctx context.Context, asgs []assignment.Assignment) (int, error) {
	return repo.insert(ctx, "inserting assignments", "", asgs)
}

func (repo *assignmentRepository) InsertIfAbsent(ctx context.Context, asgs []assignment.Assignment) (int, error) {
	return repo.insert(ctx, "upserting assignments", ` ON CONFLICT (agent_id, program_id) DO NOTHING`, asgs)
}

func (repo *assignmentRepository) CountByProgram(ctx context.Context) ([]assignment.ProgramCount, error) {
	var rows []struct {
		ProgramID string         `db:"program_id"`
		Count     int            `db:"count"`
		Agents    pq.StringArray `db:"agents"`
	}
	q := `SELECT program_id, COUNT(*) AS count, ARRAY_AGG(agent_id::text ORDER BY assigned_at, agent_id) AS agents
		FROM agent_assignments
		GROUP BY program_id
		ORDER BY program_id`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, persistenceErr("counting assignments", err)
	}
	counts := make([]assignment.ProgramCount, 0, len(rows))
	for _, r := range rows {
		agents := []string(r.Agents)
		if agents == nil {
			agents = []string{}
		}
		counts = append(counts, assignment.ProgramCount{ProgramID: r.ProgramID, Count: r.Count, Agents: agents})
	}
	return counts, nil
}

func (repo *assignmentRepository) Exists(ctx context.Context, agentID, programID string) (bool, error) {
	var found bool
	q := `SELECT EXISTS (SELECT 1 FROM agent_assignments WHERE agent_id = $1 AND program_id = $2)`
	if err := repo.db.GetContext(ctx, &found, q, agentID, programID); err != nil {
		return false, persistenceErr("checking assignment", err)
	}
	return found, nil
}

func (repo *assignmentRepository) ProgramIDsByAgent(ctx context.Context, agentID string) ([]string, error) {
	ids := make([]string, 0)
	q := `SELECT program_id FROM agent_assignments WHERE agent_id = $1 ORDER BY assigned_at, program_id`
	if err := repo.db.SelectContext(ctx, &ids, q, agentID); err != nil {
		return nil, persistenceErr("querying agent programs", err)
	}
	return ids, nil
}

func (repo *assignmentRepository) DeleteByProgram(ctx context.Context, programIDs ...string) error {
	if len(programIDs) == 0 {
		return nil
	}
	if _, err := execIn(ctx, repo.db, `DELETE FROM agent_assignments WHERE program_id IN (?)`, programIDs); err != nil {
		return persistenceErr("deleting program assignments", err)
	}
	return nil
}

func (repo *assignmentRepository) DeleteByAgent(ctx context.Context, agentIDs ...string) error {
	if len(agentIDs) == 0 {
		return nil
	}
	if _, err := execIn(ctx, repo.db, `DELETE FROM agent_assignments WHERE agent_id IN (?)`, agentIDs); err != nil {
		return persistenceErr("deleting agent assignments", err)
	}
	return nil
}
