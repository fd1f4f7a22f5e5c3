package assignment_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge/backoffice/core"
	"github.com/edubridge/backoffice/core/assignment"
	inmemdb "github.com/edubridge/backoffice/storage/database/inmem"
	"github.com/edubridge/backoffice/testutil"
)

func setup(t *testing.T) (assignment.Service, assignment.Repository) {
	t.Helper()
	conf := core.NewTestConfig()
	repo := inmemdb.NewAssignmentRepository(inmemdb.Open())
	return assignment.NewService(repo, core.NewValidator(), testutil.NewLogger(conf)), repo
}

func agentIDs(t *testing.T, repo assignment.Repository, programID string) []string {
	t.Helper()
	asgs, err := repo.QueryByProgram(context.Background(), programID)
	require.NoError(t, err)
	ids := make([]string, 0, len(asgs))
	for _, asg := range asgs {
		ids = append(ids, asg.AgentID)
	}
	sort.Strings(ids)
	return ids
}

func sorted(ids ...string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}

func newIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.New().String()
	}
	return ids
}

func Test_service_Sync(t *testing.T) {
	ctx := context.Background()
	admin := core.Actor{UserID: uuid.New().String(), Role: core.RoleAdmin}
	a := newIDs(5)

	tests := []struct {
		name      string
		existing  []string
		desired   []string
		programID string
		want      assignment.SyncResult
		wantErr   bool
	}{
		{name: "missing program ID", programID: " ", desired: []string{}, wantErr: true},
		{name: "nil agent list", wantErr: true},
		{name: "invalid agent ID", desired: []string{"lol"}, wantErr: true},
		{name: "first sync", desired: []string{a[0], a[1]}, want: assignment.SyncResult{Added: 2}},
		{name: "empty list clears", existing: []string{a[0], a[1]}, desired: []string{}, want: assignment.SyncResult{Removed: 2}},
		{name: "no change", existing: []string{a[0], a[1]}, desired: []string{a[1], a[0]}},
		{
			name: "add and remove", existing: []string{a[0], a[1], a[2]}, desired: []string{a[2], a[3], a[4]},
			want: assignment.SyncResult{Added: 2, Removed: 2},
		},
		{
			name: "duplicates tolerated", existing: []string{a[0]}, desired: []string{a[1], a[1], a[0]},
			want: assignment.SyncResult{Added: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := setup(t)
			programID := tt.programID
			if programID == "" {
				programID = uuid.New().String()
			}
			for _, id := range tt.existing {
				testutil.Assign(t, repo, id, programID)
			}

			got, err := svc.Sync(ctx, admin, programID, tt.desired)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsValidation(err), "want ValidationError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, sorted(core.UniqueStrings(tt.desired)...), agentIDs(t, repo, programID))
		})
	}
}

func Test_service_Sync_keepsOtherPrograms(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	admin := core.Actor{UserID: uuid.New().String(), Role: core.RoleAdmin}
	a := newIDs(2)
	p1, p2 := uuid.New().String(), uuid.New().String()

	testutil.Assign(t, repo, a[0], p1)
	testutil.Assign(t, repo, a[0], p2)

	_, err := svc.Sync(ctx, admin, p1, []string{a[1]})
	require.NoError(t, err)

	assert.Equal(t, []string{a[1]}, agentIDs(t, repo, p1))
	assert.Equal(t, []string{a[0]}, agentIDs(t, repo, p2))
}

func Test_service_Sync_recordsAssigner(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	admin := core.Actor{UserID: uuid.New().String(), Role: core.RoleAdmin}
	programID, agentID := uuid.New().String(), uuid.New().String()

	_, err := svc.Sync(ctx, admin, programID, []string{agentID})
	require.NoError(t, err)

	asgs, err := repo.QueryByProgram(ctx, programID)
	require.NoError(t, err)
	require.Len(t, asgs, 1)
	assert.Equal(t, admin.UserID, asgs[0].AssignedBy)
	assert.False(t, asgs[0].AssignedAt.IsZero())
}

// insertFailingRepo fails every insert with a database error.
type insertFailingRepo struct {
	assignment.Repository
}

func (insertFailingRepo) InsertMany(context.Context, []assignment.Assignment) (int, error) {
	return 0, core.NewPersistenceError("insert assignments", errors.New("connection reset by peer"))
}

func Test_service_Sync_insertFails(t *testing.T) {
	ctx := context.Background()
	repo := inmemdb.NewAssignmentRepository(inmemdb.Open())
	logger := testutil.NewLoggerMock()
	svc := assignment.NewService(insertFailingRepo{repo}, core.NewValidator(), logger)
	admin := core.Actor{UserID: uuid.New().String(), Role: core.RoleAdmin}
	a := newIDs(3)
	programID := uuid.New().String()
	testutil.Assign(t, repo, a[0], programID)
	testutil.Assign(t, repo, a[1], programID)

	res, err := svc.Sync(ctx, admin, programID, []string{a[1], a[2]})
	require.Error(t, err)
	assert.True(t, core.IsPersistence(err), "got %v", err)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 0, res.Added)

	// the removal batch is already applied, the addition is not
	assert.Equal(t, []string{a[1]}, agentIDs(t, repo, programID))
	assert.Empty(t, logger.Errors())
}

func Test_service_BulkAssign(t *testing.T) {
	ctx := context.Background()
	admin := core.Actor{UserID: uuid.New().String(), Role: core.RoleAdmin}
	programs, agents := newIDs(2), newIDs(3)

	tests := []struct {
		name    string
		data    assignment.BulkAssign
		want    int
		wantErr bool
	}{
		{name: "no programs", data: assignment.BulkAssign{AgentIDs: agents}, wantErr: true},
		{name: "no agents", data: assignment.BulkAssign{ProgramIDs: programs}, wantErr: true},
		{name: "invalid ID", data: assignment.BulkAssign{ProgramIDs: []string{"lol"}, AgentIDs: agents}, wantErr: true},
		{name: "cartesian product", data: assignment.BulkAssign{ProgramIDs: programs, AgentIDs: agents}, want: 6},
		{
			name: "duplicates dropped",
			data: assignment.BulkAssign{ProgramIDs: []string{programs[0], programs[0]}, AgentIDs: []string{agents[0], agents[0]}},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setup(t)
			got, err := svc.BulkAssign(ctx, admin, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, core.IsValidation(err), "want ValidationError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_service_BulkAssign_idempotent(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	first := core.Actor{UserID: uuid.New().String(), Role: core.RoleAdmin}
	second := core.Actor{UserID: uuid.New().String(), Role: core.RoleSuperAdmin}
	programs, agents := newIDs(2), newIDs(2)
	data := assignment.BulkAssign{ProgramIDs: programs, AgentIDs: agents}

	n, err := svc.BulkAssign(ctx, first, data)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	before, err := repo.QueryByProgram(ctx, programs[0])
	require.NoError(t, err)

	n, err = svc.BulkAssign(ctx, second, data)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	after, err := repo.QueryByProgram(ctx, programs[0])
	require.NoError(t, err)
	assert.Equal(t, before, after, "existing assignments must not be overwritten")
	for _, asg := range after {
		assert.Equal(t, first.UserID, asg.AssignedBy)
	}
}

func Test_service_Counts(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	programs, agents := sorted(newIDs(2)...), newIDs(3)

	testutil.Assign(t, repo, agents[0], programs[0])
	testutil.Assign(t, repo, agents[1], programs[0])
	testutil.Assign(t, repo, agents[2], programs[1])

	counts, err := svc.Counts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, programs[0], counts[0].ProgramID)
	assert.Equal(t, 2, counts[0].Count)
	assert.ElementsMatch(t, agents[:2], counts[0].Agents)
	assert.Equal(t, programs[1], counts[1].ProgramID)
	assert.Equal(t, 1, counts[1].Count)
}

func Test_service_cleanup(t *testing.T) {
	ctx := context.Background()
	svc, repo := setup(t)
	programs, agents := newIDs(2), newIDs(2)

	for _, p := range programs {
		for _, a := range agents {
			testutil.Assign(t, repo, a, p)
		}
	}

	require.NoError(t, svc.DeleteForPrograms(ctx, programs[0]))
	assert.Empty(t, agentIDs(t, repo, programs[0]))
	assert.Len(t, agentIDs(t, repo, programs[1]), 2)

	require.NoError(t, svc.DeleteForAgents(ctx, agents[0]))
	assert.Equal(t, []string{agents[1]}, agentIDs(t, repo, programs[1]))

	ok, err := svc.IsAssigned(ctx, agents[1], programs[1])
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := svc.ProgramIDsForAgent(ctx, agents[0])
	require.NoError(t, err)
	assert.Empty(t, ids)
}
