package user_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubridge/backoffice/core"
	"github.com/edubridge/backoffice/core/assignment"
	"github.com/edubridge/backoffice/core/user"
	appfs "github.com/edubridge/backoffice/fs"
	emailsvc "github.com/edubridge/backoffice/services/email"
	inmemdb "github.com/edubridge/backoffice/storage/database/inmem"
	"github.com/edubridge/backoffice/testutil"
)

func TestMain(m *testing.M) {
	conf := core.NewTestConfig()
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, testutil.NewLogger(conf))
	os.Exit(m.Run())
}

type fixture struct {
	svc     user.Service
	repo    user.Repository
	asgRepo assignment.Repository
	mailSvc *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) fixture {
	t.Helper()
	conf := core.NewTestConfig()
	logger := testutil.NewLogger(conf)
	validator := core.NewValidator()
	db := inmemdb.Open()

	f := fixture{
		repo:    inmemdb.NewUserRepository(db),
		asgRepo: inmemdb.NewAssignmentRepository(db),
		mailSvc: emailsvc.NewConsoleServiceMock(conf, logger),
	}
	asgSvc := assignment.NewService(f.asgRepo, validator, logger)
	f.svc = user.NewService(f.repo, asgSvc, f.mailSvc, validator, conf, logger)
	return f
}

func newUser(email, pwd string) user.NewUser {
	return user.NewUser{
		FirstName:       "Amani",
		LastName:        "Kabila",
		Email:           email,
		Role:            core.RoleAgent,
		Password:        pwd,
		PasswordConfirm: pwd,
	}
}

func fieldErrors(t *testing.T, err error) []string {
	t.Helper()
	require.Error(t, err)
	vErr, ok := err.(*core.ValidationError)
	require.True(t, ok, "want *core.ValidationError, got %T: %v", err, err)
	msgs := make([]string, 0, len(vErr.Fields))
	for _, fe := range vErr.Fields {
		msgs = append(msgs, fe.Error)
	}
	return msgs
}

func Test_service_Create(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	testutil.CreateUser(t, f.repo, "Taken", "taken@test.cd", "", core.RoleAgent, user.StatusActive)

	tests := []struct {
		name    string
		data    user.NewUser
		wantErr string
	}{
		{name: "too short", data: newUser("a@test.cd", "a1!"), wantErr: "password must contain at least 8 characters"},
		{name: "whitespace", data: newUser("a@test.cd", "abc 123!xyz"), wantErr: "password must not contain whitespace"},
		{name: "all numeric", data: newUser("a@test.cd", "1234567890"), wantErr: "password cannot be entirely numeric"},
		{name: "no special char", data: newUser("a@test.cd", "abcd12345"), wantErr: "password must contain at least 1 letter, 1 digit and 1 special character"},
		{name: "similar to email", data: newUser("amani1@test.cd", "amani1@test.c"), wantErr: "password cannot be similar to user attributes"},
		{
			name: "invalid role",
			data: func() user.NewUser { nu := newUser("a@test.cd", "s3cr3t!pwd"); nu.Role = "lol"; return nu }(),
			wantErr: "invalid role",
		},
		{name: "email taken", data: newUser(" TAKEN@test.cd ", "s3cr3t!pwd"), wantErr: user.ErrEmailExists.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.data)
			assert.Contains(t, fieldErrors(t, err), tt.wantErr)
		})
	}

	t.Run("created", func(t *testing.T) {
		nu := newUser(" Amani@Test.CD ", "s3cr3t!pwd")
		nu.Role = "agent"
		usr, err := f.svc.Create(ctx, nu)
		require.NoError(t, err)
		assert.Equal(t, "amani@test.cd", usr.Email)
		assert.Equal(t, core.RoleAgent, usr.Role)
		assert.Equal(t, user.StatusActive, usr.Status)
		assert.NoError(t, usr.CheckPassword("s3cr3t!pwd"))

		got, err := f.svc.GetByEmail(ctx, "AMANI@test.cd")
		require.NoError(t, err)
		assert.Equal(t, usr.ID, got.ID)
	})
}

func Test_service_Update(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	testutil.CreateUser(t, f.repo, "Taken", "taken@test.cd", "", core.RoleAgent, user.StatusActive)
	usr := testutil.CreateUser(t, f.repo, "Amani", "amani@test.cd", "s3cr3t!pwd", core.RoleAgent, user.StatusActive)

	_, err := f.svc.Update(ctx, usr, user.UpdateUser{Email: "taken@test.cd"})
	assert.Contains(t, fieldErrors(t, err), user.ErrEmailExists.Error())

	company := "Edu Partners"
	updated, err := f.svc.Update(ctx, usr, user.UpdateUser{
		Email:           "AMANI@test.cd", // same owner
		CompanyName:     &company,
		Status:          user.StatusInactive,
		Password:        "n3w!passw0rd",
		PasswordConfirm: "n3w!passw0rd",
	})
	require.NoError(t, err)
	assert.Equal(t, "Amani", updated.FirstName)
	assert.Equal(t, "Edu Partners", updated.CompanyName)
	assert.Equal(t, user.StatusInactive, updated.Status)
	assert.NoError(t, updated.CheckPassword("n3w!passw0rd"))

	_, err = f.svc.Update(ctx, usr, user.UpdateUser{Password: "n3w!passw0rd", PasswordConfirm: "lol"})
	assert.True(t, core.IsValidation(err))
}

func Test_service_Query(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	agent1 := testutil.CreateUser(t, f.repo, "Amani", "amani@test.cd", "", core.RoleAgent, user.StatusActive)
	agent2 := testutil.CreateUser(t, f.repo, "Baraka", "baraka@test.cd", "", core.RoleAgent, user.StatusInactive)
	admin := testutil.CreateUser(t, f.repo, "Chausiku", "chausiku@test.cd", "", core.RoleAdmin, user.StatusActive)

	ids := func(users []user.User) []string {
		out := make([]string, 0, len(users))
		for _, u := range users {
			out = append(out, u.ID)
		}
		return out
	}

	tests := []struct {
		name     string
		filter   *user.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all", want: []string{agent1.ID, agent2.ID, admin.ID}},
		{name: "search", filter: &user.QueryFilter{Search: "BAR"}, want: []string{agent2.ID}},
		{name: "role", filter: &user.QueryFilter{Roles: []string{"agent"}}, want: []string{agent1.ID, agent2.ID}},
		{name: "status", filter: &user.QueryFilter{Status: "ACTIVE"}, want: []string{agent1.ID, admin.ID}},
		{name: "combined", filter: &user.QueryFilter{Roles: []string{core.RoleAgent}, Status: user.StatusActive}, want: []string{agent1.ID}},
		{name: "unknown role", filter: &user.QueryFilter{Roles: []string{"lol"}}, want: []string{}},
		{
			name: "ordering", ordering: []core.DBOrdering{{Field: "firstName", Ascending: false}},
			want: []string{admin.ID, agent2.ID, agent1.ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := f.svc.Query(ctx, tt.filter, tt.ordering...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(users))
		})
	}
}

func Test_service_Delete(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	agent := testutil.CreateUser(t, f.repo, "Amani", "amani@test.cd", "", core.RoleAgent, user.StatusActive)
	other := testutil.CreateUser(t, f.repo, "Baraka", "baraka@test.cd", "", core.RoleAgent, user.StatusActive)
	programID := uuid.New().String()
	testutil.Assign(t, f.asgRepo, agent.ID, programID)
	testutil.Assign(t, f.asgRepo, other.ID, programID)

	require.NoError(t, f.svc.Delete(ctx, agent.ID, agent.ID))

	_, err := f.svc.GetByID(ctx, agent.ID)
	assert.True(t, core.IsNotFound(err))
	asgs, err := f.asgRepo.QueryByProgram(ctx, programID)
	require.NoError(t, err)
	require.Len(t, asgs, 1)
	assert.Equal(t, other.ID, asgs[0].AgentID)

	assert.NoError(t, f.svc.Delete(ctx))
}

func Test_service_passwordReset(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	usr := testutil.CreateUser(t, f.repo, "Amani", "amani@test.cd", "s3cr3t!pwd", core.RoleAgent, user.StatusActive)
	testutil.CreateUser(t, f.repo, "Baraka", "baraka@test.cd", "s3cr3t!pwd", core.RoleAgent, user.StatusInactive)

	assert.True(t, core.IsNotFound(f.svc.RequestPasswordReset(ctx, "lol@test.cd")))
	assert.True(t, core.IsNotFound(f.svc.RequestPasswordReset(ctx, "baraka@test.cd")), "inactive users get no mail")
	assert.Empty(t, f.mailSvc.SentMessages())

	require.NoError(t, f.svc.RequestPasswordReset(ctx, " AMANI@test.cd "))
	sent := f.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, usr.Email, sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "/reset-password?uid=")

	data, ok := sent[0].TemplateData.(map[string]interface{})
	require.True(t, ok)
	uid, token := data["UID"].(string), data["Token"].(string)

	reset := func(uid, token, pwd string) error {
		return f.svc.ResetPassword(ctx, user.ResetUserPassword{UID: uid, Token: token, Password: pwd, PasswordConfirm: pwd})
	}

	tests := []struct {
		name    string
		uid     string
		token   string
		pwd     string
		wantErr error
	}{
		{name: "bad uid", uid: "lol", token: token, pwd: "n3w!passw0rd", wantErr: user.ErrInvalidResetLink},
		{name: "unknown user", uid: user.EncodeUID(user.User{ID: uuid.New().String()}), token: token, pwd: "n3w!passw0rd", wantErr: user.ErrInvalidResetLink},
		{name: "bad token", uid: uid, token: "lol-lol-lol", pwd: "n3w!passw0rd", wantErr: user.ErrInvalidResetLink},
		{name: "reset", uid: uid, token: token, pwd: "n3w!passw0rd"},
		{name: "token used", uid: uid, token: token, pwd: "0th3r!passw0rd", wantErr: user.ErrInvalidResetLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, reset(tt.uid, tt.token, tt.pwd))
		})
	}

	refreshed, err := f.svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("n3w!passw0rd"))
}
