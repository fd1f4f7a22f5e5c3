package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edubridge/backoffice/core"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("user")
	ErrEmailExists      = errors.New("a user with this email already exists")
	ErrInvalidResetLink = core.NewValidationError(errors.New("the password reset link is invalid or has expired"))
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists when a user other than excludedUsers owns email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.FirstName, User.LastName or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	// AssignmentCleaner drops the program assignments of deleted agents.
	AssignmentCleaner interface {
		DeleteForAgents(ctx context.Context, agentIDs ...string) error
	}

	Service interface {
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Update(ctx context.Context, usr User, uu UpdateUser) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, ids ...string) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo        Repository
		assignments AssignmentCleaner
		mailSvc     core.EmailService
		validator   *core.Validator
		tokenGen    tokenGenerator
		conf        *core.Config
		logger      core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	assignments AssignmentCleaner,
	mailSvc core.EmailService,
	validator *core.Validator,
	conf *core.Config,
	logger core.Logger,
) Service {
	InitValidators(validator)
	return &service{
		repo:        repo,
		assignments: assignments,
		mailSvc:     mailSvc,
		validator:   validator,
		tokenGen:    tokenGenerator{secretKey: []byte(conf.SecretKey), timeout: conf.PasswordResetTimeoutDelta},
		conf:        conf,
		logger:      logger,
	}
}

func (svc *service) checkUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validator.Struct(nu); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		ID:          uuid.New().String(),
		FirstName:   nu.FirstName,
		LastName:    nu.LastName,
		Email:       nu.Email,
		CompanyName: nu.CompanyName,
		Role:        nu.Role,
		Status:      nu.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	filter.Clean()
	return svc.repo.QueryUsers(ctx, filter, ordering...)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	uu.Clean()
	if err := svc.validator.Struct(uu); err != nil {
		return User{}, err
	}
	if uu.Email != "" && uu.Email != usr.Email {
		if err := svc.checkUniqueness(ctx, uu.Email, usr); err != nil {
			return User{}, err
		}
	}

	usr = uu.Apply(usr)
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// Delete removes the users and the program assignments they hold.
func (svc *service) Delete(ctx context.Context, ids ...string) error {
	ids = core.UniqueStrings(ids)
	if len(ids) == 0 {
		return nil
	}
	if svc.assignments != nil {
		if err := svc.assignments.DeleteForAgents(ctx, ids...); err != nil {
			return errors.Wrap(err, "deleting agents assignments")
		}
	}
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

// RequestPasswordReset mails a reset link to the active user owning email.
// The mail is sent in the background.
func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive() {
		return ErrNotFound
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) {
	msg := core.NewEmailMessage(svc.conf)
	msg.To = []mail.Address{{Name: usr.FullName(), Address: usr.Email}}
	msg.Subject = "Password Reset"
	msg.TemplateName = "password_reset"
	msg.TemplateData = map[string]interface{}{
		"Name":  usr.FirstName,
		"UID":   EncodeUID(usr),
		"Token": svc.tokenGen.makeToken(usr),
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	if err := svc.validator.Struct(data); err != nil {
		return err
	}

	id, err := decodeUID(data.UID)
	if err != nil {
		return ErrInvalidResetLink
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return ErrInvalidResetLink
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err := svc.tokenGen.verifyToken(usr, data.Token); err != nil {
		return ErrInvalidResetLink
	}

	if err := usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "updating user")
	}
	svc.logger.Info("Password reset", map[string]interface{}{"userId": usr.ID})
	return nil
}
