package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/edubridge/backoffice/core"
	"github.com/edubridge/backoffice/core/user"
)

const userColumns = `id, first_name, last_name, email, company_name, role, status, password, created_at, updated_at, last_login`

var userOrderColumns = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
	"role":      "role",
	"status":    "status",
	"createdAt": "created_at",
	"lastLogin": "last_login",
}

type userRow struct {
	ID          string       `db:"id"`
	FirstName   string       `db:"first_name"`
	LastName    string       `db:"last_name"`
	Email       string       `db:"email"`
	CompanyName string       `db:"company_name"`
	Role        string       `db:"role"`
	Status      string       `db:"status"`
	Password    []byte       `db:"password"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	LastLogin   sql.NullTime `db:"last_login"`
}

func newUserRow(usr user.User) userRow {
	return userRow{
		ID:          usr.ID,
		FirstName:   usr.FirstName,
		LastName:    usr.LastName,
		Email:       usr.Email,
		CompanyName: usr.CompanyName,
		Role:        usr.Role,
		Status:      usr.Status,
		Password:    usr.PasswordHash,
		CreatedAt:   usr.CreatedAt,
		UpdatedAt:   usr.UpdatedAt,
		LastLogin:   sql.NullTime{Time: usr.LastLogin, Valid: !usr.LastLogin.IsZero()},
	}
}

func (r userRow) user() user.User {
	usr := user.User{
		ID:           r.ID,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		CompanyName:  r.CompanyName,
		Role:         r.Role,
		Status:       r.Status,
		PasswordHash: r.Password,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time.UTC()
	}
	return usr
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT COUNT(*) FROM users WHERE LOWER(email) = LOWER(?)`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND id NOT IN (?)`
		args = append(args, ids)
	}

	query, args, err := in(repo.db, query, args...)
	if err != nil {
		return persistenceErr("checking email uniqueness", err)
	}
	var count int
	if err = repo.db.GetContext(ctx, &count, query, args...); err != nil {
		return persistenceErr("checking email uniqueness", err)
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :first_name, :last_name, :email, :company_name, :role, :status, :password, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, q, newUserRow(usr)); err != nil {
		return user.User{}, persistenceErr("creating user", err)
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Search != "" {
			like := "%" + strings.ToLower(filter.Search) + "%"
			where = append(where, `(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?)`)
			args = append(args, like, like, like)
		}
		if filter.Status != "" {
			where = append(where, `status = ?`)
			args = append(args, filter.Status)
		}
		if len(filter.Roles) > 0 {
			where = append(where, `role IN (?)`)
			args = append(args, filter.Roles)
		}
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += orderBy(userOrderColumns, "email ASC", ordering...)

	query, args, err := in(repo.db, query, args...)
	if err != nil {
		return nil, persistenceErr("querying users", err)
	}
	var rows []userRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, persistenceErr("querying users", err)
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		row   userRow
		query string
		arg   string
	)
	switch {
	case filter.ID != "":
		query, arg = `SELECT `+userColumns+` FROM users WHERE id = $1`, filter.ID
	case filter.Email != "":
		query, arg = `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, filter.Email
	default:
		return user.User{}, user.ErrNotFound
	}
	if err := repo.db.GetContext(ctx, &row, query, arg); err != nil {
		return user.User{}, persistenceErr("getting user", err, user.ErrNotFound)
	}
	return row.user(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET
		first_name = :first_name, last_name = :last_name, email = :email, company_name = :company_name,
		role = :role, status = :status, password = :password, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, newUserRow(usr))
	if err != nil {
		return user.User{}, persistenceErr("updating user", err)
	}
	if rowsAffected(res) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := execIn(ctx, repo.db, `DELETE FROM users WHERE id IN (?)`, ids); err != nil {
		return persistenceErr("deleting users", err)
	}
	return nil
}
