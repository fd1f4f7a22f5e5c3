package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/edubridge/backoffice/core"
)

// Statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

var (
	AllStatuses = []string{StatusActive, StatusInactive, StatusPending}

	rolePriorities = map[string]int{
		core.RoleSuperAdmin: 30,
		core.RoleAdmin:      21,
		core.RoleAgent:      11,
		core.RoleStudent:    1,
	}

	Roles = []Role{
		{Name: "Student", Value: core.RoleStudent},
		{Name: "Agent", Value: core.RoleAgent},
		{Name: "Admin", Value: core.RoleAdmin},
		{Name: "Super Admin", Value: core.RoleSuperAdmin},
	}
)

func RolePriority(role string) int {
	return rolePriorities[strings.ToUpper(role)]
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is any account of the back-office. Agents are users with the AGENT role.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	CompanyName  string    `json:"companyName,omitempty"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
	LastLogin    time.Time `json:"lastLogin"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) IsActive() bool { return u.Status == StatusActive }
func (u User) IsAdmin() bool  { return core.IsAdminRole(u.Role) }
func (u User) IsAgent() bool  { return strings.EqualFold(u.Role, core.RoleAgent) }

// Actor returns the authenticated context value for u.
func (u User) Actor() core.Actor {
	return core.Actor{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	FirstName       string `json:"firstName" validate:"required,notblank"`
	LastName        string `json:"lastName"`
	Email           string `json:"email" validate:"required,email"`
	CompanyName     string `json:"companyName"`
	Role            string `json:"role" validate:"required,allroles"`
	Status          string `json:"status" validate:"omitempty,allstatuses"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Clean() {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.CompanyName = core.CleanString(nu.CompanyName)
	nu.Role = strings.ToUpper(core.CleanString(nu.Role))
	nu.Status = core.CleanString(nu.Status, true /* lower */)
	if nu.Status == "" {
		nu.Status = StatusActive
	}
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	FirstName       string  `json:"firstName"`
	LastName        *string `json:"lastName"`
	Email           string  `json:"email" validate:"omitempty,email"`
	CompanyName     *string `json:"companyName"`
	Role            string  `json:"role" validate:"omitempty,allroles"`
	Status          string  `json:"status" validate:"omitempty,allstatuses"`
	Password        string  `json:"password" validate:"omitempty"`
	PasswordConfirm string  `json:"passwordConfirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Clean() {
	uu.FirstName = core.CleanString(uu.FirstName)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
	uu.Role = strings.ToUpper(core.CleanString(uu.Role))
	uu.Status = core.CleanString(uu.Status, true /* lower */)
}

// Apply merges the set fields of uu into usr.
func (uu UpdateUser) Apply(usr User) User {
	if uu.FirstName != "" {
		usr.FirstName = uu.FirstName
	}
	if uu.LastName != nil {
		usr.LastName = core.CleanString(*uu.LastName)
	}
	if uu.Email != "" {
		usr.Email = uu.Email
	}
	if uu.CompanyName != nil {
		usr.CompanyName = core.CleanString(*uu.CompanyName)
	}
	if uu.Role != "" {
		usr.Role = uu.Role
	}
	if uu.Status != "" {
		usr.Status = uu.Status
	}
	return usr
}

type ResetUserPassword struct {
	Token           string `json:"token" validate:"required"`
	UID             string `json:"uid" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

type GetFilter struct {
	ID    string
	Email string
}

type QueryFilter struct {
	Search string   `query:"search"`
	Roles  []string `query:"role"`
	Status string   `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	for i, r := range qf.Roles {
		qf.Roles[i] = strings.ToUpper(core.CleanString(r))
	}
}
