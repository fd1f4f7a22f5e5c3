package brochure

import (
	"time"

	"github.com/pkg/errors"

	"github.com/edubridge/backoffice/core"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// BrochureType classifies university programs, eg. "Undergraduate".
type BrochureType struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"` // UTC
}

type TypeWithCount struct {
	BrochureType
	UPCount int `json:"upCount" db:"up_count"`
}

// Category classifies brochures and may belong to a BrochureType.
type Category struct {
	ID        string        `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	TypeID    *string       `json:"brochureTypeId" db:"type_id"`
	Type      *BrochureType `json:"brochureType,omitempty" db:"-"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"` // UTC
}

// Program is a university program. It owns brochures and agent assignments.
type Program struct {
	ID        string        `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	TypeID    string        `json:"brochureTypeId" db:"type_id"`
	Type      *BrochureType `json:"brochureType,omitempty" db:"-"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt time.Time     `json:"updatedAt" db:"updated_at"` // UTC
}

type ProgramWithCount struct {
	Program
	BrochureCount int `json:"brochureCount" db:"brochure_count"`
}

// Brochure is a document attached to a Program.
// FileURL is relative to the storage root, eg. "/documents/brochure/oxford_mba-guide/mba-guide.pdf".
type Brochure struct {
	ID         string     `json:"id" db:"id"`
	Title      string     `json:"title" db:"title"`
	CategoryID *string    `json:"brochureCategoryId" db:"category_id"`
	Category   *Category  `json:"brochureCategory,omitempty" db:"-"`
	ProgramID  string     `json:"universityProgramId" db:"program_id"`
	FileURL    string     `json:"fileUrl" db:"file_url"`
	Name       string     `json:"name" db:"name"`
	URL        string     `json:"url" db:"url"`
	Date       *time.Time `json:"date" db:"date"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"` // UTC
}

func (b Brochure) HasFile() bool { return b.FileURL != "" }

// ProgramFilter narrows QueryPrograms. When Scoped is set only the programs of IDs are returned.
type ProgramFilter struct {
	TypeID string
	IDs    []string
	Scoped bool
}

type NewType struct {
	Name string `json:"name" form:"name" validate:"required,notblank,max=255"`
}

func (nt *NewType) Clean() {
	nt.Name = core.CleanString(nt.Name)
}

type UpdateType = NewType

type NewCategory struct {
	Name   string `json:"name" form:"name" validate:"required,notblank,max=255"`
	TypeID string `json:"brochureTypeId" form:"brochureTypeId" validate:"omitempty,uuid"`
}

func (nc *NewCategory) Clean() {
	nc.Name = core.CleanString(nc.Name)
	nc.TypeID = core.CleanString(nc.TypeID)
}

func (nc NewCategory) typeID() *string {
	if nc.TypeID == "" {
		return nil
	}
	id := nc.TypeID
	return &id
}

type UpdateCategory = NewCategory

type NewProgram struct {
	Name   string `json:"name" form:"name" validate:"required,notblank,max=255"`
	TypeID string `json:"brochureTypeId" form:"brochureTypeId" validate:"required,uuid"`
}

func (np *NewProgram) Clean() {
	np.Name = core.CleanString(np.Name)
	np.TypeID = core.CleanString(np.TypeID)
}

type UpdateProgram struct {
	Name   string `json:"name" form:"name" validate:"omitempty,notblank,max=255"`
	TypeID string `json:"brochureTypeId" form:"brochureTypeId" validate:"omitempty,uuid"`
}

func (up *UpdateProgram) Clean() {
	up.Name = core.CleanString(up.Name)
	up.TypeID = core.CleanString(up.TypeID)
}

// NewBrochure holds the fields of a brochure upload. The file itself travels separately.
type NewBrochure struct {
	Title      string `json:"title" form:"title" validate:"required,notblank,max=255"`
	CategoryID string `json:"brochureCategoryId" form:"brochureCategoryId" validate:"omitempty,uuid"`
	URL        string `json:"url" form:"url" validate:"omitempty,max=2048"`
	Date       string `json:"date" form:"date"`
}

func (nb *NewBrochure) Clean() {
	nb.Title = core.CleanString(nb.Title)
	nb.CategoryID = core.CleanString(nb.CategoryID)
	nb.URL = core.CleanString(nb.URL)
	nb.Date = core.CleanString(nb.Date)
}

// UpdateBrochure defines what may change on an existing Brochure. Empty fields are left untouched.
type UpdateBrochure struct {
	Title      string `json:"title" form:"title" validate:"omitempty,notblank,max=255"`
	CategoryID string `json:"brochureCategoryId" form:"brochureCategoryId" validate:"omitempty,uuid"`
	URL        string `json:"url" form:"url" validate:"omitempty,max=2048"`
	Date       string `json:"date" form:"date"`
}

func (ub *UpdateBrochure) Clean() {
	ub.Title = core.CleanString(ub.Title)
	ub.CategoryID = core.CleanString(ub.CategoryID)
	ub.URL = core.CleanString(ub.URL)
	ub.Date = core.CleanString(ub.Date)
}

// parseDate accepts "2006-01-02" or RFC 3339 dates. An empty string is no date.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, core.NewValidationError(
		errors.Errorf("invalid date %q", s),
		core.FieldError{Field: "date", Error: "date must be formatted as YYYY-MM-DD"},
	)
}
