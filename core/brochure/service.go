package brochure

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edubridge/backoffice/core"
)

var (
	// errors
	ErrTypeNotFound     = core.NewNotFoundError("brochure type")
	ErrCategoryNotFound = core.NewNotFoundError("brochure category")
	ErrProgramNotFound  = core.NewNotFoundError("university program")
	ErrBrochureNotFound = core.NewNotFoundError("brochure")
	ErrNotAssigned      = core.NewForbiddenError("You are not assigned to this university program")
)

type (
	Repository interface {
		QueryTypes(ctx context.Context) ([]TypeWithCount, error)
		GetType(ctx context.Context, id string) (BrochureType, error)
		CreateType(ctx context.Context, typ BrochureType) (BrochureType, error)
		UpdateType(ctx context.Context, typ BrochureType) (BrochureType, error)
		DeleteType(ctx context.Context, id string) error

		// QueryCategories returns the categories with their Type set.
		QueryCategories(ctx context.Context) ([]Category, error)
		GetCategory(ctx context.Context, id string) (Category, error)
		CreateCategory(ctx context.Context, cat Category) (Category, error)
		UpdateCategory(ctx context.Context, cat Category) (Category, error)
		DeleteCategory(ctx context.Context, id string) error

		// QueryPrograms returns the programs sorted by name, with their Type set.
		QueryPrograms(ctx context.Context, filter ProgramFilter) ([]ProgramWithCount, error)
		GetProgram(ctx context.Context, id string) (Program, error)
		CreateProgram(ctx context.Context, p Program) (Program, error)
		UpdateProgram(ctx context.Context, p Program) (Program, error)
		DeleteProgram(ctx context.Context, id string) error

		// QueryBrochures returns the brochures of programIDs with their Category set.
		QueryBrochures(ctx context.Context, programIDs ...string) ([]Brochure, error)
		GetBrochure(ctx context.Context, id string) (Brochure, error)
		CreateBrochure(ctx context.Context, b Brochure) (Brochure, error)
		UpdateBrochure(ctx context.Context, b Brochure) (Brochure, error)
		DeleteBrochures(ctx context.Context, ids ...string) error
	}

	// Assignments is the view of the agent assignments the catalogue needs.
	Assignments interface {
		IsAssigned(ctx context.Context, agentID, programID string) (bool, error)
		ProgramIDsForAgent(ctx context.Context, agentID string) ([]string, error)
		DeleteForPrograms(ctx context.Context, programIDs ...string) error
	}

	Service interface {
		ListTypes(ctx context.Context) ([]TypeWithCount, error)
		CreateType(ctx context.Context, nt NewType) (BrochureType, error)
		UpdateType(ctx context.Context, id string, ut UpdateType) (BrochureType, error)
		DeleteType(ctx context.Context, id string) error

		ListCategories(ctx context.Context) ([]Category, error)
		CreateCategory(ctx context.Context, nc NewCategory) (Category, error)
		UpdateCategory(ctx context.Context, id string, uc UpdateCategory) (Category, error)
		DeleteCategory(ctx context.Context, id string) error

		GetProgram(ctx context.Context, actor core.Actor, id string) (Program, error)
		ListPrograms(ctx context.Context, actor core.Actor) ([]ProgramWithCount, error)
		ListProgramsByType(ctx context.Context, actor core.Actor, typeID string) ([]ProgramWithCount, error)
		CreateProgram(ctx context.Context, np NewProgram) (Program, error)
		UpdateProgram(ctx context.Context, id string, up UpdateProgram) (Program, error)
		DeleteProgram(ctx context.Context, id string) error

		ListBrochures(ctx context.Context, actor core.Actor, programID string) ([]Brochure, error)
		CreateBrochure(ctx context.Context, programID string, nb NewBrochure, upload *Upload) (Brochure, error)
		UpdateBrochure(ctx context.Context, id string, ub UpdateBrochure, upload *Upload) (Brochure, error)
		DeleteBrochure(ctx context.Context, id string) error

		SaveUpload(r io.Reader, originalName string) (Upload, error)
		DiscardUpload(upload Upload)
	}

	service struct {
		repo        Repository
		assignments Assignments
		files       *FileManager
		validator   *core.Validator
		logger      core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(
	repo Repository,
	assignments Assignments,
	files *FileManager,
	validator *core.Validator,
	logger core.Logger,
) Service {
	return &service{
		repo:        repo,
		assignments: assignments,
		files:       files,
		validator:   validator,
		logger:      logger,
	}
}

// Brochure Types

func (svc *service) ListTypes(ctx context.Context) ([]TypeWithCount, error) {
	return svc.repo.QueryTypes(ctx)
}

func (svc *service) CreateType(ctx context.Context, nt NewType) (BrochureType, error) {
	nt.Clean()
	if err := svc.validator.Struct(nt); err != nil {
		return BrochureType{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateType(ctx, BrochureType{
		ID:        uuid.New().String(),
		Name:      nt.Name,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) UpdateType(ctx context.Context, id string, ut UpdateType) (BrochureType, error) {
	ut.Clean()
	if err := svc.validator.Struct(ut); err != nil {
		return BrochureType{}, err
	}
	typ, err := svc.repo.GetType(ctx, id)
	if err != nil {
		return BrochureType{}, err
	}
	typ.Name = ut.Name
	typ.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateType(ctx, typ)
}

// DeleteType runs the cascade of every program of the type before deleting it.
func (svc *service) DeleteType(ctx context.Context, id string) error {
	typ, err := svc.repo.GetType(ctx, id)
	if err != nil {
		return err
	}

	programs, err := svc.repo.QueryPrograms(ctx, ProgramFilter{TypeID: typ.ID})
	if err != nil {
		return errors.Wrap(err, "querying type programs")
	}
	pps := make([]Program, 0, len(programs))
	programIDs := make([]string, 0, len(programs))
	for _, p := range programs {
		pps = append(pps, p.Program)
		programIDs = append(programIDs, p.ID)
	}

	byProgram := make(map[string][]Brochure, len(programs))
	if len(programIDs) > 0 {
		brochures, err := svc.repo.QueryBrochures(ctx, programIDs...)
		if err != nil {
			return errors.Wrap(err, "querying type brochures")
		}
		for _, b := range brochures {
			byProgram[b.ProgramID] = append(byProgram[b.ProgramID], b)
		}
	}

	cascade := PlanTypeDeletion(typ, pps, byProgram)
	for _, pc := range cascade.Programs {
		if err := svc.runProgramCascade(ctx, pc); err != nil {
			return err
		}
	}
	if err := svc.repo.DeleteType(ctx, typ.ID); err != nil {
		return errors.Wrap(err, "deleting brochure type")
	}
	svc.logger.Info("Brochure type deleted", map[string]interface{}{
		"typeId":   typ.ID,
		"programs": len(cascade.Programs),
	})
	return nil
}

// Brochure Categories

func (svc *service) ListCategories(ctx context.Context) ([]Category, error) {
	return svc.repo.QueryCategories(ctx)
}

func (svc *service) checkType(ctx context.Context, typeID string) error {
	if typeID == "" {
		return nil
	}
	if _, err := svc.repo.GetType(ctx, typeID); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "brochureTypeId", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) CreateCategory(ctx context.Context, nc NewCategory) (Category, error) {
	nc.Clean()
	if err := svc.validator.Struct(nc); err != nil {
		return Category{}, err
	}
	if err := svc.checkType(ctx, nc.TypeID); err != nil {
		return Category{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateCategory(ctx, Category{
		ID:        uuid.New().String(),
		Name:      nc.Name,
		TypeID:    nc.typeID(),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) UpdateCategory(ctx context.Context, id string, uc UpdateCategory) (Category, error) {
	uc.Clean()
	if err := svc.validator.Struct(uc); err != nil {
		return Category{}, err
	}
	cat, err := svc.repo.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if err := svc.checkType(ctx, uc.TypeID); err != nil {
		return Category{}, err
	}
	cat.Name = uc.Name
	cat.TypeID = uc.typeID()
	cat.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCategory(ctx, cat)
}

func (svc *service) DeleteCategory(ctx context.Context, id string) error {
	if _, err := svc.repo.GetCategory(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteCategory(ctx, id)
}

// University Programs

// GetProgram returns a program. Agents only see the programs they are assigned to.
func (svc *service) GetProgram(ctx context.Context, actor core.Actor, id string) (Program, error) {
	id = core.CleanString(id)
	if err := svc.checkAssigned(ctx, actor, id); err != nil {
		return Program{}, err
	}
	return svc.repo.GetProgram(ctx, id)
}

func (svc *service) checkAssigned(ctx context.Context, actor core.Actor, programID string) error {
	if !actor.IsAgent() {
		return nil
	}
	ok, err := svc.assignments.IsAssigned(ctx, actor.UserID, programID)
	if err != nil {
		return errors.Wrap(err, "checking agent assignment")
	}
	if !ok {
		return ErrNotAssigned
	}
	return nil
}

func (svc *service) ListPrograms(ctx context.Context, actor core.Actor) ([]ProgramWithCount, error) {
	return svc.listPrograms(ctx, actor, ProgramFilter{})
}

func (svc *service) ListProgramsByType(ctx context.Context, actor core.Actor, typeID string) ([]ProgramWithCount, error) {
	return svc.listPrograms(ctx, actor, ProgramFilter{TypeID: core.CleanString(typeID)})
}

// listPrograms restricts agents to the programs they are assigned to.
func (svc *service) listPrograms(ctx context.Context, actor core.Actor, filter ProgramFilter) ([]ProgramWithCount, error) {
	if actor.IsAgent() {
		ids, err := svc.assignments.ProgramIDsForAgent(ctx, actor.UserID)
		if err != nil {
			return nil, errors.Wrap(err, "querying agent programs")
		}
		filter.IDs = ids
		filter.Scoped = true
	}
	return svc.repo.QueryPrograms(ctx, filter)
}

func (svc *service) CreateProgram(ctx context.Context, np NewProgram) (Program, error) {
	np.Clean()
	if err := svc.validator.Struct(np); err != nil {
		return Program{}, err
	}
	if err := svc.checkType(ctx, np.TypeID); err != nil {
		return Program{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateProgram(ctx, Program{
		ID:        uuid.New().String(),
		Name:      np.Name,
		TypeID:    np.TypeID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) UpdateProgram(ctx context.Context, id string, up UpdateProgram) (Program, error) {
	up.Clean()
	if err := svc.validator.Struct(up); err != nil {
		return Program{}, err
	}
	p, err := svc.repo.GetProgram(ctx, id)
	if err != nil {
		return Program{}, err
	}
	if err := svc.checkType(ctx, up.TypeID); err != nil {
		return Program{}, err
	}
	if up.Name != "" {
		p.Name = up.Name
	}
	if up.TypeID != "" {
		p.TypeID = up.TypeID
	}
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateProgram(ctx, p)
}

// DeleteProgram removes the program with its brochures, their files and its assignments.
func (svc *service) DeleteProgram(ctx context.Context, id string) error {
	p, err := svc.repo.GetProgram(ctx, id)
	if err != nil {
		return err
	}
	brochures, err := svc.repo.QueryBrochures(ctx, p.ID)
	if err != nil {
		return errors.Wrap(err, "querying program brochures")
	}
	cascade := PlanProgramDeletion(p, brochures)
	if err := svc.runProgramCascade(ctx, cascade); err != nil {
		return err
	}
	svc.logger.Info("University program deleted", map[string]interface{}{
		"universityId": p.ID,
		"brochures":    len(cascade.BrochureIDs),
	})
	return nil
}

func (svc *service) runProgramCascade(ctx context.Context, pc ProgramCascade) error {
	for _, fileURL := range pc.Files {
		svc.files.Discard(fileURL)
	}
	if len(pc.BrochureIDs) > 0 {
		if err := svc.repo.DeleteBrochures(ctx, pc.BrochureIDs...); err != nil {
			return errors.Wrap(err, "deleting program brochures")
		}
	}
	if err := svc.assignments.DeleteForPrograms(ctx, pc.ProgramID); err != nil {
		return errors.Wrap(err, "deleting program assignments")
	}
	if err := svc.repo.DeleteProgram(ctx, pc.ProgramID); err != nil {
		return errors.Wrap(err, "deleting program")
	}
	return nil
}

// Brochures

// ListBrochures returns the brochures of a program. Agents must be assigned to it.
func (svc *service) ListBrochures(ctx context.Context, actor core.Actor, programID string) ([]Brochure, error) {
	programID = core.CleanString(programID)
	if err := svc.checkAssigned(ctx, actor, programID); err != nil {
		return nil, err
	}
	return svc.repo.QueryBrochures(ctx, programID)
}

func (svc *service) checkCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	if _, err := svc.repo.GetCategory(ctx, categoryID); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "brochureCategoryId", Error: err.Error()})
		}
		return err
	}
	return nil
}

// programName returns nil when the program does not exist, which makes Place fall back to TempDir.
func (svc *service) programName(ctx context.Context, programID string) (*string, error) {
	p, err := svc.repo.GetProgram(ctx, programID)
	if err != nil {
		if core.IsNotFound(err) {
			svc.logger.Warn("University program not found, keeping upload in temp", map[string]interface{}{
				"universityId": programID,
			})
			return nil, nil
		}
		return nil, errors.Wrap(err, "finding program")
	}
	return &p.Name, nil
}

// place moves upload for the brochure b and sets its file fields.
func (svc *service) place(ctx context.Context, b *Brochure, upload Upload, keepURL bool) error {
	name, err := svc.programName(ctx, b.ProgramID)
	if err != nil {
		return err
	}
	stored, err := svc.files.Place(upload, name, b.Title)
	if err != nil {
		return errors.Wrap(err, "placing upload")
	}
	b.FileURL = stored.FileURL
	b.Name = stored.Name
	if !keepURL {
		b.URL = stored.FileURL
	}
	return nil
}

// CreateBrochure stores the brochure of programID; upload is optional.
func (svc *service) CreateBrochure(ctx context.Context, programID string, nb NewBrochure, upload *Upload) (Brochure, error) {
	nb.Clean()
	if err := svc.validator.Struct(nb); err != nil {
		return Brochure{}, err
	}
	date, err := parseDate(nb.Date)
	if err != nil {
		return Brochure{}, err
	}
	if err := svc.checkCategory(ctx, nb.CategoryID); err != nil {
		return Brochure{}, err
	}

	now := time.Now().UTC()
	b := Brochure{
		ID:        uuid.New().String(),
		Title:     nb.Title,
		ProgramID: core.CleanString(programID),
		URL:       nb.URL,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nb.CategoryID != "" {
		b.CategoryID = &nb.CategoryID
	}

	if upload != nil {
		if err := svc.place(ctx, &b, *upload, nb.URL != ""); err != nil {
			return Brochure{}, err
		}
	}

	created, err := svc.repo.CreateBrochure(ctx, b)
	if err != nil {
		if upload != nil {
			svc.files.Discard(b.FileURL)
		}
		return Brochure{}, errors.Wrap(err, "creating brochure")
	}
	return created, nil
}

// UpdateBrochure applies ub. A new upload replaces the stored file, the old one is cleaned up.
func (svc *service) UpdateBrochure(ctx context.Context, id string, ub UpdateBrochure, upload *Upload) (Brochure, error) {
	ub.Clean()
	if err := svc.validator.Struct(ub); err != nil {
		return Brochure{}, err
	}
	date, err := parseDate(ub.Date)
	if err != nil {
		return Brochure{}, err
	}
	if err := svc.checkCategory(ctx, ub.CategoryID); err != nil {
		return Brochure{}, err
	}

	b, err := svc.repo.GetBrochure(ctx, id)
	if err != nil {
		return Brochure{}, err
	}
	oldFileURL := b.FileURL

	if ub.Title != "" {
		b.Title = ub.Title
	}
	if ub.CategoryID != "" {
		b.CategoryID = &ub.CategoryID
	}
	if ub.URL != "" {
		b.URL = ub.URL
	}
	if date != nil {
		b.Date = date
	}

	if upload != nil {
		if err := svc.place(ctx, &b, *upload, ub.URL != ""); err != nil {
			return Brochure{}, err
		}
	}
	b.UpdatedAt = time.Now().UTC()

	updated, err := svc.repo.UpdateBrochure(ctx, b)
	if err != nil {
		if upload != nil {
			svc.files.Discard(b.FileURL)
		}
		return Brochure{}, errors.Wrap(err, "updating brochure")
	}
	if upload != nil && oldFileURL != "" && oldFileURL != updated.FileURL {
		svc.files.Discard(oldFileURL)
	}
	return updated, nil
}

func (svc *service) DeleteBrochure(ctx context.Context, id string) error {
	b, err := svc.repo.GetBrochure(ctx, id)
	if err != nil {
		return err
	}
	svc.files.Discard(b.FileURL)
	if err := svc.repo.DeleteBrochures(ctx, b.ID); err != nil {
		return errors.Wrap(err, "deleting brochure")
	}
	return nil
}

func (svc *service) SaveUpload(r io.Reader, originalName string) (Upload, error) {
	return svc.files.SaveTemp(r, originalName)
}

func (svc *service) DiscardUpload(upload Upload) {
	svc.files.DiscardUpload(upload)
}
