package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/edubridge/backoffice/core/brochure"
)

const (
	typeColumns     = `id, name, created_at, updated_at`
	categoryColumns = `id, name, type_id, created_at, updated_at`
	programColumns  = `id, name, type_id, created_at, updated_at`
	brochureColumns = `id, title, category_id, program_id, file_url, name, url, date, created_at, updated_at`
)

type catalogueRepository struct {
	db *sqlx.DB
}

var _ brochure.Repository = (*catalogueRepository)(nil)

func NewCatalogueRepository(db *sqlx.DB) brochure.Repository {
	return &catalogueRepository{db: db}
}

// Brochure Types

func (repo *catalogueRepository) typesByID(ctx context.Context) (map[string]brochure.BrochureType, error) {
	var types []brochure.BrochureType
	if err := repo.db.SelectContext(ctx, &types, `SELECT `+typeColumns+` FROM brochure_types`); err != nil {
		return nil, persistenceErr("querying brochure types", err)
	}
	byID := make(map[string]brochure.BrochureType, len(types))
	for _, t := range types {
		byID[t.ID] = t
	}
	return byID, nil
}

func (repo *catalogueRepository) QueryTypes(ctx context.Context) ([]brochure.TypeWithCount, error) {
	types := make([]brochure.TypeWithCount, 0)
	q := `SELECT t.id, t.name, t.created_at, t.updated_at, COUNT(p.id) AS up_count
		FROM brochure_types t
		LEFT JOIN university_programs p ON p.type_id = t.id
		GROUP BY t.id
		ORDER BY LOWER(t.name)`
	if err := repo.db.SelectContext(ctx, &types, q); err != nil {
		return nil, persistenceErr("querying brochure types", err)
	}
	return types, nil
}

func (repo *catalogueRepository) GetType(ctx context.Context, id string) (brochure.BrochureType, error) {
	var typ brochure.BrochureType
	if err := repo.db.GetContext(ctx, &typ, `SELECT `+typeColumns+` FROM brochure_types WHERE id = $1`, id); err != nil {
		return brochure.BrochureType{}, persistenceErr("getting brochure type", err, brochure.ErrTypeNotFound)
	}
	return typ, nil
}

func (repo *catalogueRepository) CreateType(ctx context.Context, typ brochure.BrochureType) (brochure.BrochureType, error) {
	q := `INSERT INTO brochure_types (` + typeColumns + `) VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, typ); err != nil {
		return brochure.BrochureType{}, persistenceErr("creating brochure type", err)
	}
	return typ, nil
}

func (repo *catalogueRepository) UpdateType(ctx context.Context, typ brochure.BrochureType) (brochure.BrochureType, error) {
	q := `UPDATE brochure_types SET name = :name, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, typ)
	if err != nil {
		return brochure.BrochureType{}, persistenceErr("updating brochure type", err)
	}
	if rowsAffected(res) == 0 {
		return brochure.BrochureType{}, brochure.ErrTypeNotFound
	}
	return typ, nil
}

func (repo *catalogueRepository) DeleteType(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM brochure_types WHERE id = $1`, id); err != nil {
		return persistenceErr("deleting brochure type", err)
	}
	return nil
}

// Brochure Categories

func attachType(cat *brochure.Category, types map[string]brochure.BrochureType) {
	if cat.TypeID == nil {
		return
	}
	if t, ok := types[*cat.TypeID]; ok {
		cat.Type = &t
	}
}

func (repo *catalogueRepository) QueryCategories(ctx context.Context) ([]brochure.Category, error) {
	cats := make([]brochure.Category, 0)
	q := `SELECT ` + categoryColumns + ` FROM brochure_categories ORDER BY LOWER(name)`
	if err := repo.db.SelectContext(ctx, &cats, q); err != nil {
		return nil, persistenceErr("querying brochure categories", err)
	}
	types, err := repo.typesByID(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cats {
		attachType(&cats[i], types)
	}
	return cats, nil
}

func (repo *catalogueRepository) GetCategory(ctx context.Context, id string) (brochure.Category, error) {
	var cat brochure.Category
	q := `SELECT ` + categoryColumns + ` FROM brochure_categories WHERE id = $1`
	if err := repo.db.GetContext(ctx, &cat, q, id); err != nil {
		return brochure.Category{}, persistenceErr("getting brochure category", err, brochure.ErrCategoryNotFound)
	}
	return repo.withType(ctx, cat)
}

func (repo *catalogueRepository) withType(ctx context.Context, cat brochure.Category) (brochure.Category, error) {
	cat.Type = nil
	if cat.TypeID == nil {
		return cat, nil
	}
	typ, err := repo.GetType(ctx, *cat.TypeID)
	if err != nil {
		if err == brochure.ErrTypeNotFound {
			return cat, nil
		}
		return brochure.Category{}, err
	}
	cat.Type = &typ
	return cat, nil
}

func (repo *catalogueRepository) CreateCategory(ctx context.Context, cat brochure.Category) (brochure.Category, error) {
	q := `INSERT INTO brochure_categories (` + categoryColumns + `) VALUES (:id, :name, :type_id, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, cat); err != nil {
		return brochure.Category{}, persistenceErr("creating brochure category", err)
	}
	return repo.withType(ctx, cat)
}

func (repo *catalogueRepository) UpdateCategory(ctx context.Context, cat brochure.Category) (brochure.Category, error) {
	q := `UPDATE brochure_categories SET name = :name, type_id = :type_id, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, cat)
	if err != nil {
		return brochure.Category{}, persistenceErr("updating brochure category", err)
	}
	if rowsAffected(res) == 0 {
		return brochure.Category{}, brochure.ErrCategoryNotFound
	}
	return repo.withType(ctx, cat)
}

func (repo *catalogueRepository) DeleteCategory(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM brochure_categories WHERE id = $1`, id); err != nil {
		return persistenceErr("deleting brochure category", err)
	}
	return nil
}

// University Programs

func (repo *catalogueRepository) QueryPrograms(ctx context.Context, filter brochure.ProgramFilter) ([]brochure.ProgramWithCount, error) {
	programs := make([]brochure.ProgramWithCount, 0)
	if filter.Scoped && len(filter.IDs) == 0 {
		return programs, nil
	}

	q := `SELECT p.id, p.name, p.type_id, p.created_at, p.updated_at, COUNT(b.id) AS brochure_count
		FROM university_programs p
		LEFT JOIN brochures b ON b.program_id = p.id
		WHERE TRUE`
	var args []interface{}
	if filter.TypeID != "" {
		q += ` AND p.type_id = ?`
		args = append(args, filter.TypeID)
	}
	if filter.Scoped {
		q += ` AND p.id IN (?)`
		args = append(args, filter.IDs)
	}
	q += ` GROUP BY p.id ORDER BY LOWER(p.name)`

	q, args, err := in(repo.db, q, args...)
	if err != nil {
		return nil, persistenceErr("querying university programs", err)
	}
	if err = repo.db.SelectContext(ctx, &programs, q, args...); err != nil {
		return nil, persistenceErr("querying university programs", err)
	}

	types, err := repo.typesByID(ctx)
	if err != nil {
		return nil, err
	}
	for i := range programs {
		if t, ok := types[programs[i].TypeID]; ok {
			t := t
			programs[i].Type = &t
		}
	}
	return programs, nil
}

func (repo *catalogueRepository) withProgramType(ctx context.Context, p brochure.Program) (brochure.Program, error) {
	p.Type = nil
	typ, err := repo.GetType(ctx, p.TypeID)
	if err != nil {
		if err == brochure.ErrTypeNotFound {
			return p, nil
		}
		return brochure.Program{}, err
	}
	p.Type = &typ
	return p, nil
}

func (repo *catalogueRepository) GetProgram(ctx context.Context, id string) (brochure.Program, error) {
	var p brochure.Program
	q := `SELECT ` + programColumns + ` FROM university_programs WHERE id = $1`
	if err := repo.db.GetContext(ctx, &p, q, id); err != nil {
		return brochure.Program{}, persistenceErr("getting university program", err, brochure.ErrProgramNotFound)
	}
	return repo.withProgramType(ctx, p)
}

func (repo *catalogueRepository) CreateProgram(ctx context.Context, p brochure.Program) (brochure.Program, error) {
	q := `INSERT INTO university_programs (` + programColumns + `) VALUES (:id, :name, :type_id, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, p); err != nil {
		return brochure.Program{}, persistenceErr("creating university program", err)
	}
	return repo.withProgramType(ctx, p)
}

func (repo *catalogueRepository) UpdateProgram(ctx context.Context, p brochure.Program) (brochure.Program, error) {
	q := `UPDATE university_programs SET name = :name, type_id = :type_id, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, p)
	if err != nil {
		return brochure.Program{}, persistenceErr("updating university program", err)
	}
	if rowsAffected(res) == 0 {
		return brochure.Program{}, brochure.ErrProgramNotFound
	}
	return repo.withProgramType(ctx, p)
}

func (repo *catalogueRepository) DeleteProgram(ctx context.Context, id string) error {
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM university_programs WHERE id = $1`, id); err != nil {
		return persistenceErr("deleting university program", err)
	}
	return nil
}

// Brochures

func (repo *catalogueRepository) withCategory(ctx context.Context, b brochure.Brochure) (brochure.Brochure, error) {
	b.Category = nil
	if b.CategoryID == nil {
		return b, nil
	}
	cat, err := repo.GetCategory(ctx, *b.CategoryID)
	if err != nil {
		if err == brochure.ErrCategoryNotFound {
			return b, nil
		}
		return brochure.Brochure{}, err
	}
	b.Category = &cat
	return b, nil
}

func (repo *catalogueRepository) QueryBrochures(ctx context.Context, programIDs ...string) ([]brochure.Brochure, error) {
	brochures := make([]brochure.Brochure, 0)
	if len(programIDs) == 0 {
		return brochures, nil
	}

	q, args, err := in(repo.db, `SELECT `+brochureColumns+` FROM brochures WHERE program_id IN (?) ORDER BY created_at, id`, programIDs)
	if err != nil {
		return nil, persistenceErr("querying brochures", err)
	}
	if err = repo.db.SelectContext(ctx, &brochures, q, args...); err != nil {
		return nil, persistenceErr("querying brochures", err)
	}

	cats, err := repo.QueryCategories(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]brochure.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}
	for i := range brochures {
		if id := brochures[i].CategoryID; id != nil {
			if c, ok := byID[*id]; ok {
				c := c
				brochures[i].Category = &c
			}
		}
	}
	return brochures, nil
}

func (repo *catalogueRepository) GetBrochure(ctx context.Context, id string) (brochure.Brochure, error) {
	var b brochure.Brochure
	q := `SELECT ` + brochureColumns + ` FROM brochures WHERE id = $1`
	if err := repo.db.GetContext(ctx, &b, q, id); err != nil {
		return brochure.Brochure{}, persistenceErr("getting brochure", err, brochure.ErrBrochureNotFound)
	}
	return repo.withCategory(ctx, b)
}

func (repo *catalogueRepository) CreateBrochure(ctx context.Context, b brochure.Brochure) (brochure.Brochure, error) {
	q := `INSERT INTO brochures (` + brochureColumns + `)
		VALUES (:id, :title, :category_id, :program_id, :file_url, :name, :url, :date, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, b); err != nil {
		return brochure.Brochure{}, persistenceErr("creating brochure", err)
	}
	return repo.withCategory(ctx, b)
}

func (repo *catalogueRepository) UpdateBrochure(ctx context.Context, b brochure.Brochure) (brochure.Brochure, error) {
	q := `UPDATE brochures SET
		title = :title, category_id = :category_id, program_id = :program_id, file_url = :file_url,
		name = :name, url = :url, date = :date, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, b)
	if err != nil {
		return brochure.Brochure{}, persistenceErr("updating brochure", err)
	}
	if rowsAffected(res) == 0 {
		return brochure.Brochure{}, brochure.ErrBrochureNotFound
	}
	return repo.withCategory(ctx, b)
}

func (repo *catalogueRepository) DeleteBrochures(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := execIn(ctx, repo.db, `DELETE FROM brochures WHERE id IN (?)`, ids); err != nil {
		return persistenceErr("deleting brochures", err)
	}
	return nil
}
