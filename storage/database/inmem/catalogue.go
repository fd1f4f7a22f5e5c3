package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/edubridge/backoffice/core/brochure"
)

type catalogueRepository struct {
	db *DB
}

var _ brochure.Repository = (*catalogueRepository)(nil)

func NewCatalogueRepository(db *DB) brochure.Repository {
	return &catalogueRepository{db: db}
}

func byName(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// Brochure Types

func (repo *catalogueRepository) QueryTypes(_ context.Context) ([]brochure.TypeWithCount, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	counts := make(map[string]int)
	for _, p := range repo.db.programs {
		counts[p.TypeID]++
	}
	types := make([]brochure.TypeWithCount, 0, len(repo.db.types))
	for _, t := range repo.db.types {
		types = append(types, brochure.TypeWithCount{BrochureType: *t, UPCount: counts[t.ID]})
	}
	sort.Slice(types, func(i, j int) bool { return byName(types[i].Name, types[j].Name) })
	return types, nil
}

func (repo *catalogueRepository) GetType(_ context.Context, id string) (brochure.BrochureType, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.types[id]; ok {
		return *t, nil
	}
	return brochure.BrochureType{}, brochure.ErrTypeNotFound
}

func (repo *catalogueRepository) CreateType(_ context.Context, typ brochure.BrochureType) (brochure.BrochureType, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.types[typ.ID] = &typ
	return typ, nil
}

func (repo *catalogueRepository) UpdateType(_ context.Context, typ brochure.BrochureType) (brochure.BrochureType, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.types[typ.ID]; !ok {
		return brochure.BrochureType{}, brochure.ErrTypeNotFound
	}
	repo.db.types[typ.ID] = &typ
	return typ, nil
}

func (repo *catalogueRepository) DeleteType(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.types, id)
	for _, cat := range repo.db.categories {
		if cat.TypeID != nil && *cat.TypeID == id {
			cat.TypeID = nil
		}
	}
	return nil
}

// Brochure Categories

func (repo *catalogueRepository) withType(cat brochure.Category) brochure.Category {
	if cat.TypeID != nil {
		if t, ok := repo.db.types[*cat.TypeID]; ok {
			typ := *t
			cat.Type = &typ
		}
	}
	return cat
}

func (repo *catalogueRepository) QueryCategories(_ context.Context) ([]brochure.Category, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cats := make([]brochure.Category, 0, len(repo.db.categories))
	for _, cat := range repo.db.categories {
		cats = append(cats, repo.withType(*cat))
	}
	sort.Slice(cats, func(i, j int) bool { return byName(cats[i].Name, cats[j].Name) })
	return cats, nil
}

func (repo *catalogueRepository) GetCategory(_ context.Context, id string) (brochure.Category, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cat, ok := repo.db.categories[id]; ok {
		return repo.withType(*cat), nil
	}
	return brochure.Category{}, brochure.ErrCategoryNotFound
}

func (repo *catalogueRepository) CreateCategory(_ context.Context, cat brochure.Category) (brochure.Category, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cat.Type = nil
	repo.db.categories[cat.ID] = &cat
	return repo.withType(cat), nil
}

func (repo *catalogueRepository) UpdateCategory(_ context.Context, cat brochure.Category) (brochure.Category, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.categories[cat.ID]; !ok {
		return brochure.Category{}, brochure.ErrCategoryNotFound
	}
	cat.Type = nil
	repo.db.categories[cat.ID] = &cat
	return repo.withType(cat), nil
}

func (repo *catalogueRepository) DeleteCategory(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.categories, id)
	for _, b := range repo.db.brochures {
		if b.CategoryID != nil && *b.CategoryID == id {
			b.CategoryID = nil
		}
	}
	return nil
}

// University Programs

func (repo *catalogueRepository) withProgramType(p brochure.Program) brochure.Program {
	if t, ok := repo.db.types[p.TypeID]; ok {
		typ := *t
		p.Type = &typ
	}
	return p
}

func (repo *catalogueRepository) QueryPrograms(_ context.Context, filter brochure.ProgramFilter) ([]brochure.ProgramWithCount, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	allowed := toSet(filter.IDs)
	counts := make(map[string]int)
	for _, b := range repo.db.brochures {
		counts[b.ProgramID]++
	}

	programs := make([]brochure.ProgramWithCount, 0)
	for _, p := range repo.db.programs {
		if filter.TypeID != "" && p.TypeID != filter.TypeID {
			continue
		}
		if filter.Scoped {
			if _, ok := allowed[p.ID]; !ok {
				continue
			}
		}
		programs = append(programs, brochure.ProgramWithCount{
			Program:       repo.withProgramType(*p),
			BrochureCount: counts[p.ID],
		})
	}
	sort.Slice(programs, func(i, j int) bool { return byName(programs[i].Name, programs[j].Name) })
	return programs, nil
}

func (repo *catalogueRepository) GetProgram(_ context.Context, id string) (brochure.Program, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.programs[id]; ok {
		return repo.withProgramType(*p), nil
	}
	return brochure.Program{}, brochure.ErrProgramNotFound
}

func (repo *catalogueRepository) CreateProgram(_ context.Context, p brochure.Program) (brochure.Program, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.Type = nil
	repo.db.programs[p.ID] = &p
	return repo.withProgramType(p), nil
}

func (repo *catalogueRepository) UpdateProgram(_ context.Context, p brochure.Program) (brochure.Program, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.programs[p.ID]; !ok {
		return brochure.Program{}, brochure.ErrProgramNotFound
	}
	p.Type = nil
	repo.db.programs[p.ID] = &p
	return repo.withProgramType(p), nil
}

func (repo *catalogueRepository) DeleteProgram(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.programs, id)
	return nil
}

// Brochures

func (repo *catalogueRepository) withCategory(b brochure.Brochure) brochure.Brochure {
	if b.CategoryID != nil {
		if cat, ok := repo.db.categories[*b.CategoryID]; ok {
			c := repo.withType(*cat)
			b.Category = &c
		}
	}
	return b
}

func (repo *catalogueRepository) QueryBrochures(_ context.Context, programIDs ...string) ([]brochure.Brochure, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	programs := toSet(programIDs)
	brochures := make([]brochure.Brochure, 0)
	for _, b := range repo.db.brochures {
		if _, ok := programs[b.ProgramID]; ok {
			brochures = append(brochures, repo.withCategory(*b))
		}
	}
	sort.Slice(brochures, func(i, j int) bool {
		if brochures[i].CreatedAt.Equal(brochures[j].CreatedAt) {
			return brochures[i].ID < brochures[j].ID
		}
		return brochures[i].CreatedAt.Before(brochures[j].CreatedAt)
	})
	return brochures, nil
}

func (repo *catalogueRepository) GetBrochure(_ context.Context, id string) (brochure.Brochure, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if b, ok := repo.db.brochures[id]; ok {
		return repo.withCategory(*b), nil
	}
	return brochure.Brochure{}, brochure.ErrBrochureNotFound
}

func (repo *catalogueRepository) CreateBrochure(_ context.Context, b brochure.Brochure) (brochure.Brochure, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	b.Category = nil
	repo.db.brochures[b.ID] = &b
	return repo.withCategory(b), nil
}

func (repo *catalogueRepository) UpdateBrochure(_ context.Context, b brochure.Brochure) (brochure.Brochure, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.brochures[b.ID]; !ok {
		return brochure.Brochure{}, brochure.ErrBrochureNotFound
	}
	b.Category = nil
	repo.db.brochures[b.ID] = &b
	return repo.withCategory(b), nil
}

func (repo *catalogueRepository) DeleteBrochures(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.brochures, id)
	}
	return nil
}
