package brochure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanProgramDeletion(t *testing.T) {
	p := Program{ID: "p1"}
	brochures := []Brochure{
		{ID: "b1", ProgramID: "p1", FileURL: "/documents/brochure/a_b/b.pdf"},
		{ID: "b2", ProgramID: "p1"},
		{ID: "b3", ProgramID: "p2", FileURL: "/documents/brochure/c_d/d.pdf"},
	}

	got := PlanProgramDeletion(p, brochures)
	assert.Equal(t, ProgramCascade{
		ProgramID:   "p1",
		Files:       []string{"/documents/brochure/a_b/b.pdf"},
		BrochureIDs: []string{"b1", "b2"},
	}, got)

	assert.Equal(t, ProgramCascade{ProgramID: "p1"}, PlanProgramDeletion(p, nil))
}

func TestPlanTypeDeletion(t *testing.T) {
	typ := BrochureType{ID: "t1"}
	programs := []Program{
		{ID: "p1", TypeID: "t1"},
		{ID: "p2", TypeID: "t2"},
		{ID: "p3", TypeID: "t1"},
	}
	byProgram := map[string][]Brochure{
		"p1": {{ID: "b1", ProgramID: "p1", FileURL: "/f1.pdf"}},
		"p2": {{ID: "b2", ProgramID: "p2", FileURL: "/f2.pdf"}},
	}

	got := PlanTypeDeletion(typ, programs, byProgram)
	assert.Equal(t, "t1", got.TypeID)
	assert.Equal(t, []string{"p1", "p3"}, got.ProgramIDs())
	assert.Equal(t, []ProgramCascade{
		{ProgramID: "p1", Files: []string{"/f1.pdf"}, BrochureIDs: []string{"b1"}},
		{ProgramID: "p3"},
	}, got.Programs)
}
