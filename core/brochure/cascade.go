package brochure

// ProgramCascade lists what deleting a program removes, in execution order:
// the brochure files, the brochure records, the program assignments and the program.
type ProgramCascade struct {
	ProgramID   string
	Files       []string
	BrochureIDs []string
}

// TypeCascade lists the program cascades run before a brochure type is deleted.
type TypeCascade struct {
	TypeID   string
	Programs []ProgramCascade
}

func (tc TypeCascade) ProgramIDs() []string {
	ids := make([]string, 0, len(tc.Programs))
	for _, pc := range tc.Programs {
		ids = append(ids, pc.ProgramID)
	}
	return ids
}

// PlanProgramDeletion builds the cascade of program. Brochures of other programs are ignored.
func PlanProgramDeletion(program Program, brochures []Brochure) ProgramCascade {
	pc := ProgramCascade{ProgramID: program.ID}
	for _, b := range brochures {
		if b.ProgramID != program.ID {
			continue
		}
		pc.BrochureIDs = append(pc.BrochureIDs, b.ID)
		if b.HasFile() {
			pc.Files = append(pc.Files, b.FileURL)
		}
	}
	return pc
}

// PlanTypeDeletion builds the cascade of typ over its programs.
// brochuresByProgram is keyed by program ID; programs of other types are ignored.
func PlanTypeDeletion(typ BrochureType, programs []Program, brochuresByProgram map[string][]Brochure) TypeCascade {
	tc := TypeCascade{TypeID: typ.ID}
	for _, p := range programs {
		if p.TypeID != typ.ID {
			continue
		}
		tc.Programs = append(tc.Programs, PlanProgramDeletion(p, brochuresByProgram[p.ID]))
	}
	return tc
}
