// Package inmemdb keeps every table in process memory. It backs the tests and local runs without Postgres.
package inmemdb

import (
	"sync"

	"github.com/edubridge/backoffice/core/assignment"
	"github.com/edubridge/backoffice/core/brochure"
	"github.com/edubridge/backoffice/core/user"
)

// DB guards all of its tables with a single lock so that joins read a consistent state.
type DB struct {
	mutex sync.RWMutex

	users       map[string]*user.User
	assignments map[string]*assignment.Assignment
	types       map[string]*brochure.BrochureType
	categories  map[string]*brochure.Category
	programs    map[string]*brochure.Program
	brochures   map[string]*brochure.Brochure
}

func Open() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		assignments: make(map[string]*assignment.Assignment),
		types:       make(map[string]*brochure.BrochureType),
		categories:  make(map[string]*brochure.Category),
		programs:    make(map[string]*brochure.Program),
		brochures:   make(map[string]*brochure.Brochure),
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
