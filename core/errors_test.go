package core

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
		msg  string
	}{
		{
			name: "validation with fields",
			err:  NewValidationError(nil, FieldError{Field: "agentIds", Error: "Agent IDs must be an array"}),
			is:   IsValidation,
			msg:  "agentIds: Agent IDs must be an array",
		},
		{name: "validation wrapping", err: NewValidationError(errors.New("bad link")), is: IsValidation, msg: "bad link"},
		{name: "not found", err: NewNotFoundError("brochure"), is: IsNotFound, msg: "brochure not found"},
		{name: "forbidden", err: NewForbiddenError("not assigned"), is: IsForbidden},
		{name: "persistence", err: NewPersistenceError("insert assignments", errors.New("conn reset")), is: IsPersistence, msg: "insert assignments: conn reset"},
		{name: "file system", err: NewFileSystemError("rename", "/temp/a.pdf", os.ErrNotExist), is: IsFileSystem},
		{name: "shutdown", err: NewShutdownError("integrity issue"), is: IsShutdown, msg: "integrity issue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(tt.err))
			assert.True(t, tt.is(errors.Wrap(tt.err, "handler")), "survives wrapping")
			if tt.msg != "" {
				assert.Equal(t, tt.msg, tt.err.Error())
			}
		})
	}

	assert.False(t, IsNotFound(NewForbiddenError("x")))
	assert.True(t, errors.Is(NewFileSystemError("rename", "/a", os.ErrNotExist), os.ErrNotExist))
}
