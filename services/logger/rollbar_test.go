package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edubridge/backoffice/core"
)

func newTestLogger() (*RollbarLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())
	l.Enable(false)
	return l, &buf
}

func TestRollbarLogger(t *testing.T) {
	actor := core.Actor{UserID: "u-1", Email: "admin@example.com", Role: core.RoleAdmin}

	tests := []struct {
		name string
		log  func(l *RollbarLogger)
		want string
	}{
		{
			name: "message only",
			log:  func(l *RollbarLogger) { l.Debug("Starting") },
			want: "DEBUG Starting\n",
		},
		{
			name: "fields are sorted",
			log: func(l *RollbarLogger) {
				l.Info("University agents synced", map[string]interface{}{"universityId": "p-1", "added": 2, "removed": 0})
			},
			want: "INFO University agents synced added=2 removed=0 universityId=p-1\n",
		},
		{
			name: "error and fields",
			log: func(l *RollbarLogger) {
				l.Error("Error deleting brochure file", errors.New("remove x: permission denied"), map[string]interface{}{"fileUrl": "/x"})
			},
			want: "ERROR Error deleting brochure file error=\"remove x: permission denied\" fileUrl=/x\n",
		},
		{
			name: "only the first actor is kept",
			log: func(l *RollbarLogger) {
				l.Warn("Password reset requested", actor, core.Actor{UserID: "u-2"})
			},
			want: "WARNING Password reset requested user=u-1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newTestLogger()
			tt.log(l)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestFormatFields(t *testing.T) {
	assert.Empty(t, formatFields(nil))
	assert.Equal(t, []string{"a=1", "b=<nil>", "c=[x y]"}, formatFields(map[string]interface{}{
		"c": []string{"x", "y"},
		"a": 1,
		"b": nil,
	}))
}
