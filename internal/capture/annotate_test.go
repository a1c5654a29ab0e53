package capture

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAnnotations(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "inline after code",
			text: "x = 1  # LEARN: integers are immutable",
			want: []string{"integers are immutable"},
		},
		{
			name: "whitespace around colon",
			text: "# LEARN   :   slices share backing arrays",
			want: []string{"slices share backing arrays"},
		},
		{
			name: "no space after hash",
			text: "#LEARN: defer runs at function exit",
			want: []string{"defer runs at function exit"},
		},
		{
			name: "multiple annotations",
			text: "a = []  # LEARN: lists are mutable\nb = ()  # LEARN: tuples are not",
			want: []string{"lists are mutable", "tuples are not"},
		},
		{
			name: "no marker",
			text: "x = 1  # plain comment",
			want: nil,
		},
		{
			name: "marker without colon",
			text: "# LEARN nothing here",
			want: nil,
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
		{
			name: "lowercase marker is not a marker",
			text: "# learn: casing matters",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAnnotations(tt.text))
		})
	}
}

func TestConceptName(t *testing.T) {
	short := "generics need explicit instantiation sometimes"
	assert.Equal(t, short, conceptName(short))

	long := strings.Repeat("a", 200)
	got := conceptName(long)
	assert.Len(t, got, maxConceptNameLen)

	// Truncation must land on a rune boundary.
	wide := strings.Repeat("学", 100)
	got = conceptName(wide)
	assert.Equal(t, maxConceptNameLen, len([]rune(got)))
	assert.Equal(t, strings.Repeat("学", maxConceptNameLen), got)
}

func TestDecodeEvent(t *testing.T) {
	payload := []byte(`{
		"event_type": "code_write",
		"trajectory_id": "traj-1",
		"timestamp": "2026-08-30T12:00:00Z",
		"tool_info": {
			"file_path": "/home/dev/src/main.py",
			"edits": [{"old_string": "a", "new_string": "b"}]
		}
	}`)

	ev, err := DecodeEvent(payload)
	assert.NoError(t, err)
	assert.Equal(t, EventCodeWrite, ev.EventType)
	assert.Equal(t, "traj-1", ev.TrajectoryID)
	assert.Equal(t, "/home/dev/src/main.py", ev.ToolInfo.FilePath)
	assert.Len(t, ev.ToolInfo.Edits, 1)
	assert.Equal(t, "b", ev.ToolInfo.Edits[0].NewString)

	_, err = DecodeEvent([]byte("{not json"))
	assert.Error(t, err)
}

func TestProjectFromPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"absolute with src", "/home/u/app/src/main.py", "/home/u/app"},
		{"nested src uses first", "/a/src/b/src/c.py", "/a"},
		{"no src segment", "/home/u/app/main.py", ""},
		{"src is first segment", "src/main.py", ""},
		{"relative with src", "repo/src/pkg/file.go", "repo"},
		{"empty path", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, projectFromPath(tt.path))
		})
	}
}
