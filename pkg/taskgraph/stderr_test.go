package taskgraph_test

import (
	"testing"

	"github.com/m-mizutani/githook/pkg/taskgraph"
	"github.com/m-mizutani/gt"
)

func TestFilterStderr(t *testing.T) {
	tests := []struct {
		name    string
		stderr  string
		markers []string
		want    string
	}{
		{name: "empty", stderr: "", want: ""},
		{name: "blank lines", stderr: "\n  \n\t\n", want: ""},
		{name: "warning lines", stderr: "warning: deprecated\nWARNING: old\nnpm WARN something", want: "npm WARN something"},
		{
			name:    "benign marker",
			stderr:  "error an unmet peer dependency\nreal problem",
			markers: taskgraph.DefaultBenignMarkers,
			want:    "real problem",
		},
		{
			name:    "custom marker",
			stderr:  "Resolving packages...\ncompile error",
			markers: []string{"resolving packages"},
			want:    "compile error",
		},
		{name: "keeps order", stderr: "first\nwarning\nsecond\n", want: "first\nsecond"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, taskgraph.FilterStderr(tt.stderr, tt.markers)).Equal(tt.want)
		})
	}
}
