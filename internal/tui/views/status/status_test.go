package status

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestView(t *testing.T) {
	tests := []struct {
		name  string
		model Model
		want  []string
	}{
		{
			name:  "disconnected",
			model: New(),
			want:  []string{"Connecting...", "observer: unknown", "permission ok"},
		},
		{
			name: "registered with permission loss",
			model: Model{
				Connected:        true,
				ObserverState:    "registered",
				PermissionDenied: true,
				PermissionCount:  3,
				Publishes:        7,
				Seq:              42,
				Width:            160,
			},
			want: []string{"Connected", "observer: registered", "permission unavailable (3)", "7 publishes", "seq 42"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ansi.Strip(tt.model.View())
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("View() missing %q:\n%s", w, out)
				}
			}
		})
	}
}
