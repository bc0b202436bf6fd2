package graph_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/tendril/internal/presentation/graph"
	"github.com/aretw0/tendril/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	cmds := []*domain.Command{
		{Route: "user add|create"},
		{Route: "user remove", Permission: "user.remove"},
		{Route: "user|u list"},
		{Route: "sync", Async: true},
		{Route: "-broken"},
	}

	tests := []struct {
		name     string
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Shapes",
			contains: []string{
				"root((\"tendril\"))",
				"root_user(\"user <br/> u\")",
				"root_user_add[\"add <br/> create\"]",
				"root_user_remove{{\"remove <br/> 🔒 user.remove\"}}",
				"root_sync[[\"sync\"]]",
			},
			excludes: []string{"broken", "classDef"},
		},
		{
			name: "Edges",
			contains: []string{
				"root --> root_user",
				"root_user --> root_user_add",
				"root_user --> root_user_list",
				"root --> root_sync",
			},
		},
		{
			name:    "Overlay",
			overlay: &graph.Overlay{Path: []string{"user", "add"}},
			contains: []string{
				"class root_user visited;",
				"class root_user_add current;",
			},
		},
		{
			name:     "Overlay stops at unknown names",
			overlay:  &graph.Overlay{Path: []string{"user", "nope"}},
			contains: []string{"class root_user visited;"},
			excludes: []string{"current;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(cmds, tt.overlay)
			assert.True(t, strings.HasPrefix(got, "graph TD\n"))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, bad := range tt.excludes {
				assert.NotContains(t, got, bad)
			}
		})
	}
}
