package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		path   string
		screen string
	}{
		{"/", "home"},
		{"", "home"},
		{"/auth", "auth"},
		{"/dashboard", "dashboard"},
		{"/roadmap/", "roadmap"},
		{"/roadmap/3", "roadmap"},
		{"/schedule/template", "schedule"},
		{"/roadmapx", "not-found"},
		{"/nope", "not-found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.screen, Lookup(tt.path).Screen)
		})
	}
}

func TestOnlyHomeAuthAndCatchAllArePublic(t *testing.T) {
	for _, r := range Routes {
		public := r.Path == PathHome || r.Path == PathAuth
		assert.Equal(t, !public, r.Protected, r.Path)
	}
	assert.False(t, NotFound.Protected)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		state State
		want  Decision
	}{
		{"unauthenticated protected redirects", "/roadmap", State{}, Decision{Kind: Redirect, Location: "/auth"}},
		{"loading is pending", "/roadmap", State{Loading: true}, Decision{Kind: Pending}},
		{"authenticated renders", "/roadmap", State{Authenticated: true}, Decision{Kind: Render}},
		{"public renders without session", "/auth", State{}, Decision{Kind: Render}},
		{"home renders while loading", "/", State{Loading: true}, Decision{Kind: Render}},
		{"unknown path renders not found", "/missing", State{}, Decision{Kind: Render}},
		{"sub path inherits guard", "/schedule/abc", State{}, Decision{Kind: Redirect, Location: "/auth"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.path, tt.state))
		})
	}
}

func TestNextAction(t *testing.T) {
	assert.Equal(t, "/upload-cv", NextAction(Flags{}).Target)
	assert.Equal(t, "/upload-cv", NextAction(Flags{DreamJobSet: true}).Target)
	assert.Equal(t, "/dream-job", NextAction(Flags{CVUploaded: true}).Target)
	assert.Equal(t, "/roadmap", NextAction(Flags{CVUploaded: true, DreamJobSet: true}).Target)
}

func TestSidebar(t *testing.T) {
	enabled := func(items []NavItem) map[string]bool {
		out := make(map[string]bool)
		for _, it := range items {
			out[it.Path] = it.Enabled
		}
		return out
	}

	fresh := enabled(Sidebar(Flags{}, "/dashboard"))
	assert.True(t, fresh["/dashboard"])
	assert.True(t, fresh["/upload-cv"])
	assert.False(t, fresh["/dream-job"])
	assert.False(t, fresh["/roadmap"])
	assert.True(t, fresh["/chatbot"])

	done := enabled(Sidebar(Flags{CVUploaded: true, DreamJobSet: true}, "/roadmap"))
	assert.False(t, done["/upload-cv"])
	assert.True(t, done["/dream-job"])
	assert.True(t, done["/roadmap"])
	assert.True(t, done["/schedule"])
	assert.True(t, done["/interview"])

	for _, it := range Sidebar(Flags{}, "/roadmap/") {
		assert.Equal(t, it.Path == "/roadmap", it.Active, it.Path)
	}
}
