// Package gate decides which screens a visitor may see and where the
// dashboard should send them next.
package gate

import (
	"strings"
)

// Screen paths
const (
	PathHome      = "/"
	PathAuth      = "/auth"
	PathDashboard = "/dashboard"
	PathUploadCV  = "/upload-cv"
	PathDreamJob  = "/dream-job"
	PathRoadmap   = "/roadmap"
	PathSchedule  = "/schedule"
	PathChatbot   = "/chatbot"
	PathInterview = "/interview"
)

// Route maps a path to a screen
type Route struct {
	Path      string `json:"path"`
	Screen    string `json:"screen"`
	Protected bool   `json:"protected"`
}

// NotFound is the catch-all route
var NotFound = Route{Path: "*", Screen: "not-found"}

// Routes is the screen table. Everything except the landing page, the
// sign-in screen and the catch-all needs an active session.
var Routes = []Route{
	{Path: PathAuth, Screen: "auth"},
	{Path: PathDashboard, Screen: "dashboard", Protected: true},
	{Path: PathUploadCV, Screen: "upload-cv", Protected: true},
	{Path: PathDreamJob, Screen: "dream-job", Protected: true},
	{Path: PathRoadmap, Screen: "roadmap", Protected: true},
	{Path: PathSchedule, Screen: "schedule", Protected: true},
	{Path: PathChatbot, Screen: "chatbot", Protected: true},
	{Path: PathInterview, Screen: "interview", Protected: true},
	{Path: PathHome, Screen: "home"},
}

// Lookup returns the route owning path. Sub-paths belong to their screen
// ("/roadmap/3" is the roadmap route); unknown paths get NotFound.
func Lookup(path string) Route {
	path = normalize(path)
	if path == PathHome {
		return Routes[len(Routes)-1]
	}
	for _, r := range Routes {
		if r.Path == PathHome {
			continue
		}
		if path == r.Path || strings.HasPrefix(path, r.Path+"/") {
			return r
		}
	}
	return NotFound
}

// IsProtected reports whether path requires an active session
func IsProtected(path string) bool {
	return Lookup(path).Protected
}

// State is what the gate needs to know about the visitor
type State struct {
	// Loading is true while the initial session check is outstanding
	Loading bool
	// Authenticated is true when a profile exists
	Authenticated bool
}

// DecisionKind is the outcome of Decide
type DecisionKind int

const (
	// Render shows the requested screen
	Render DecisionKind = iota
	// Pending shows a neutral placeholder, nothing committal
	Pending
	// Redirect sends the visitor elsewhere without rendering anything
	Redirect
)

func (k DecisionKind) String() string {
	switch k {
	case Render:
		return "render"
	case Pending:
		return "pending"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision tells the caller what to do with a request
type Decision struct {
	Kind     DecisionKind
	Location string
}

// Decide applies the session guard to path
func Decide(path string, st State) Decision {
	if !IsProtected(path) {
		return Decision{Kind: Render}
	}
	if st.Loading {
		return Decision{Kind: Pending}
	}
	if !st.Authenticated {
		return Decision{Kind: Redirect, Location: PathAuth}
	}
	return Decision{Kind: Render}
}

func normalize(path string) string {
	if path == "" {
		return PathHome
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return PathHome
		}
	}
	return path
}
