package planner

import (
	"fmt"

	"github.com/terra-clan/skillify/internal/gate"
	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/profile"
)

// Progress steps shown before the roadmap takes over
const (
	progressNoCV       = 20
	progressNoDreamJob = 40
	progressNoRoadmap  = 60
)

// ChecklistItem is one milestone on the dashboard
type ChecklistItem struct {
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// QuickAction is a dashboard shortcut card
type QuickAction struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Label       string `json:"label"`
	Target      string `json:"target"`
	Enabled     bool   `json:"enabled"`
}

// DreamJobCard is shown once the dream job is set
type DreamJobCard struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Dashboard is the dashboard screen
type Dashboard struct {
	Welcome      string          `json:"welcome"`
	Subtitle     string          `json:"subtitle"`
	Progress     int             `json:"progress"`
	Checklist    []ChecklistItem `json:"checklist"`
	NextAction   gate.Action     `json:"nextAction"`
	QuickActions []QuickAction   `json:"quickActions"`
	DreamJob     *DreamJobCard   `json:"dreamJob,omitempty"`
	Notice       *models.Notice  `json:"notice,omitempty"`
}

// Dashboard builds the dashboard for the current store state
func (p *Planner) Dashboard() Dashboard {
	return BuildDashboard(p.store.Snapshot())
}

// BuildDashboard derives the dashboard from a store snapshot
func BuildDashboard(snap profile.Snapshot) Dashboard {
	user := snap.Profile
	flags := gate.Flags{CVUploaded: snap.CVUploaded, DreamJobSet: snap.DreamJobSet}

	d := Dashboard{
		Welcome:    "Welcome to DreamJob Blueprint!",
		Subtitle:   "Your personalized career guidance platform",
		Progress:   Progress(snap),
		NextAction: gate.NextAction(flags),
	}
	if user != nil {
		d.Welcome = fmt.Sprintf("Welcome back, %s!", user.Name)
		if snap.DreamJobSet {
			d.Subtitle = fmt.Sprintf("You're on your way to becoming a %s", user.DreamJob)
		}
	}
	if user == nil && !snap.CVUploaded {
		d.Notice = &models.Notice{
			Title:       "Welcome to DreamJob Blueprint",
			Description: "Start by uploading your CV to create your personalized career roadmap",
		}
	}

	d.Checklist = []ChecklistItem{
		{Label: "CV Uploaded", Done: snap.CVUploaded},
		{Label: "Dream Job Set", Done: snap.DreamJobSet},
		{Label: "Roadmap Created", Done: user != nil && user.Roadmap != nil},
		{Label: "Schedule Created", Done: user != nil && user.Schedule != nil},
	}

	d.QuickActions = []QuickAction{
		{
			Title:       "Career Roadmap",
			Description: "View your personalized roadmap to achieve your dream job",
			Label:       "View Roadmap",
			Target:      gate.PathRoadmap,
			Enabled:     snap.DreamJobSet,
		},
		{
			Title:       "Study Schedule",
			Description: "Create and manage your study schedule to stay on track",
			Label:       "Manage Schedule",
			Target:      gate.PathSchedule,
			Enabled:     snap.DreamJobSet,
		},
		{
			Title:       "AI Assistant",
			Description: "Get career advice and answers to your questions from our AI",
			Label:       "Chat with AI",
			Target:      gate.PathChatbot,
			Enabled:     true,
		},
	}

	if snap.DreamJobSet && user != nil && user.DreamJob != "" {
		d.DreamJob = &DreamJobCard{Title: user.DreamJob, Description: user.DreamJobDescription}
	}
	return d
}

// Progress is the overall completion shown on the dashboard: fixed steps
// until the dream job is set, then the share of completed roadmap items.
func Progress(snap profile.Snapshot) int {
	switch {
	case snap.Profile == nil:
		return 0
	case !snap.CVUploaded:
		return progressNoCV
	case !snap.DreamJobSet:
		return progressNoDreamJob
	case snap.Profile.Roadmap != nil:
		return models.CompletedPercent(snap.Profile.Roadmap)
	}
	return progressNoRoadmap
}
