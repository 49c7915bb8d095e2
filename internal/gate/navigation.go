package gate

// Flags are the two step-completion signals kept by the profile store
type Flags struct {
	CVUploaded  bool
	DreamJobSet bool
}

// Action is a navigation target with its button label
type Action struct {
	Target string `json:"target"`
	Label  string `json:"label"`
}

// NextAction picks the single next step: upload, then set goal, then roadmap
func NextAction(f Flags) Action {
	switch {
	case !f.CVUploaded:
		return Action{Target: PathUploadCV, Label: "Upload Your CV"}
	case !f.DreamJobSet:
		return Action{Target: PathDreamJob, Label: "Set Dream Job"}
	default:
		return Action{Target: PathRoadmap, Label: "View Your Roadmap"}
	}
}

// NavItem is a sidebar entry
type NavItem struct {
	Label   string `json:"label"`
	Path    string `json:"path"`
	Enabled bool   `json:"enabled"`
	Active  bool   `json:"active"`
}

// Sidebar lists navigation entries for the given flags. current marks the
// active entry.
func Sidebar(f Flags, current string) []NavItem {
	current = normalize(current)
	items := []NavItem{
		{Label: "Dashboard", Path: PathDashboard, Enabled: true},
		{Label: "Upload CV", Path: PathUploadCV, Enabled: !f.CVUploaded},
		{Label: "Dream Job", Path: PathDreamJob, Enabled: f.CVUploaded},
		{Label: "Roadmap", Path: PathRoadmap, Enabled: f.DreamJobSet},
		{Label: "Schedule", Path: PathSchedule, Enabled: f.DreamJobSet},
		{Label: "AI Assistant", Path: PathChatbot, Enabled: true},
		{Label: "Mock Interviews", Path: PathInterview, Enabled: f.DreamJobSet},
	}
	for i := range items {
		items[i].Active = items[i].Path == current
	}
	return items
}
