package api

import (
	"net/http"

	"github.com/terra-clan/skillify/internal/auth"
	"github.com/terra-clan/skillify/internal/gate"
)

// Feature is a landing page card
type Feature struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Action      gate.Action `json:"action"`
}

// Step is one stage of the how-it-works timeline
type Step struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HomeView is the landing page
type HomeView struct {
	Headline     string      `json:"headline"`
	Tagline      string      `json:"tagline"`
	GetStarted   gate.Action `json:"getStarted"`
	Features     []Feature   `json:"features"`
	Steps        []Step      `json:"steps"`
	InterviewCTA gate.Action `json:"interviewCta"`
}

var homeView = HomeView{
	Headline:   "Your path to your dream career",
	Tagline:    "Upload your CV, set your career goals, and let us build a personalized roadmap for your professional journey.",
	GetStarted: gate.Action{Target: gate.PathUploadCV, Label: "Get Started"},
	Features: []Feature{
		{
			Title:       "CV Analysis",
			Description: "Upload your CV and we'll extract your skills, experience, and qualifications automatically.",
			Action:      gate.Action{Target: gate.PathUploadCV, Label: "Upload CV"},
		},
		{
			Title:       "Dream Job Blueprint",
			Description: "Define your dream job and we'll create a personalized roadmap to help you achieve it.",
			Action:      gate.Action{Target: gate.PathDreamJob, Label: "Set Goals"},
		},
		{
			Title:       "Custom Roadmap",
			Description: "Follow a step-by-step plan with milestones and resources tailored to your career goals.",
			Action:      gate.Action{Target: gate.PathRoadmap, Label: "View Roadmap"},
		},
		{
			Title:       "AI Career Assistant",
			Description: "Get guidance, answer questions, and receive personalized advice from our AI assistant.",
			Action:      gate.Action{Target: gate.PathChatbot, Label: "Chat Now"},
		},
	},
	Steps: []Step{
		{1, "Upload Your CV", "Upload your CV to our platform. Our system will extract your skills, education, and work experience automatically."},
		{2, "Define Your Dream Job", "Tell us about your dream job and career aspirations. This helps us understand your goals and create a personalized plan."},
		{3, "Follow Your Roadmap", "Access your personalized roadmap with step-by-step guidance, resources, and activities to build the skills you need."},
		{4, "Practice and Prepare", "Use our mock interviews, AI assistant, and knowledge tests to prepare for job applications and interviews."},
	},
	InterviewCTA: gate.Action{Target: gate.PathInterview, Label: "Start Mock Interview"},
}

// AuthView is the sign-in screen
type AuthView struct {
	Modes    []string `json:"modes"`
	SignedIn bool     `json:"signedIn"`
	// Next is where a signed-in visitor should go instead
	Next              string `json:"next,omitempty"`
	MinPasswordLength int    `json:"minPasswordLength"`
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, screenResponse{Screen: "home", Path: gate.PathHome, View: homeView})
}

func (s *Server) handleAuthScreen(w http.ResponseWriter, r *http.Request) {
	view := AuthView{
		Modes:             []string{"sign-in", "sign-up"},
		MinPasswordLength: auth.MinPasswordLength,
	}
	if token := extractToken(r); token != "" {
		if _, err := s.auth.Authenticate(r.Context(), token); err == nil {
			view.SignedIn = true
			view.Next = gate.PathDashboard
		}
	}
	respondJSON(w, http.StatusOK, screenResponse{Screen: "auth", Path: gate.PathAuth, View: view})
}
