package api

import (
	"net/http"

	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/planner"
)

// --- Chat ---

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	respondScreen(w, r, ws.Chat.View())
}

// handleSendMessage appends the user's message and waits for the reply
// unless ?async=true
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, task, err := ws.Chat.Send(req.Text)
	if err != nil {
		respondPlannerError(w, err, "send message")
		return
	}

	if r.URL.Query().Get("async") == "true" {
		respondJSON(w, http.StatusAccepted, map[string]any{
			"message": msg,
			"taskId":  task.ID(),
		})
		return
	}

	reply, err := task.Wait(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		respondPlannerError(w, err, "send message")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": msg,
		"reply":   reply,
	})
}

// --- Mock interview and knowledge test ---

type interviewResponse struct {
	View   planner.InterviewView `json:"view"`
	Notice *models.Notice        `json:"notice,omitempty"`
}

type categoryRequest struct {
	Category string `json:"category"`
}

type answerRequest struct {
	Option int `json:"option"`
}

func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	respondScreen(w, r, ws.Interview.View())
}

func (s *Server) handleInterviewStart(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	view, notice := ws.Interview.Start()
	respondJSON(w, http.StatusOK, interviewResponse{View: view, Notice: &notice})
}

func (s *Server) handleInterviewNext(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	view, notice, err := ws.Interview.Next()
	if err != nil {
		respondPlannerError(w, err, "advance interview")
		return
	}
	respondJSON(w, http.StatusOK, interviewResponse{View: view, Notice: notice})
}

func (s *Server) handleInterviewFeedback(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	view, err := ws.Interview.Feedback()
	if err != nil {
		respondPlannerError(w, err, "get feedback")
		return
	}
	respondJSON(w, http.StatusOK, interviewResponse{View: view})
}

func (s *Server) handleInterviewRestart(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	respondJSON(w, http.StatusOK, interviewResponse{View: ws.Interview.Restart()})
}

func (s *Server) handleInterviewCategory(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, notice, err := ws.Interview.SetCategory(req.Category)
	if err != nil {
		respondPlannerError(w, err, "change category")
		return
	}
	respondJSON(w, http.StatusOK, interviewResponse{View: view, Notice: notice})
}

func (s *Server) handleTestStart(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	view, notice := ws.Interview.StartTest()
	respondJSON(w, http.StatusOK, interviewResponse{View: view, Notice: &notice})
}

func (s *Server) handleTestAnswer(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	var req answerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := ws.Interview.Answer(req.Option)
	if err != nil {
		respondPlannerError(w, err, "check answer")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleTestNext(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	view, notice, err := ws.Interview.NextTestQuestion()
	if err != nil {
		respondPlannerError(w, err, "advance test")
		return
	}
	respondJSON(w, http.StatusOK, interviewResponse{View: view, Notice: notice})
}
