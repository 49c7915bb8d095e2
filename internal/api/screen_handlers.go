package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/planner"
	"github.com/terra-clan/skillify/internal/tasks"
)

// multipartOverhead is the room left for form boundaries and headers on
// top of the upload limit
const multipartOverhead = 1 << 20

// taskResponse is returned for flows started with ?async=true
type taskResponse struct {
	TaskID string       `json:"taskId"`
	Status tasks.Status `json:"status"`
}

// UploadView is what the upload screen shows
type UploadView struct {
	Accepted       []string `json:"accepted"`
	MaxUploadBytes int64    `json:"maxUploadBytes"`
	CVUploaded     bool     `json:"cvUploaded"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	respondScreen(w, r, ws.Planner.Dashboard())
}

// --- CV upload ---

func (s *Server) handleUploadScreen(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	respondScreen(w, r, UploadView{
		Accepted:       []string{planner.MimePDF, planner.MimeDOCX},
		MaxUploadBytes: s.maxUploadBytes,
		CVUploaded:     ws.Store.CVUploaded(),
	})
}

func (s *Server) handleUploadCV(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.maxUploadBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondPlannerError(w, ws.Planner.TooLarge(), "upload cv")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "expected multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "file is required")
		return
	}
	defer file.Close()

	task, err := ws.Planner.UploadCV(planner.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		respondPlannerError(w, err, "upload cv")
		return
	}

	respondTask(w, r, task, "upload cv")
}

// --- Dream job and roadmap ---

func (s *Server) handleDreamJobScreen(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	respondScreen(w, r, ws.Planner.DreamJobScreen())
}

func (s *Server) handleSetDreamJob(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	var req planner.DreamJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := ws.Planner.SetDreamJob(req)
	if err != nil {
		respondPlannerError(w, err, "set dream job")
		return
	}

	respondTask(w, r, task, "set dream job")
}

func (s *Server) handleRoadmap(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	view, err := ws.Planner.Roadmap()
	if err != nil {
		respondPlannerError(w, err, "load roadmap")
		return
	}
	respondScreen(w, r, view)
}

type roadmapStatusRequest struct {
	Status models.RoadmapStatus `json:"status"`
}

func (s *Server) handleSetRoadmapStatus(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req roadmapStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := ws.Planner.SetRoadmapStatus(id, req.Status); err != nil {
		respondPlannerError(w, err, "update roadmap")
		return
	}

	view, err := ws.Planner.Roadmap()
	if err != nil {
		respondPlannerError(w, err, "load roadmap")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// --- Schedule ---

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	view, err := ws.Planner.Schedule()
	if err != nil {
		respondPlannerError(w, err, "load schedule")
		return
	}
	respondScreen(w, r, view)
}

func (s *Server) handleAddScheduleItem(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	var in planner.ScheduleInput
	if !decodeJSON(w, r, &in) {
		return
	}

	item, notice, err := ws.Planner.AddScheduleItem(in)
	if err != nil {
		respondPlannerError(w, err, "add schedule item")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"item":   item,
		"notice": notice,
	})
}

func (s *Server) handleUpdateScheduleItem(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var patch models.ScheduleItemPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	if err := ws.Planner.UpdateScheduleItem(id, patch); err != nil {
		respondPlannerError(w, err, "update schedule item")
		return
	}

	view, err := ws.Planner.Schedule()
	if err != nil {
		respondPlannerError(w, err, "load schedule")
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteScheduleItem(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	id := chi.URLParam(r, "id")

	notice, err := ws.Planner.DeleteScheduleItem(id)
	if err != nil {
		respondPlannerError(w, err, "delete schedule item")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"notice": notice})
}

func (s *Server) handleGenerateSchedule(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	notice, err := ws.Planner.GenerateTemplate()
	if err != nil {
		respondPlannerError(w, err, "generate schedule")
		return
	}

	view, err := ws.Planner.Schedule()
	if err != nil {
		respondPlannerError(w, err, "load schedule")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"notice":   notice,
		"schedule": view,
	})
}

// respondTask waits for a flow to finish and answers with its outcome.
// With ?async=true it answers 202 right away; completion shows up on the
// events stream.
func respondTask[T any](w http.ResponseWriter, r *http.Request, task *tasks.Task[T], op string) {
	if r.URL.Query().Get("async") == "true" {
		respondJSON(w, http.StatusAccepted, taskResponse{TaskID: task.ID(), Status: task.Status()})
		return
	}

	result, err := task.Wait(r.Context())
	if err != nil {
		if r.Context().Err() != nil {
			slog.Debug("client left before task finished", "op", op, "task_id", task.ID())
			return
		}
		respondPlannerError(w, err, op)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
