package planner

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/terra-clan/skillify/internal/gate"
	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/tasks"
)

// DreamJobRequest is the dream-job form
type DreamJobRequest struct {
	DreamJob            string `json:"dreamJob"`
	DreamJobDescription string `json:"dreamJobDescription"`
}

// DreamJobView is what the dream-job screen shows
type DreamJobView struct {
	DreamJob            string `json:"dreamJob"`
	DreamJobDescription string `json:"dreamJobDescription"`
	Quote               string `json:"quote"`
}

// DreamJobScreen returns the current answers and a motivational quote
func (p *Planner) DreamJobScreen() DreamJobView {
	var view DreamJobView
	if prof := p.store.Profile(); prof != nil {
		view.DreamJob = prof.DreamJob
		view.DreamJobDescription = prof.DreamJobDescription
	}
	if n := len(p.catalog.Quotes); n > 0 {
		view.Quote = p.catalog.Quotes[rand.IntN(n)]
	}
	return view
}

// SetDreamJob starts the simulated roadmap generation. On completion the
// dream job, its description and the roadmap template are merged into the
// profile and dreamJobSet is set.
func (p *Planner) SetDreamJob(req DreamJobRequest) (*tasks.Task[Outcome], error) {
	title := strings.TrimSpace(req.DreamJob)
	if title == "" {
		return nil, invalid("Dream job is required", "Please enter your dream job title")
	}
	description := strings.TrimSpace(req.DreamJobDescription)

	slog.Info("generating roadmap", "dream_job", title)

	roadmap := p.catalog.RoadmapItems()
	process := func(ctx context.Context) (Outcome, error) {
		return Outcome{
			Notice: models.Notice{
				Title:       "Dream Job Set",
				Description: "Your personalized roadmap has been created!",
			},
			Next: gate.PathRoadmap,
		}, nil
	}
	apply := func(Outcome) {
		p.store.UpdateProfile(models.ProfilePatch{
			DreamJob:            models.String(title),
			DreamJobDescription: models.String(description),
			Roadmap:             roadmap,
		})
		p.store.SetDreamJobSet(true)
	}
	return tasks.Submit(p.runner, slotDreamJob, p.opts.DreamJobDelay, process, apply), nil
}

// RoadmapView is what the roadmap screen shows
type RoadmapView struct {
	DreamJob string               `json:"dreamJob"`
	Items    []models.RoadmapItem `json:"items"`
	Progress int                  `json:"progress"`
}

// Roadmap returns the roadmap with its completion percentage
func (p *Planner) Roadmap() (RoadmapView, error) {
	prof, err := p.profile()
	if err != nil {
		return RoadmapView{}, err
	}
	items := prof.Roadmap
	if items == nil {
		items = []models.RoadmapItem{}
	}
	return RoadmapView{
		DreamJob: prof.DreamJob,
		Items:    items,
		Progress: models.CompletedPercent(items),
	}, nil
}

// SetRoadmapStatus moves a roadmap item to status
func (p *Planner) SetRoadmapStatus(id string, status models.RoadmapStatus) error {
	if !status.IsValid() {
		return invalid("Invalid status", "Status must be not-started, in-progress or completed")
	}
	prof, err := p.profile()
	if err != nil {
		return err
	}
	if !hasRoadmapItem(prof.Roadmap, id) {
		return ErrNotFound
	}
	p.store.UpdateRoadmapItem(id, models.RoadmapItemPatch{Status: &status})
	return nil
}

func hasRoadmapItem(items []models.RoadmapItem, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}
