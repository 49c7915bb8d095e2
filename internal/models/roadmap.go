package models

// RoadmapStatus represents progress on a roadmap milestone
type RoadmapStatus string

const (
	RoadmapNotStarted RoadmapStatus = "not-started"
	RoadmapInProgress RoadmapStatus = "in-progress"
	RoadmapCompleted  RoadmapStatus = "completed"
)

// IsValid reports whether the status is one of the known statuses
func (s RoadmapStatus) IsValid() bool {
	switch s {
	case RoadmapNotStarted, RoadmapInProgress, RoadmapCompleted:
		return true
	}
	return false
}

// RoadmapItem is a milestone toward the dream job
type RoadmapItem struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Timeframe   string        `json:"timeframe" yaml:"timeframe"`
	Status      RoadmapStatus `json:"status" yaml:"status"`
}

// RoadmapItemPatch is a partial RoadmapItem
type RoadmapItemPatch struct {
	Title       *string        `json:"title,omitempty"`
	Description *string        `json:"description,omitempty"`
	Timeframe   *string        `json:"timeframe,omitempty"`
	Status      *RoadmapStatus `json:"status,omitempty"`
}

// ApplyTo shallow-merges the patch into item. The id is never changed.
func (p RoadmapItemPatch) ApplyTo(item *RoadmapItem) {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Timeframe != nil {
		item.Timeframe = *p.Timeframe
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
}

// CompletedPercent returns the share of completed items, rounded to the
// nearest whole percent. An empty roadmap is 0%.
func CompletedPercent(items []RoadmapItem) int {
	if len(items) == 0 {
		return 0
	}
	completed := 0
	for _, item := range items {
		if item.Status == RoadmapCompleted {
			completed++
		}
	}
	return (completed*200 + len(items)) / (2 * len(items))
}
