package planner

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/terra-clan/skillify/internal/models"
)

// ScheduleInput is the add-item form. Priority defaults to medium.
type ScheduleInput struct {
	Day       string          `json:"day"`
	StartTime string          `json:"startTime"`
	EndTime   string          `json:"endTime"`
	Activity  string          `json:"activity"`
	Priority  models.Priority `json:"priority"`
}

// ScheduleEntry is a schedule item with its rendered duration
type ScheduleEntry struct {
	models.ScheduleItem
	Duration string `json:"duration"`
}

// ScheduleDayView is one weekday column of the week view
type ScheduleDayView struct {
	Day   string          `json:"day"`
	Items []ScheduleEntry `json:"items"`
}

// ScheduleView is the week view, Monday first
type ScheduleView struct {
	Days  []ScheduleDayView `json:"days"`
	Total int               `json:"total"`
}

// AddScheduleItem validates in and appends it with a fresh id
func (p *Planner) AddScheduleItem(in ScheduleInput) (models.ScheduleItem, models.Notice, error) {
	if _, err := p.profile(); err != nil {
		return models.ScheduleItem{}, models.Notice{}, err
	}

	in.Day = strings.TrimSpace(in.Day)
	in.Activity = strings.TrimSpace(in.Activity)
	if in.Day == "" || in.StartTime == "" || in.EndTime == "" || in.Activity == "" {
		return models.ScheduleItem{}, models.Notice{}, invalid("Missing information", "Please fill in all fields")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if err := validateScheduleFields(in.Day, in.StartTime, in.EndTime, in.Priority); err != nil {
		return models.ScheduleItem{}, models.Notice{}, err
	}

	item := models.ScheduleItem{
		ID:        uuid.New().String(),
		Day:       in.Day,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Activity:  in.Activity,
		Priority:  in.Priority,
	}
	p.store.AddScheduleItem(item)

	return item, models.Notice{
		Title:       "Schedule item added",
		Description: fmt.Sprintf("Added %s to your schedule", item.Activity),
	}, nil
}

// UpdateScheduleItem merges patch into an existing item
func (p *Planner) UpdateScheduleItem(id string, patch models.ScheduleItemPatch) error {
	prof, err := p.profile()
	if err != nil {
		return err
	}

	var current *models.ScheduleItem
	for i := range prof.Schedule {
		if prof.Schedule[i].ID == id {
			current = &prof.Schedule[i]
			break
		}
	}
	if current == nil {
		return ErrNotFound
	}

	merged := *current
	patch.ApplyTo(&merged)
	if strings.TrimSpace(merged.Activity) == "" {
		return invalid("Missing information", "Please fill in all fields")
	}
	if err := validateScheduleFields(merged.Day, merged.StartTime, merged.EndTime, merged.Priority); err != nil {
		return err
	}

	p.store.UpdateScheduleItem(id, patch)
	return nil
}

// DeleteScheduleItem removes an item. Deleting an unknown id is not an error.
func (p *Planner) DeleteScheduleItem(id string) (models.Notice, error) {
	if _, err := p.profile(); err != nil {
		return models.Notice{}, err
	}
	p.store.DeleteScheduleItem(id)
	return models.Notice{
		Title:       "Schedule item removed",
		Description: "The item has been removed from your schedule",
	}, nil
}

// GenerateTemplate appends the sample week, each entry with a fresh id
func (p *Planner) GenerateTemplate() (models.Notice, error) {
	if _, err := p.profile(); err != nil {
		return models.Notice{}, err
	}
	for _, t := range p.catalog.Schedule {
		p.store.AddScheduleItem(models.ScheduleItem{
			ID:        uuid.New().String(),
			Day:       t.Day,
			StartTime: t.StartTime,
			EndTime:   t.EndTime,
			Activity:  t.Activity,
			Priority:  t.Priority,
		})
	}
	return models.Notice{
		Title:       "Schedule template generated",
		Description: "A sample schedule has been created. You can edit or customize it.",
	}, nil
}

// Schedule returns the week view
func (p *Planner) Schedule() (ScheduleView, error) {
	prof, err := p.profile()
	if err != nil {
		return ScheduleView{}, err
	}

	view := ScheduleView{Total: len(prof.Schedule)}
	for _, day := range models.GroupByDay(prof.Schedule) {
		dv := ScheduleDayView{Day: day.Day, Items: make([]ScheduleEntry, 0, len(day.Items))}
		for _, item := range day.Items {
			dv.Items = append(dv.Items, ScheduleEntry{
				ScheduleItem: item,
				Duration:     models.FormatDuration(item.StartTime, item.EndTime),
			})
		}
		view.Days = append(view.Days, dv)
	}
	return view, nil
}

func validateScheduleFields(day, start, end string, priority models.Priority) error {
	if !models.IsWeekday(day) {
		return invalid("Invalid day", "Please choose a day of the week")
	}
	if _, err := models.ParseClock(start); err != nil {
		return invalid("Invalid time", "Start time must be in HH:MM format")
	}
	if _, err := models.ParseClock(end); err != nil {
		return invalid("Invalid time", "End time must be in HH:MM format")
	}
	if !priority.IsValid() {
		return invalid("Invalid priority", "Priority must be low, medium or high")
	}
	return nil
}
