// Package content loads the static catalog the planner screens are built
// from: the roadmap template, the sample week, the interview question bank,
// the knowledge test, the simulated CV result and the dashboard quotes.
package content

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/skillify/internal/models"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// DreamJobPlaceholder is replaced in interview questions with the user's
// dream job title
const DreamJobPlaceholder = "{dream_job}"

// DefaultDreamJob fills DreamJobPlaceholder when no dream job is set
const DefaultDreamJob = "your dream job"

// Catalog file names, relative to the content directory
const (
	roadmapFile   = "roadmap.yaml"
	scheduleFile  = "schedule.yaml"
	interviewFile = "interview.yaml"
	knowledgeFile = "knowledge_test.yaml"
	cvProfileFile = "cv_profile.yaml"
	quotesFile    = "quotes.yaml"
)

// Catalog is an immutable set of loaded content
type Catalog struct {
	Roadmap       []models.RoadmapItem
	Schedule      []models.ScheduleTemplateItem
	Interview     []models.InterviewCategory
	Feedback      []string
	KnowledgeTest []models.KnowledgeQuestion
	MockCV        models.ProfilePatch
	Quotes        []string
}

// Loader owns the current catalog. It starts from the embedded defaults and
// may be overridden file by file from a directory.
type Loader struct {
	mu      sync.RWMutex
	catalog *Catalog
}

// NewLoader creates a loader with no catalog loaded
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDefaults loads the embedded catalog
func (l *Loader) LoadDefaults() error {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		return fmt.Errorf("failed to open embedded defaults: %w", err)
	}

	c := &Catalog{}
	if err := c.load(sub, false); err != nil {
		return fmt.Errorf("embedded defaults: %w", err)
	}

	l.mu.Lock()
	l.catalog = c
	l.mu.Unlock()

	slog.Info("content catalog loaded", "source", "embedded",
		"roadmap", len(c.Roadmap), "schedule", len(c.Schedule),
		"interview_categories", len(c.Interview), "knowledge_questions", len(c.KnowledgeTest))
	return nil
}

// LoadFromDir loads the defaults and then replaces every section for which
// dir holds a file. Missing files keep the embedded version.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading content from directory", "dir", dir)

	if err := l.LoadDefaults(); err != nil {
		return err
	}

	c := l.Catalog().clone()
	if err := c.load(os.DirFS(dir), true); err != nil {
		return fmt.Errorf("content dir %s: %w", dir, err)
	}

	l.mu.Lock()
	l.catalog = c
	l.mu.Unlock()

	slog.Info("content catalog loaded", "source", dir,
		"roadmap", len(c.Roadmap), "schedule", len(c.Schedule),
		"interview_categories", len(c.Interview), "knowledge_questions", len(c.KnowledgeTest))
	return nil
}

// Catalog returns the loaded catalog, or nil before the first load
func (l *Loader) Catalog() *Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.catalog
}

// RoadmapItems returns a fresh copy of the roadmap template
func (c *Catalog) RoadmapItems() []models.RoadmapItem {
	out := make([]models.RoadmapItem, len(c.Roadmap))
	copy(out, c.Roadmap)
	return out
}

// Category returns the interview category with the given id
func (c *Catalog) Category(id string) (models.InterviewCategory, bool) {
	for _, cat := range c.Interview {
		if cat.ID == id {
			return cat, true
		}
	}
	return models.InterviewCategory{}, false
}

// Questions returns the questions of category with the dream job
// substituted. An empty dreamJob uses DefaultDreamJob.
func (c *Catalog) Questions(category, dreamJob string) []models.InterviewQuestion {
	cat, ok := c.Category(category)
	if !ok {
		return nil
	}
	if dreamJob == "" {
		dreamJob = DefaultDreamJob
	}

	out := make([]models.InterviewQuestion, len(cat.Questions))
	for i, q := range cat.Questions {
		q.Question = strings.ReplaceAll(q.Question, DreamJobPlaceholder, dreamJob)
		q.Category = cat.ID
		out[i] = q
	}
	return out
}

func (c *Catalog) clone() *Catalog {
	out := *c
	return &out
}

// load reads every catalog file from fsys. With optional set, missing files
// are skipped.
func (c *Catalog) load(fsys fs.FS, optional bool) error {
	var roadmap roadmapDoc
	if ok, err := readYAML(fsys, roadmapFile, &roadmap, optional); err != nil {
		return err
	} else if ok {
		if err := validateRoadmap(roadmap.Items); err != nil {
			return fmt.Errorf("%s: %w", roadmapFile, err)
		}
		c.Roadmap = roadmap.Items
	}

	var schedule scheduleDoc
	if ok, err := readYAML(fsys, scheduleFile, &schedule, optional); err != nil {
		return err
	} else if ok {
		if err := validateSchedule(schedule.Items); err != nil {
			return fmt.Errorf("%s: %w", scheduleFile, err)
		}
		c.Schedule = schedule.Items
	}

	var interview interviewDoc
	if ok, err := readYAML(fsys, interviewFile, &interview, optional); err != nil {
		return err
	} else if ok {
		if err := validateInterview(interview); err != nil {
			return fmt.Errorf("%s: %w", interviewFile, err)
		}
		c.Interview = interview.Categories
		c.Feedback = interview.Feedback
	}

	var knowledge knowledgeDoc
	if ok, err := readYAML(fsys, knowledgeFile, &knowledge, optional); err != nil {
		return err
	} else if ok {
		if err := validateKnowledge(knowledge.Questions); err != nil {
			return fmt.Errorf("%s: %w", knowledgeFile, err)
		}
		c.KnowledgeTest = knowledge.Questions
	}

	var cv cvDoc
	if ok, err := readYAML(fsys, cvProfileFile, &cv, optional); err != nil {
		return err
	} else if ok {
		for _, s := range cv.Profile.Skills {
			if !s.Level.IsValid() {
				return fmt.Errorf("%s: skill %q has invalid level %q", cvProfileFile, s.Name, s.Level)
			}
		}
		c.MockCV = cv.Profile
	}

	var quotes quotesDoc
	if ok, err := readYAML(fsys, quotesFile, &quotes, optional); err != nil {
		return err
	} else if ok {
		c.Quotes = quotes.Quotes
	}

	return nil
}

func readYAML(fsys fs.FS, name string, into any, optional bool) (bool, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return true, nil
}

func validateRoadmap(items []models.RoadmapItem) error {
	if len(items) == 0 {
		return errors.New("at least one roadmap item is required")
	}
	seen := make(map[string]bool, len(items))
	for i, it := range items {
		if it.ID == "" || it.Title == "" {
			return fmt.Errorf("item %d: id and title are required", i)
		}
		if seen[it.ID] {
			return fmt.Errorf("duplicate roadmap id %q", it.ID)
		}
		seen[it.ID] = true
		if !it.Status.IsValid() {
			return fmt.Errorf("item %q: invalid status %q", it.ID, it.Status)
		}
	}
	return nil
}

func validateSchedule(items []models.ScheduleTemplateItem) error {
	for i, it := range items {
		if !models.IsWeekday(it.Day) {
			return fmt.Errorf("item %d: invalid day %q", i, it.Day)
		}
		if !it.Priority.IsValid() {
			return fmt.Errorf("item %d: invalid priority %q", i, it.Priority)
		}
		if it.Activity == "" {
			return fmt.Errorf("item %d: activity is required", i)
		}
		if _, err := models.ParseClock(it.StartTime); err != nil {
			return fmt.Errorf("item %d: start_time: %w", i, err)
		}
		if _, err := models.ParseClock(it.EndTime); err != nil {
			return fmt.Errorf("item %d: end_time: %w", i, err)
		}
	}
	return nil
}

func validateInterview(doc interviewDoc) error {
	if len(doc.Categories) == 0 {
		return errors.New("at least one category is required")
	}
	seen := make(map[string]bool)
	for _, cat := range doc.Categories {
		if cat.ID == "" {
			return errors.New("category id is required")
		}
		if seen[cat.ID] {
			return fmt.Errorf("duplicate category %q", cat.ID)
		}
		seen[cat.ID] = true
		if len(cat.Questions) == 0 {
			return fmt.Errorf("category %q has no questions", cat.ID)
		}
	}
	if len(doc.Feedback) == 0 {
		return errors.New("at least one feedback line is required")
	}
	return nil
}

func validateKnowledge(questions []models.KnowledgeQuestion) error {
	if len(questions) == 0 {
		return errors.New("at least one question is required")
	}
	for _, q := range questions {
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return fmt.Errorf("question %q: correct_answer %d out of range", q.ID, q.CorrectAnswer)
		}
	}
	return nil
}

// --- YAML file structs ---

type roadmapDoc struct {
	Items []models.RoadmapItem `yaml:"items"`
}

type scheduleDoc struct {
	Items []models.ScheduleTemplateItem `yaml:"items"`
}

type interviewDoc struct {
	Categories []models.InterviewCategory `yaml:"categories"`
	Feedback   []string                   `yaml:"feedback"`
}

type knowledgeDoc struct {
	Questions []models.KnowledgeQuestion `yaml:"questions"`
}

type cvDoc struct {
	Profile models.ProfilePatch `yaml:"profile"`
}

type quotesDoc struct {
	Quotes []string `yaml:"quotes"`
}
