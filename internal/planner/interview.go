package planner

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/terra-clan/skillify/internal/content"
	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/profile"
)

// DefaultCategory is selected when an interview session starts
const DefaultCategory = "general"

// InterviewView is the mock interview screen
type InterviewView struct {
	Categories []CategoryRef             `json:"categories"`
	Category   string                    `json:"category"`
	Started    bool                      `json:"started"`
	Completed  bool                      `json:"completed"`
	Index      int                       `json:"index"`
	Total      int                       `json:"total"`
	Question   *models.InterviewQuestion `json:"question,omitempty"`
	Feedback   string                    `json:"feedback,omitempty"`
	Test       TestView                  `json:"test"`
}

// CategoryRef names a question category
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TestView is the knowledge test panel
type TestView struct {
	Index    int                       `json:"index"`
	Total    int                       `json:"total"`
	Question *models.KnowledgeQuestion `json:"question,omitempty"`
	Selected *int                      `json:"selected,omitempty"`
	Checked  bool                      `json:"checked"`
	Score    *int                      `json:"score,omitempty"`
	Verdict  string                    `json:"verdict,omitempty"`
}

// AnswerResult is returned when a test answer is checked
type AnswerResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer int    `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

// Interview holds the mock interview and knowledge test progress of one
// workspace
type Interview struct {
	catalog *content.Catalog
	store   *profile.Store
	pick    func(n int) int

	mu        sync.Mutex
	category  string
	started   bool
	completed bool
	index     int
	feedback  string

	testIndex int
	answers   []int
	checked   bool
	score     *int
}

// NewInterview creates an interview session on the default category
func NewInterview(catalog *content.Catalog, store *profile.Store) *Interview {
	return &Interview{
		catalog:  catalog,
		store:    store,
		pick:     rand.IntN,
		category: DefaultCategory,
	}
}

// View returns the current state
func (iv *Interview) View() InterviewView {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	return iv.viewLocked()
}

// Start begins the interview from the first question of the category
func (iv *Interview) Start() (InterviewView, models.Notice) {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	iv.started = true
	iv.completed = false
	iv.index = 0
	iv.feedback = ""
	return iv.viewLocked(), models.Notice{
		Title:       "Interview Started",
		Description: "Answer the questions as if you were in a real interview.",
	}
}

// Next moves to the following question. Past the last one the interview is
// completed and a notice is returned.
func (iv *Interview) Next() (InterviewView, *models.Notice, error) {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if !iv.started {
		return InterviewView{}, nil, invalid("Interview not started", "Start the interview first")
	}
	if iv.completed {
		return iv.viewLocked(), nil, nil
	}

	var notice *models.Notice
	if iv.index < len(iv.questionsLocked())-1 {
		iv.index++
		iv.feedback = ""
	} else {
		iv.completed = true
		notice = &models.Notice{
			Title:       "Interview Completed",
			Description: "You've completed all the questions in this category.",
		}
	}
	return iv.viewLocked(), notice, nil
}

// Feedback picks a feedback line for the current answer
func (iv *Interview) Feedback() (InterviewView, error) {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if !iv.started || iv.completed {
		return InterviewView{}, invalid("No question to review", "Start the interview first")
	}
	if n := len(iv.catalog.Feedback); n > 0 {
		iv.feedback = iv.catalog.Feedback[iv.pick(n)]
	}
	return iv.viewLocked(), nil
}

// Restart returns to the not-started state, keeping the category
func (iv *Interview) Restart() InterviewView {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	iv.started = false
	iv.completed = false
	iv.index = 0
	iv.feedback = ""
	return iv.viewLocked()
}

// SetCategory switches the question category and rewinds to its first
// question. A notice is returned when an interview is in progress.
func (iv *Interview) SetCategory(id string) (InterviewView, *models.Notice, error) {
	if _, ok := iv.catalog.Category(id); !ok {
		return InterviewView{}, nil, invalid("Unknown category", fmt.Sprintf("No questions for category %q", id))
	}

	iv.mu.Lock()
	defer iv.mu.Unlock()

	iv.category = id
	iv.index = 0
	iv.completed = false
	iv.feedback = ""

	var notice *models.Notice
	if iv.started {
		notice = &models.Notice{
			Title:       "Category Changed",
			Description: fmt.Sprintf("Switched to %s questions.", id),
		}
	}
	return iv.viewLocked(), notice, nil
}

// StartTest resets the knowledge test
func (iv *Interview) StartTest() (InterviewView, models.Notice) {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	iv.testIndex = 0
	iv.answers = nil
	iv.checked = false
	iv.score = nil
	return iv.viewLocked(), models.Notice{
		Title:       "Test Started",
		Description: "Select the best answer for each question.",
	}
}

// Answer checks option against the current test question. Each question
// is answered once.
func (iv *Interview) Answer(option int) (AnswerResult, error) {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if iv.score != nil {
		return AnswerResult{}, invalid("Test completed", "Restart the test to try again")
	}
	if iv.checked {
		return AnswerResult{}, invalid("Already answered", "Move on to the next question")
	}
	q := iv.catalog.KnowledgeTest[iv.testIndex]
	if option < 0 || option >= len(q.Options) {
		return AnswerResult{}, invalid("Invalid answer", "Please select one of the options")
	}

	iv.answers = append(iv.answers, option)
	iv.checked = true
	return AnswerResult{
		Correct:       option == q.CorrectAnswer,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}, nil
}

// NextTestQuestion advances the test. After the last question the score is
// computed and a notice is returned.
func (iv *Interview) NextTestQuestion() (InterviewView, *models.Notice, error) {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if iv.score != nil {
		return iv.viewLocked(), nil, nil
	}
	if !iv.checked {
		return InterviewView{}, nil, invalid("Answer required", "Please select an answer first")
	}

	if iv.testIndex < len(iv.catalog.KnowledgeTest)-1 {
		iv.testIndex++
		iv.checked = false
		return iv.viewLocked(), nil, nil
	}

	score := Score(iv.answers, iv.catalog.KnowledgeTest)
	iv.score = &score
	return iv.viewLocked(), &models.Notice{
		Title:       "Test Completed",
		Description: fmt.Sprintf("Your score: %d%%", score),
	}, nil
}

// Score is the rounded percentage of answers matching the correct option
func Score(answers []int, questions []models.KnowledgeQuestion) int {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for i, a := range answers {
		if i < len(questions) && a == questions[i].CorrectAnswer {
			correct++
		}
	}
	return int(math.Round(float64(correct) / float64(len(questions)) * 100))
}

// Verdict is the performance summary for a test score
func Verdict(score int) string {
	switch {
	case score >= 80:
		return "Excellent! You have a great understanding of interview best practices."
	case score >= 60:
		return "Good job! You have a solid foundation but there's room for improvement."
	}
	return "You're on your way! Keep studying interview techniques to improve your score."
}

func (iv *Interview) questionsLocked() []models.InterviewQuestion {
	dreamJob := ""
	if prof := iv.store.Profile(); prof != nil {
		dreamJob = prof.DreamJob
	}
	return iv.catalog.Questions(iv.category, dreamJob)
}

func (iv *Interview) viewLocked() InterviewView {
	questions := iv.questionsLocked()
	view := InterviewView{
		Category:  iv.category,
		Started:   iv.started,
		Completed: iv.completed,
		Index:     iv.index,
		Total:     len(questions),
		Feedback:  iv.feedback,
	}
	for _, c := range iv.catalog.Interview {
		view.Categories = append(view.Categories, CategoryRef{ID: c.ID, Name: c.Name})
	}
	if iv.started && !iv.completed && iv.index < len(questions) {
		q := questions[iv.index]
		view.Question = &q
	}

	test := TestView{
		Index:   iv.testIndex,
		Total:   len(iv.catalog.KnowledgeTest),
		Checked: iv.checked,
	}
	if iv.score != nil {
		score := *iv.score
		test.Score = &score
		test.Verdict = Verdict(score)
	} else if iv.testIndex < len(iv.catalog.KnowledgeTest) {
		q := iv.catalog.KnowledgeTest[iv.testIndex]
		test.Question = &q
		if iv.checked {
			sel := iv.answers[len(iv.answers)-1]
			test.Selected = &sel
		}
	}
	view.Test = test
	return view
}
