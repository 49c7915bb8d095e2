package models

// InterviewCategory is a group of mock interview questions (general, behavioral, ...)
type InterviewCategory struct {
	ID        string              `json:"id" yaml:"id"`
	Name      string              `json:"name" yaml:"name"`
	Questions []InterviewQuestion `json:"questions" yaml:"questions"`
}

// InterviewQuestion is a single mock interview prompt
type InterviewQuestion struct {
	ID       string `json:"id" yaml:"id"`
	Question string `json:"question" yaml:"question"`
	Category string `json:"category" yaml:"category"`
	Tips     string `json:"tips,omitempty" yaml:"tips"`
}

// KnowledgeQuestion is a multiple choice question of the knowledge test
type KnowledgeQuestion struct {
	ID            string   `json:"id" yaml:"id"`
	Question      string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectAnswer int      `json:"-" yaml:"correct_answer"` // Never serialize
	Explanation   string   `json:"explanation" yaml:"explanation"`
}

// ScheduleTemplateItem is a schedule entry without an id
type ScheduleTemplateItem struct {
	Day       string   `yaml:"day"`
	StartTime string   `yaml:"start_time"`
	EndTime   string   `yaml:"end_time"`
	Activity  string   `yaml:"activity"`
	Priority  Priority `yaml:"priority"`
}

// Notice is a transient toast-style message shown to the user
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant,omitempty"` // "" | destructive
}

// NoticeDestructive marks an error notice
const NoticeDestructive = "destructive"
