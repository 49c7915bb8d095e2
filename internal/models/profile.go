package models

// SkillLevel represents self-assessed proficiency in a skill
type SkillLevel string

const (
	LevelBeginner     SkillLevel = "beginner"
	LevelIntermediate SkillLevel = "intermediate"
	LevelAdvanced     SkillLevel = "advanced"
)

// IsValid reports whether the level is one of the known levels
func (l SkillLevel) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Skill is a single entry of the skills list
type Skill struct {
	Name  string     `json:"name" yaml:"name"`
	Level SkillLevel `json:"level" yaml:"level"`
}

// Experience is a single work history entry
type Experience struct {
	Title       string `json:"title" yaml:"title"`
	Company     string `json:"company" yaml:"company"`
	Period      string `json:"period" yaml:"period"`
	Description string `json:"description" yaml:"description"`
}

// Education is a single education entry
type Education struct {
	Degree      string `json:"degree" yaml:"degree"`
	Institution string `json:"institution" yaml:"institution"`
	Year        string `json:"year" yaml:"year"`
}

// UserProfile holds everything known about the signed-in user.
// A nil profile means there is no active session.
type UserProfile struct {
	ID                  string         `json:"id,omitempty"`
	Name                string         `json:"name"`
	Email               string         `json:"email"`
	Phone               string         `json:"phone,omitempty"`
	Skills              []Skill        `json:"skills"`
	Experience          []Experience   `json:"experience"`
	Education           []Education    `json:"education"`
	DreamJob            string         `json:"dreamJob,omitempty"`
	DreamJobDescription string         `json:"dreamJobDescription,omitempty"`
	Roadmap             []RoadmapItem  `json:"roadmap,omitempty"`
	Schedule            []ScheduleItem `json:"schedule,omitempty"`
}

// Clone returns a deep copy of the profile
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.Skills = cloneSlice(p.Skills)
	c.Experience = cloneSlice(p.Experience)
	c.Education = cloneSlice(p.Education)
	c.Roadmap = cloneSlice(p.Roadmap)
	c.Schedule = cloneSlice(p.Schedule)
	return &c
}

// ProfilePatch is a partial UserProfile. Nil fields are left untouched,
// non-nil fields replace the current value as a whole.
type ProfilePatch struct {
	ID                  *string        `json:"id,omitempty" yaml:"id,omitempty"`
	Name                *string        `json:"name,omitempty" yaml:"name,omitempty"`
	Email               *string        `json:"email,omitempty" yaml:"email,omitempty"`
	Phone               *string        `json:"phone,omitempty" yaml:"phone,omitempty"`
	Skills              []Skill        `json:"skills,omitempty" yaml:"skills,omitempty"`
	Experience          []Experience   `json:"experience,omitempty" yaml:"experience,omitempty"`
	Education           []Education    `json:"education,omitempty" yaml:"education,omitempty"`
	DreamJob            *string        `json:"dreamJob,omitempty" yaml:"dreamJob,omitempty"`
	DreamJobDescription *string        `json:"dreamJobDescription,omitempty" yaml:"dreamJobDescription,omitempty"`
	Roadmap             []RoadmapItem  `json:"roadmap,omitempty" yaml:"roadmap,omitempty"`
	Schedule            []ScheduleItem `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// ApplyTo shallow-merges the patch into p
func (pp ProfilePatch) ApplyTo(p *UserProfile) {
	if pp.ID != nil {
		p.ID = *pp.ID
	}
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Email != nil {
		p.Email = *pp.Email
	}
	if pp.Phone != nil {
		p.Phone = *pp.Phone
	}
	if pp.Skills != nil {
		p.Skills = cloneSlice(pp.Skills)
	}
	if pp.Experience != nil {
		p.Experience = cloneSlice(pp.Experience)
	}
	if pp.Education != nil {
		p.Education = cloneSlice(pp.Education)
	}
	if pp.DreamJob != nil {
		p.DreamJob = *pp.DreamJob
	}
	if pp.DreamJobDescription != nil {
		p.DreamJobDescription = *pp.DreamJobDescription
	}
	if pp.Roadmap != nil {
		p.Roadmap = cloneSlice(pp.Roadmap)
	}
	if pp.Schedule != nil {
		p.Schedule = cloneSlice(pp.Schedule)
	}
}

// String returns a pointer to s, for building patches
func String(s string) *string {
	return &s
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
