package responder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplyResume(t *testing.T) {
	reply := Reply("Can you review my resume?", "")
	assert.True(t, strings.HasPrefix(reply, "Here are some tips to improve your resume:"), reply)
}

func TestReplySkillsWithDreamJob(t *testing.T) {
	reply := Reply("What should I learn?", "Data Scientist")
	assert.Contains(t, reply, "pursuing a career as a Data Scientist")
	assert.True(t, strings.HasSuffix(reply, "Would you like recommendations for specific resources?"))
}

func TestReplySkillsWithoutDreamJob(t *testing.T) {
	reply := Reply("Any good course?", "")
	assert.NotContains(t, reply, "pursuing a career")
	assert.Contains(t, reply, "7. Industry webinars and workshops\n\nWould you like")
}

func TestReplyDefault(t *testing.T) {
	assert.Equal(t, DefaultReply, Reply("hello", ""))
	assert.Equal(t, DefaultReply, Reply("", "Pilot"))
}

func TestReplyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "interview", topic("INTERVIEW tips please"))
	assert.Equal(t, "resume", topic("My CV is old"))
}

func TestReplyFirstGroupWins(t *testing.T) {
	tests := []struct {
		message string
		topic   string
	}{
		{"resume for my interview", "resume"},
		{"interview skills", "interview"},
		{"learn about my career", "skills"},
		{"job networking", "career"},
		{"how do I connect with people", "networking"},
		{"network", "networking"},
		// "cv" is matched as a substring, as the reference behavior does
		{"let's discuss cvs", "resume"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.topic, topic(tt.message))
		})
	}
}

func TestReplyIsDeterministic(t *testing.T) {
	a := Reply("How do I grow?", "Pilot")
	b := Reply("How do I grow?", "Pilot")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "Here are some career advancement tips:"))
}

// topic returns the name of the keyword group message falls into
func topic(message string) string {
	name, _ := match(message, "")
	return name
}
