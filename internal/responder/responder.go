// Package responder produces canned career-assistant replies by keyword
// matching. It has no state and never fails.
package responder

import (
	"fmt"
	"strings"
)

// Greeting is the assistant's first message in a fresh conversation
const Greeting = "Hello! I'm your AI career assistant. I can help with career advice, resume tips, interview preparation, and more. How can I help you today?"

const resumeTips = `Here are some tips to improve your resume:

1. Tailor your resume to each job application
2. Use action verbs and quantify achievements
3. Keep it concise (1-2 pages)
4. Include relevant skills and keywords
5. Ensure proper formatting and no typos
6. Add a compelling professional summary
7. Include relevant projects and experiences

Would you like specific advice about a particular section of your resume?`

const interviewQuestions = `Here are some common interview questions to prepare for:

1. "Tell me about yourself"
2. "Why do you want this job?"
3. "What are your strengths and weaknesses?"
4. "Tell me about a challenge you faced and how you overcame it"
5. "Where do you see yourself in 5 years?"
6. "Why should we hire you?"

For technical interviews, also prepare for role-specific questions. Practice your answers out loud and prepare examples from your experience. Is there a specific type of interview you'd like to focus on?`

const skillTips = `Here are ways to develop new skills for your career:

1. Online courses (Coursera, Udemy, edX)
2. Industry certifications
3. Books and educational blogs
4. Mentorship and coaching
5. Practice projects
6. Volunteering or freelance work
7. Industry webinars and workshops%s

Would you like recommendations for specific resources?`

const jobSpecificSkills = `
For pursuing a career as a %s, focus on developing these key skills:

1. Technical proficiency in relevant tools and technologies
2. Problem-solving and analytical thinking
3. Communication and teamwork abilities
4. Industry-specific knowledge`

const careerTips = `Here are some career advancement tips:

1. Set clear, specific career goals
2. Build a strong professional network
3. Find a mentor in your field
4. Continuously update your skills
5. Take initiative and volunteer for projects
6. Request regular feedback
7. Build your personal brand
8. Stay current with industry trends

Remember that career growth takes time. Focus on consistent improvement and building valuable relationships. Is there a specific area you'd like more advice on?`

const networkingTips = `Here are effective networking strategies:

1. Attend industry events and conferences
2. Join professional associations
3. Engage on LinkedIn and other professional platforms
4. Participate in online communities and forums
5. Schedule informational interviews
6. Follow up with new connections
7. Provide value before asking for favors

Networking is about building genuine relationships, not just collecting contacts. Would you like specific advice about networking in your industry?`

// DefaultReply is returned when no keyword matches
const DefaultReply = `Thank you for your message. I'm here to help with any career-related questions you have, including:

- Resume and CV optimization
- Interview preparation
- Skill development planning
- Career advancement strategies
- Job search tactics
- Networking advice

Feel free to ask something specific, and I'll provide tailored guidance based on your needs.`

// rule is a keyword group and the reply it produces. Order matters: the
// first group with a matching keyword wins.
type rule struct {
	topic    string
	keywords []string
	reply    func(dreamJob string) string
}

var rules = []rule{
	{
		topic:    "resume",
		keywords: []string{"resume", "cv"},
		reply:    constant(resumeTips),
	},
	{
		topic:    "interview",
		keywords: []string{"interview"},
		reply:    constant(interviewQuestions),
	},
	{
		topic:    "skills",
		keywords: []string{"skill", "learn", "course"},
		reply:    skillReply,
	},
	{
		topic:    "career",
		keywords: []string{"career", "job", "advance", "grow", "advice"},
		reply:    constant(careerTips),
	},
	{
		topic:    "networking",
		keywords: []string{"network", "connect"},
		reply:    constant(networkingTips),
	},
}

// Reply answers message. dreamJob may be empty; when set it tailors the
// skill-development reply.
func Reply(message, dreamJob string) string {
	_, reply := match(message, dreamJob)
	return reply
}

func match(message, dreamJob string) (string, string) {
	text := strings.ToLower(message)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.topic, r.reply(dreamJob)
			}
		}
	}
	return "default", DefaultReply
}

func skillReply(dreamJob string) string {
	extra := ""
	if dreamJob != "" {
		extra = fmt.Sprintf(jobSpecificSkills, dreamJob)
	}
	return fmt.Sprintf(skillTips, extra)
}

func constant(s string) func(string) string {
	return func(string) string { return s }
}
