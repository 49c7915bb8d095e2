package planner

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/skillify/internal/profile"
	"github.com/terra-clan/skillify/internal/responder"
	"github.com/terra-clan/skillify/internal/tasks"
)

// Message senders
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// Message is one chat line
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatView is the chat screen
type ChatView struct {
	Messages []Message `json:"messages"`
	Typing   bool      `json:"typing"`
}

// Chat is the assistant conversation of one workspace
type Chat struct {
	store  *profile.Store
	runner *tasks.Runner
	delay  time.Duration

	mu        sync.Mutex
	messages  []Message
	typing    int
	listeners map[uint64]func(Message)
	nextID    uint64
}

// NewChat creates a conversation opened by the assistant's greeting
func NewChat(store *profile.Store, runner *tasks.Runner, typingDelay time.Duration) *Chat {
	return &Chat{
		store:  store,
		runner: runner,
		delay:  typingDelay,
		messages: []Message{{
			ID:        uuid.New().String(),
			Sender:    SenderBot,
			Text:      responder.Greeting,
			Timestamp: time.Now(),
		}},
		listeners: make(map[uint64]func(Message)),
	}
}

// View returns a copy of the history and whether a reply is pending
func (c *Chat) View() ChatView {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return ChatView{Messages: out, Typing: c.typing > 0}
}

// Subscribe registers fn for every appended message
func (c *Chat) Subscribe(fn func(Message)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// Send appends the user's message and schedules the assistant's reply
// after the typing delay. The reply uses the dream job known at send time.
func (c *Chat) Send(text string) (Message, *tasks.Task[Message], error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, nil, invalid("Empty message", "Please type a message")
	}

	dreamJob := ""
	if prof := c.store.Profile(); prof != nil {
		dreamJob = prof.DreamJob
	}

	msg := Message{
		ID:        uuid.New().String(),
		Sender:    SenderUser,
		Text:      text,
		Timestamp: time.Now(),
	}
	c.mu.Lock()
	c.typing++
	c.mu.Unlock()
	c.append(msg)

	reply := func(ctx context.Context) (Message, error) {
		return Message{
			ID:        uuid.New().String(),
			Sender:    SenderBot,
			Text:      responder.Reply(text, dreamJob),
			Timestamp: time.Now(),
		}, nil
	}
	var once sync.Once
	stopTyping := func() {
		once.Do(func() {
			c.mu.Lock()
			c.typing--
			c.mu.Unlock()
		})
	}
	task := tasks.Submit(c.runner, "", c.delay, reply, func(m Message) {
		stopTyping()
		c.append(m)
	})
	// Canceled replies never reach apply
	go func() {
		<-task.Done()
		stopTyping()
	}()

	return msg, task, nil
}

func (c *Chat) append(m Message) {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	listeners := make([]func(Message), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(m)
	}
}
