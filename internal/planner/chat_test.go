package planner

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/skillify/internal/models"
	"github.com/terra-clan/skillify/internal/responder"
	"github.com/terra-clan/skillify/internal/tasks"
)

func TestChatStartsWithGreeting(t *testing.T) {
	f := newFixture(t)
	chat := NewChat(f.store, f.runner, 0)

	view := chat.View()
	require.Len(t, view.Messages, 1)
	assert.Equal(t, SenderBot, view.Messages[0].Sender)
	assert.Equal(t, responder.Greeting, view.Messages[0].Text)
	assert.False(t, view.Typing)
}

func TestChatReplyUsesDreamJob(t *testing.T) {
	f := newFixture(t)
	f.store.UpdateProfile(models.ProfilePatch{DreamJob: models.String("Data Scientist")})
	chat := NewChat(f.store, f.runner, 20*time.Millisecond)

	var mu sync.Mutex
	var seen []string
	unsubscribe := chat.Subscribe(func(m Message) {
		mu.Lock()
		seen = append(seen, m.Sender)
		mu.Unlock()
	})
	defer unsubscribe()

	msg, task, err := chat.Send("What should I learn next?")
	require.NoError(t, err)
	assert.Equal(t, SenderUser, msg.Sender)
	assert.True(t, chat.View().Typing)

	reply := wait(t, task)
	assert.Equal(t, SenderBot, reply.Sender)
	assert.Contains(t, reply.Text, "pursuing a career as a Data Scientist")

	view := chat.View()
	require.Len(t, view.Messages, 3)
	assert.Equal(t, reply.Text, view.Messages[2].Text)
	assert.False(t, view.Typing)

	mu.Lock()
	assert.Equal(t, []string{SenderUser, SenderBot}, seen)
	mu.Unlock()
}

func TestChatStopsTypingWhenReplyCanceled(t *testing.T) {
	f := newFixture(t)
	chat := NewChat(f.store, f.runner, time.Hour)

	_, task, err := chat.Send("Any interview advice?")
	require.NoError(t, err)
	assert.True(t, chat.View().Typing)

	f.runner.Close()
	_, err = task.Wait(context.Background())
	assert.ErrorIs(t, err, tasks.ErrCanceled)

	assert.Eventually(t, func() bool {
		return !chat.View().Typing
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, chat.View().Messages, 2)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	f := newFixture(t)
	chat := NewChat(f.store, f.runner, 0)

	_, _, err := chat.Send("   \n")
	requireNotice(t, err, "Empty message")
	assert.Len(t, chat.View().Messages, 1)
}

func TestChatEveryMessageGetsAReply(t *testing.T) {
	f := newFixture(t)
	chat := NewChat(f.store, f.runner, 5*time.Millisecond)

	_, first, err := chat.Send("resume help")
	require.NoError(t, err)
	_, second, err := chat.Send("networking help")
	require.NoError(t, err)

	a := wait(t, first)
	b := wait(t, second)
	assert.True(t, strings.HasPrefix(a.Text, "Here are some tips to improve your resume:"))
	assert.True(t, strings.HasPrefix(b.Text, "Here are effective networking strategies:"))
	assert.Len(t, chat.View().Messages, 5)
}
