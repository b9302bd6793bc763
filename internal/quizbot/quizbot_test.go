package quizbot_test

import (
	"context"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jbpratt/quotes/internal/chat"
	"github.com/jbpratt/quotes/internal/quiz"
	"github.com/jbpratt/quotes/internal/quizbot"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const quotes = `[
  {"phrase": "Penso, logo existo.", "author": "René Descartes"},
  {"phrase": "Só sei que nada sei.", "author": "Sócrates"}
]`

var authorOf = map[string]string{
	"Penso, logo existo.":  "René Descartes",
	"Só sei que nada sei.": "Sócrates",
}

type whisper struct {
	user, msg string
}

type recordingSender struct {
	mu       sync.Mutex
	msgs     []string
	whispers []whisper
}

func (s *recordingSender) Send(_ context.Context, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSender) SendPriv(_ context.Context, msg, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.whispers = append(s.whispers, whisper{user, msg})
	return nil
}

func (s *recordingSender) last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msgs[len(s.msgs)-1]
}

func (s *recordingSender) lastWhisper() whisper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.whispers[len(s.whispers)-1]
}

var (
	phraseRe = regexp.MustCompile("`([^`]+)` Who said it\\?")
	optionRe = regexp.MustCompile("`(\\d+)\\) ([^`]+)`")
)

// answerFor finds the option number of the right or a wrong author in a posted
// question.
func answerFor(t *testing.T, question string, correct bool) string {
	t.Helper()

	m := phraseRe.FindStringSubmatch(question)
	require.NotNil(t, m, question)
	author := authorOf[m[1]]

	for _, opt := range optionRe.FindAllStringSubmatch(question, -1) {
		if (opt[2] == author) == correct {
			return opt[1]
		}
	}
	t.Fatalf("no matching option in %q", question)
	return ""
}

func msg(user, data string) *chat.Msg {
	return &chat.Msg{Kind: chat.KindMsg, User: user, Data: data}
}

func priv(user, data string) *chat.Msg {
	return &chat.Msg{Kind: chat.KindPrivMsg, User: user, Data: data}
}

func TestQuizBotPlaysSession(t *testing.T) {
	sender := &recordingSender{}
	bot := quizbot.New(t.Context(), zaptest.NewLogger(t).Sugar(), sender, quiz.LiteralSource(quotes),
		quiz.WithRand(rand.New(rand.NewSource(1))),
		quiz.WithFeedbackDelay(0),
	)
	ctx := t.Context()

	require.NoError(t, bot.OnMsg(ctx, msg("bob", "hello there")))
	require.Empty(t, sender.msgs)

	require.NoError(t, bot.OnPrivMsg(ctx, priv("alice", "1")))
	require.Contains(t, sender.lastWhisper().msg, "no quiz in progress")

	require.NoError(t, bot.OnMsg(ctx, msg("alice", "quiz start")))
	require.Equal(t, "alice", bot.Owner())
	require.Contains(t, sender.msgs[0], "Quote quiz for alice! 2 questions")
	require.Contains(t, sender.last(), "1st quote of 2")

	require.NoError(t, bot.OnMsg(ctx, msg("bob", "!quiz start")))
	require.Contains(t, sender.last(), "already in progress for alice")

	require.NoError(t, bot.OnPrivMsg(ctx, priv("bob", "1")))
	require.Equal(t, whisper{"bob", "alice is playing right now"}, sender.lastWhisper())

	require.NoError(t, bot.OnPrivMsg(ctx, priv("alice", "9")))
	require.Contains(t, sender.lastWhisper().msg, "Invalid answer")

	first := sender.msgs[len(sender.msgs)-2]
	require.NoError(t, bot.OnPrivMsg(ctx, priv("alice", answerFor(t, first, true))))
	require.Contains(t, sender.msgs[len(sender.msgs)-2], "Correct!")
	require.Contains(t, sender.last(), "Final quote")

	second := sender.last()
	require.NoError(t, bot.OnPrivMsg(ctx, priv("alice", answerFor(t, second, false))))
	require.Contains(t, sender.msgs[len(sender.msgs)-2], "Wrong, alice picked")
	require.Equal(t, "Quiz complete! alice scored 1/2 (50%), fair.", sender.last())

	require.NoError(t, bot.OnPrivMsg(ctx, priv("alice", "1")))
	require.Contains(t, sender.lastWhisper().msg, "no quiz in progress")
}

func TestQuizBotStop(t *testing.T) {
	sender := &recordingSender{}
	bot := quizbot.New(t.Context(), zaptest.NewLogger(t).Sugar(), sender, quiz.LiteralSource(quotes))
	ctx := t.Context()

	require.NoError(t, bot.OnMsg(ctx, msg("alice", "quiz stop")))
	require.Equal(t, "no quiz in progress to stop", sender.last())

	require.NoError(t, bot.OnMsg(ctx, msg("alice", "quiz start")))
	require.NoError(t, bot.OnMsg(ctx, msg("bob", "quiz stop")))
	require.Contains(t, sender.last(), "only alice or a moderator")

	mod := msg("carol", "quiz stop")
	mod.Features = []string{"moderator"}
	require.NoError(t, bot.OnMsg(ctx, mod))
	require.Equal(t, "quiz stopped", sender.last())

	require.NoError(t, bot.OnMsg(ctx, msg("bob", "quiz")))
	require.Contains(t, sender.last(), "quiz start")
}

func TestQuizBotNoQuotes(t *testing.T) {
	sender := &recordingSender{}
	bot := quizbot.New(t.Context(), zaptest.NewLogger(t).Sugar(), sender, quiz.LiteralSource("not json"))

	require.NoError(t, bot.OnMsg(t.Context(), msg("alice", "quiz start")))
	require.Equal(t, []string{"No quotes available, nothing to play DuckerZ"}, sender.msgs)
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	stopped := t.stopped
	t.stopped = true
	return !stopped
}

type manualScheduler struct {
	timers []*manualTimer
}

func (s *manualScheduler) AfterFunc(_ time.Duration, f func()) quiz.Timer {
	t := &manualTimer{f: f}
	s.timers = append(s.timers, t)
	return t
}

func TestQuizBotFeedbackDelay(t *testing.T) {
	sender := &recordingSender{}
	scheduler := &manualScheduler{}
	bot := quizbot.New(t.Context(), zaptest.NewLogger(t).Sugar(), sender, quiz.LiteralSource(quotes),
		quiz.WithScheduler(scheduler),
		quiz.WithFeedbackDelay(2*time.Second),
	)
	ctx := t.Context()

	require.NoError(t, bot.OnMsg(ctx, msg("alice", "quiz start")))
	question := sender.last()

	require.NoError(t, bot.OnPrivMsg(ctx, priv("alice", answerFor(t, question, true))))
	require.Contains(t, sender.last(), "Correct!")
	require.Len(t, scheduler.timers, 1)

	require.NoError(t, bot.OnPrivMsg(ctx, priv("alice", "1")))
	require.Equal(t, whisper{"alice", "wait for the next question"}, sender.lastWhisper())

	scheduler.timers[0].f()
	require.True(t, strings.HasPrefix(sender.last(), "Final quote"), sender.last())

	require.NoError(t, bot.OnMsg(ctx, msg("alice", "quiz score")))
	require.Equal(t, "alice has 1 point(s) after 1 of 2", sender.last())
}
