// Package quizbot plays the quote quiz in chat.
package quizbot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/jbpratt/quotes/internal/chat"
	"github.com/jbpratt/quotes/internal/quiz"
)

const helpText = "Start a quiz with `quiz start`, stop it with `quiz stop`. " +
	"PM the number beside the author `/w quizbot 2`"

type Sender interface {
	Send(ctx context.Context, msg string) error
	SendPriv(ctx context.Context, msg, user string) error
}

// QuizBot runs one quiz session at a time, played by the user who started it.
type QuizBot struct {
	ctx     context.Context
	logger  *zap.SugaredLogger
	sender  Sender
	session *quiz.Session

	mu    sync.Mutex
	owner string
}

func New(
	ctx context.Context,
	logger *zap.SugaredLogger,
	sender Sender,
	source quiz.Source,
	opts ...quiz.SessionOption,
) *QuizBot {
	b := &QuizBot{
		ctx:    ctx,
		logger: logger,
		sender: sender,
	}
	opts = append(opts, quiz.WithOnAdvance(b.onAdvance))
	b.session = quiz.NewSession(logger, source, opts...)
	return b
}

// Register hooks the bot up to client.
func (b *QuizBot) Register(client *chat.Client) {
	client.Handle(chat.KindMsg, b.OnMsg)
	client.Handle(chat.KindPrivMsg, b.OnPrivMsg)
}

func (b *QuizBot) Owner() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owner
}

func (b *QuizBot) OnMsg(ctx context.Context, msg *chat.Msg) error {
	fields := strings.Fields(strings.ToLower(msg.Data))
	if len(fields) == 0 || (fields[0] != "quiz" && fields[0] != "!quiz") {
		return nil
	}

	command := "help"
	if len(fields) > 1 {
		command = fields[1]
	}

	switch command {
	case "start", "new":
		return b.start(ctx, msg)
	case "stop":
		return b.stop(ctx, msg)
	case "score":
		snap := b.session.Snapshot()
		return b.send(ctx, fmt.Sprintf("%s has %d point(s) after %d of %d", b.Owner(), snap.Score, snap.Position, snap.Total))
	default:
		return b.send(ctx, helpText)
	}
}

func (b *QuizBot) start(ctx context.Context, msg *chat.Msg) error {
	if b.session.Snapshot().State.InProgress() {
		return b.send(ctx, fmt.Sprintf("a quiz is already in progress for %s", b.Owner()))
	}

	b.mu.Lock()
	b.owner = msg.User
	b.mu.Unlock()

	records := b.session.Start(ctx)
	b.logger.Infow("quiz started", "owner", msg.User, "questions", len(records))
	if len(records) == 0 {
		return b.send(ctx, "No quotes available, nothing to play DuckerZ")
	}

	if err := b.send(ctx, fmt.Sprintf(
		"Quote quiz for %s! %s questions, PM the number beside the author.",
		msg.User, humanize.Comma(int64(len(records))),
	)); err != nil {
		return err
	}

	return b.render(ctx, b.session.Snapshot())
}

func (b *QuizBot) stop(ctx context.Context, msg *chat.Msg) error {
	if !b.session.Snapshot().State.InProgress() {
		return b.send(ctx, "no quiz in progress to stop")
	}
	if msg.User != b.Owner() && !msg.IsMod() {
		return b.send(ctx, fmt.Sprintf("only %s or a moderator can stop the quiz", b.Owner()))
	}

	b.session.Stop()
	b.logger.Infow("quiz stopped", "by", msg.User)
	return b.send(ctx, "quiz stopped")
}

func (b *QuizBot) OnPrivMsg(ctx context.Context, msg *chat.Msg) error {
	b.logger.Debugw("private message received", "user", msg.User, "msg", msg.Data)

	if !b.session.Snapshot().State.InProgress() {
		return b.sendPriv(ctx, "no quiz in progress, start one with `quiz start`", msg.User)
	}
	if owner := b.Owner(); msg.User != owner {
		return b.sendPriv(ctx, fmt.Sprintf("%s is playing right now", owner), msg.User)
	}

	options, err := b.session.Options()
	if err != nil {
		return b.sendPriv(ctx, "wait for the next question", msg.User)
	}

	choice, err := strconv.Atoi(strings.TrimSpace(msg.Data))
	if err != nil || choice < 1 || choice > len(options) {
		return b.sendPriv(ctx, "Invalid answer, PM the number of the answer", msg.User)
	}

	res, err := b.session.Submit(options[choice-1])
	switch {
	case errors.Is(err, quiz.ErrFeedbackPending):
		return b.sendPriv(ctx, "wait for the next question", msg.User)
	case err != nil:
		b.logger.Infow("answer rejected", "user", msg.User, "err", err)
		return nil
	}

	feedback := fmt.Sprintf("Correct! It was %s.", res.Answer)
	if !res.Correct {
		feedback = fmt.Sprintf("Wrong, %s picked %s. It was %s.", msg.User, res.Submitted, res.Answer)
	}
	feedback += fmt.Sprintf(" Score: %d", res.Snapshot.Score)
	if err = b.send(ctx, feedback); err != nil {
		return err
	}

	if res.Snapshot.State == quiz.ShowingFeedback {
		// the session calls onAdvance once the feedback delay is over
		return nil
	}
	return b.render(ctx, res.Snapshot)
}

func (b *QuizBot) onAdvance(snap quiz.Snapshot) {
	if err := b.render(b.ctx, snap); err != nil {
		b.logger.Errorw("failed to post next question", "err", err)
	}
}

func (b *QuizBot) render(ctx context.Context, snap quiz.Snapshot) error {
	if snap.State == quiz.Finished {
		summary := b.session.Summary()
		return b.send(ctx, fmt.Sprintf(
			"Quiz complete! %s scored %d/%d (%d%%), %s.",
			b.Owner(), summary.Score, summary.Total, summary.Percent(), summary.Rating(),
		))
	}

	record, err := b.session.Current()
	if err != nil {
		return nil
	}
	options, err := b.session.Options()
	if err != nil {
		return nil
	}

	leading := fmt.Sprintf("%s quote of %d", humanize.Ordinal(snap.Position+1), snap.Total)
	if snap.Position == snap.Total-1 {
		leading = "Final quote"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: `%s` Who said it?", leading, record.Phrase)
	for idx, opt := range options {
		fmt.Fprintf(&sb, " `%d) %s`", idx+1, opt)
	}

	b.logger.Infow("posting question", "position", snap.Position)
	return b.send(ctx, sb.String())
}

func (b *QuizBot) send(ctx context.Context, msg string) error {
	if err := b.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send msg: %w", err)
	}
	return nil
}

func (b *QuizBot) sendPriv(ctx context.Context, msg, user string) error {
	if err := b.sender.SendPriv(ctx, msg, user); err != nil {
		return fmt.Errorf("failed to send private msg to %s: %w", user, err)
	}
	return nil
}
