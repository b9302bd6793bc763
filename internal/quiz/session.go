package quiz

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultFeedbackDelay is how long an answer's feedback stays up before the
// next question.
const DefaultFeedbackDelay = 2 * time.Second

var (
	ErrNotStarted         = errors.New("session has not been started")
	ErrFeedbackPending    = errors.New("feedback is still being shown")
	ErrSessionFinished    = errors.New("session is already finished")
	ErrPositionOutOfRange = errors.New("position out of range")
)

type State int

const (
	NotStarted State = iota
	AwaitingAnswer
	ShowingFeedback
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case AwaitingAnswer:
		return "awaiting answer"
	case ShowingFeedback:
		return "showing feedback"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

func (s State) InProgress() bool {
	return s == AwaitingAnswer || s == ShowingFeedback
}

type Snapshot struct {
	State    State
	Position int
	Score    int
	Total    int
}

// Result describes a submitted answer.
type Result struct {
	Submitted string
	Answer    string
	Correct   bool
	// Last is set when the answer was for the final question.
	Last     bool
	Snapshot Snapshot
}

type SessionOption func(*Session)

func WithRand(rng Rand) SessionOption {
	return func(s *Session) { s.rng = rng }
}

func WithScheduler(scheduler Scheduler) SessionOption {
	return func(s *Session) { s.scheduler = scheduler }
}

// WithFeedbackDelay sets the pause between an answer and the next question.
// Zero advances immediately.
func WithFeedbackDelay(d time.Duration) SessionOption {
	return func(s *Session) { s.feedbackDelay = d }
}

func WithOptionsCount(n int) SessionOption {
	return func(s *Session) { s.optionsCount = n }
}

func WithDistinctOptions(distinct bool) SessionOption {
	return func(s *Session) { s.distinct = distinct }
}

// WithOnAdvance registers a hook called when a delayed advance moves the
// session to the next question or to the finished state. It runs on the
// scheduler's goroutine without the session lock held. Immediate advances are
// reported through the Result returned by Submit instead.
func WithOnAdvance(f func(Snapshot)) SessionOption {
	return func(s *Session) { s.onAdvance = f }
}

// Session runs one pass over a shuffled quote set.
type Session struct {
	mu            sync.Mutex
	logger        *zap.SugaredLogger
	source        Source
	rng           Rand
	scheduler     Scheduler
	feedbackDelay time.Duration
	optionsCount  int
	distinct      bool
	onAdvance     func(Snapshot)

	records  []*Record
	authors  []string
	options  []string
	position int
	score    int
	state    State

	pending    Timer
	generation uint64
}

func NewSession(logger *zap.SugaredLogger, source Source, opts ...SessionOption) *Session {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Session{
		logger:        logger,
		source:        source,
		rng:           newRand(),
		scheduler:     timeScheduler{},
		feedbackDelay: DefaultFeedbackDelay,
		optionsCount:  DefaultOptionsCount,
		distinct:      true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the quotes, shuffles them and resets position and score. Any
// advance still pending from a previous session is dropped. The shuffled
// records are returned; with no records the session is immediately finished.
func (s *Session) Start(ctx context.Context) []*Record {
	records := Load(ctx, s.logger, s.source)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPending()
	s.generation++

	s.records = Shuffle(s.rng, records)
	s.authors = Authors(s.records)
	s.position = 0
	s.score = 0
	s.options = nil

	if len(s.records) == 0 {
		s.state = Finished
		s.logger.Warn("session started without quotes")
	} else {
		s.state = AwaitingAnswer
		s.options = s.generate(0)
		s.logger.Infow("session started", "total", len(s.records))
	}

	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// Stop abandons the session.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPending()
	s.generation++
	s.state = NotStarted
	s.records, s.authors, s.options = nil, nil, nil
	s.position, s.score = 0, 0
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{Score: s.score, Total: len(s.records)}
}

// Current returns the record awaiting an answer or being given feedback.
func (s *Session) Current() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkActive(); err != nil {
		return nil, err
	}
	return s.records[s.position], nil
}

// Options returns the option set of the current question. It is fixed for the
// lifetime of the question.
func (s *Session) Options() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkActive(); err != nil {
		return nil, err
	}
	return append([]string(nil), s.options...), nil
}

// OptionsAt derives a fresh option set for the record at pos.
func (s *Session) OptionsAt(pos int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == NotStarted {
		return nil, ErrNotStarted
	}
	if pos < 0 || pos >= len(s.records) {
		return nil, ErrPositionOutOfRange
	}
	if pos == s.position && s.options != nil {
		return append([]string(nil), s.options...), nil
	}
	return s.generate(pos), nil
}

// Submit scores answer against the current record's author and moves on,
// either at once or after the feedback delay.
func (s *Session) Submit(answer string) (*Result, error) {
	s.mu.Lock()

	if err := s.checkAwaiting(); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	current := s.records[s.position]
	res := &Result{
		Submitted: answer,
		Answer:    current.Author,
		Correct:   answer == current.Author,
		Last:      s.position == len(s.records)-1,
	}
	if res.Correct {
		s.score++
	}

	s.logger.Debugw("answer submitted", "position", s.position, "correct", res.Correct, "score", s.score)

	if s.feedbackDelay <= 0 {
		s.advanceLocked()
		res.Snapshot = s.snapshot()
		s.mu.Unlock()
		return res, nil
	}

	s.state = ShowingFeedback
	gen := s.generation
	s.pending = s.scheduler.AfterFunc(s.feedbackDelay, func() {
		s.advance(gen)
	})
	res.Snapshot = s.snapshot()
	s.mu.Unlock()

	return res, nil
}

func (s *Session) advance(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || s.state != ShowingFeedback {
		s.mu.Unlock()
		s.logger.Debugw("ignoring stale advance", "generation", gen)
		return
	}

	s.pending = nil
	s.advanceLocked()
	snap := s.snapshot()
	hook := s.onAdvance
	s.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
}

func (s *Session) advanceLocked() {
	s.position++
	if s.position >= len(s.records) {
		s.position = len(s.records)
		s.state = Finished
		s.options = nil
		s.logger.Infow("session finished", "score", s.score, "total", len(s.records))
		return
	}

	s.state = AwaitingAnswer
	s.options = s.generate(s.position)
}

func (s *Session) generate(pos int) []string {
	correct := s.records[pos].Author
	if s.distinct {
		return GenerateDistinctOptions(s.rng, correct, s.authors, s.optionsCount)
	}
	return GenerateOptions(s.rng, correct, s.authors, s.optionsCount)
}

func (s *Session) cancelPending() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *Session) checkActive() error {
	switch s.state {
	case NotStarted:
		return ErrNotStarted
	case Finished:
		return ErrSessionFinished
	}
	return nil
}

func (s *Session) checkAwaiting() error {
	switch s.state {
	case AwaitingAnswer:
		return nil
	case ShowingFeedback:
		return ErrFeedbackPending
	}
	return s.checkActive()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		State:    s.state,
		Position: s.position,
		Score:    s.score,
		Total:    len(s.records),
	}
}
