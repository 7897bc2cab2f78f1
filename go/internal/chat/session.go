package chat

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/fantasymatch/go/internal/events"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/rs/zerolog/log"
)

var ErrSessionEnded = errors.New("chat session ended")

// Session drives one participant's elapsed chat time and folds server unlocks into the
// timeline. Unlock checks run off the tick path; an announcement is appended only after
// the server reported the advance.
type Session struct {
	match    models.Match
	self     uuid.UUID
	checker  Checker
	recorder Recorder
	cfg      Config
	clock    clockwork.Clock

	mu        sync.Mutex
	elapsed   int
	knownStep int
	messages  []Message
	inFlight  bool
	ended     bool
	timers    []clockwork.Timer
	nextID    int

	wg sync.WaitGroup
}

// NewSession starts a session for self in match at zero elapsed seconds. recorder may be nil.
func NewSession(match models.Match, self uuid.UUID, checker Checker, recorder Recorder, cfg Config, clock clockwork.Clock) (*Session, error) {
	if !match.HasParticipant(self) {
		return nil, fmt.Errorf("user %s is not in match %s", self, match.ID)
	}
	if cfg.CheckEvery < 1 {
		cfg.CheckEvery = 1
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	s := &Session{
		match:     match,
		self:      self,
		checker:   checker,
		recorder:  recorder,
		cfg:       cfg,
		clock:     clock,
		knownStep: match.UnlockedStep,
	}
	s.post(Message{Sender: SenderThem, Content: Greeting(s.selfAlias())})
	return s, nil
}

func (s *Session) selfAlias() string {
	if s.match.User1ID == s.self {
		return s.match.User1Alias
	}
	return s.match.User2Alias
}

// Run ticks once per TickInterval until ctx is cancelled or the session ends.
func (s *Session) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if !s.Tick(ctx) {
				return
			}
		}
	}
}

// Tick advances elapsed time by one second and schedules an unlock check when due.
// It reports false once the session has ended.
func (s *Session) Tick(ctx context.Context) bool {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return false
	}
	s.elapsed++
	elapsed := s.elapsed
	due := elapsed%s.cfg.CheckEvery == 0 && !s.inFlight && s.knownStep < s.cfg.Policy.MaxStep
	if due {
		s.inFlight = true
		s.wg.Add(1)
	}
	s.mu.Unlock()

	if due {
		go s.check(ctx, elapsed)
	}
	return true
}

func (s *Session) check(ctx context.Context, elapsed int) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	res, err := s.checker.CheckUnlock(ctx, s.match.ID, elapsed)
	if err != nil {
		// retried on the next due tick
		log.Warn().Err(err).Str("match_id", s.match.ID.String()).Int("elapsed", elapsed).Msg("unlock check failed")
		return
	}

	reached := res.ReachedStep()
	s.mu.Lock()
	known := s.knownStep
	s.mu.Unlock()
	if reached <= known {
		return
	}

	disclosures := res.Disclosures
	if !res.Success || reached != known+1 || len(disclosures) == 0 {
		// advanced by the peer or more than one step behind: fetch what we missed
		disclosures, err = s.checker.ListDisclosures(ctx, s.match.ID, known)
		if err != nil {
			log.Warn().Err(err).Str("match_id", s.match.ID.String()).Msg("failed to fetch disclosures")
			return
		}
	}
	s.announce(known, reached, disclosures)
}

// announce appends one system message per disclosure above known, in step order. A step
// with no disclosures still gets a single generic line.
func (s *Session) announce(known, reached int, disclosures []models.Disclosure) {
	sorted := make([]models.Disclosure, 0, len(disclosures))
	for _, d := range disclosures {
		if d.Step > known && d.Step <= reached {
			sorted = append(sorted, d)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Step < sorted[j].Step })

	s.mu.Lock()
	if s.ended || s.knownStep >= reached {
		s.mu.Unlock()
		return
	}
	s.knownStep = reached
	var appended []Message
	next := 0
	for step := known + 1; step <= reached; step++ {
		revealed := false
		for ; next < len(sorted) && sorted[next].Step == step; next++ {
			revealed = true
			appended = append(appended, s.appendLocked(Message{
				Sender:  SenderSystem,
				Content: events.DisclosureMessage(sorted[next].Question, sorted[next].Answer),
				Step:    step,
			}))
		}
		// neither participant had an answer to show
		if !revealed {
			appended = append(appended, s.appendLocked(Message{
				Sender:  SenderSystem,
				Content: events.StepUnlockedMessage(step),
				Step:    step,
			}))
		}
	}
	s.mu.Unlock()

	log.Info().
		Str("match_id", s.match.ID.String()).
		Int("step", reached).
		Int("disclosures", len(sorted)).
		Msg("unlock announced")
	s.notify(appended...)
}

// Send appends the user's message right away; persistence and the quick reply happen
// off the caller's path.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, errors.New("message is empty")
	}

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return Message{}, ErrSessionEnded
	}
	msg := s.appendLocked(Message{Sender: SenderMe, Content: text})
	if len(s.cfg.QuickReplies) > 0 {
		s.timers = append(s.timers, s.clock.AfterFunc(s.replyDelay(), s.quickReply))
	}
	if s.recorder != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.recorder.RecordMessage(ctx, s.match.ID, s.self, msg.Content, msg.CumulativeSeconds); err != nil {
				log.Warn().Err(err).Str("match_id", s.match.ID.String()).Msg("failed to record message")
			}
		}()
	}
	s.mu.Unlock()

	s.notify(msg)
	return msg, nil
}

func (s *Session) replyDelay() time.Duration {
	spread := s.cfg.ReplyMaxDelay - s.cfg.ReplyMinDelay
	if spread <= 0 {
		return s.cfg.ReplyMinDelay
	}
	return s.cfg.ReplyMinDelay + rand.N(spread)
}

func (s *Session) quickReply() {
	line := s.cfg.QuickReplies[rand.IntN(len(s.cfg.QuickReplies))]
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	msg := s.appendLocked(Message{Sender: SenderThem, Content: line})
	s.mu.Unlock()
	s.notify(msg)
}

// Summary describes a finished session.
type Summary struct {
	Elapsed  int
	Step     int
	Messages int
}

// End stops ticking and pending replies, then waits for in-flight checks. Elapsed time
// is not carried into later sessions.
func (s *Session) End() Summary {
	s.mu.Lock()
	s.ended = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{Elapsed: s.elapsed, Step: s.knownStep, Messages: len(s.messages)}
}

// Wait blocks until in-flight checks and recordings finish.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

func (s *Session) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.knownStep
}

// NextUnlockIn is the remaining session time before the next step is due, or false
// at the terminal step.
func (s *Session) NextUnlockIn() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.knownStep >= s.cfg.Policy.MaxStep {
		return 0, false
	}
	remaining := s.cfg.Policy.Threshold(s.knownStep) - s.elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Messages returns a copy of the timeline.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) post(m Message) {
	s.mu.Lock()
	msg := s.appendLocked(m)
	s.mu.Unlock()
	s.notify(msg)
}

func (s *Session) appendLocked(m Message) Message {
	s.nextID++
	m.ID = fmt.Sprintf("%d", s.nextID)
	m.CumulativeSeconds = s.elapsed
	m.Timestamp = s.clock.Now()
	s.messages = append(s.messages, m)
	return m
}

func (s *Session) notify(msgs ...Message) {
	if s.cfg.OnMessage == nil {
		return
	}
	for _, m := range msgs {
		s.cfg.OnMessage(m)
	}
}
