package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/fantasymatch/go/internal/models"
	"github.com/mcdev12/fantasymatch/go/internal/unlock"
)

// Checker runs the server-side unlock check and serves the disclosures it produced.
type Checker interface {
	CheckUnlock(ctx context.Context, matchID uuid.UUID, cumulativeSeconds int) (*unlock.CheckUnlockResponse, error)
	ListDisclosures(ctx context.Context, matchID uuid.UUID, sinceStep int) ([]models.Disclosure, error)
}

// Recorder persists chat lines with the duration at which they were sent.
type Recorder interface {
	RecordMessage(ctx context.Context, matchID, senderID uuid.UUID, text string, cumulativeSeconds int) error
}

type Sender string

const (
	SenderMe     Sender = "me"
	SenderThem   Sender = "them"
	SenderSystem Sender = "system"
)

// Message is one line of the session timeline
type Message struct {
	ID                string    `json:"id"`
	Sender            Sender    `json:"sender"`
	Content           string    `json:"content"`
	CumulativeSeconds int       `json:"cumulative_seconds"`
	Timestamp         time.Time `json:"timestamp"`
	// Step is set on unlock announcements.
	Step int `json:"step,omitempty"`
}

// Config controls session timing
type Config struct {
	// TickInterval is the wall time per elapsed second; shortened by simulators.
	TickInterval time.Duration
	// CheckEvery runs an unlock check every N ticks.
	CheckEvery int
	Policy     unlock.Policy
	// QuickReplies enables the simulated counterpart; nil disables it.
	QuickReplies  []string
	ReplyMinDelay time.Duration
	ReplyMaxDelay time.Duration
	// OnMessage is called, outside the session lock, for every appended message.
	OnMessage func(Message)
}

// DefaultQuickReplies are the simulated counterpart's canned lines.
func DefaultQuickReplies() []string {
	return []string{
		"That's really interesting! Tell me more...",
		"I love how you think about that 😊",
		"Wow, that's such a unique perspective!",
		"I can't wait for our next fantasy to unlock!",
		"You're making this so much fun!",
	}
}

func DefaultConfig() Config {
	return Config{
		TickInterval:  time.Second,
		CheckEvery:    1,
		Policy:        unlock.DefaultPolicy(),
		ReplyMinDelay: time.Second,
		ReplyMaxDelay: 3 * time.Second,
	}
}

// FormatElapsed renders seconds as m:ss.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Greeting is the counterpart's opening line, addressed to the user's alias.
func Greeting(alias string) string {
	return fmt.Sprintf("Hey there, %s! Ready to unlock some mysteries together? 😊", alias)
}
