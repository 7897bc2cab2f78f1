package unlock

import (
	"errors"

	"github.com/mcdev12/fantasymatch/go/internal/models"
)

const (
	MessageNotEnoughTime  = "Not enough time elapsed for unlock"
	MessageUnlockedByPeer = "Step already unlocked by peer"
)

// ErrInvalidRequest is returned for malformed unlock-check input.
var ErrInvalidRequest = errors.New("invalid unlock request")

// CheckUnlockRequest is the unlock-check input reported by a chat client.
type CheckUnlockRequest struct {
	MatchID           string `json:"matchId"`
	CumulativeSeconds int    `json:"cumulativeSeconds"`
}

// CheckUnlockResponse is the unlock-check result. Fields are pointers where a zero
// value is meaningful and must still be written (currentStep 0).
type CheckUnlockResponse struct {
	Success           bool                `json:"success"`
	UnlockedStep      *int                `json:"unlockedStep,omitempty"`
	Message           string              `json:"message,omitempty"`
	CurrentStep       *int                `json:"currentStep,omitempty"`
	TimeThreshold     *int                `json:"timeThreshold,omitempty"`
	CumulativeSeconds *int                `json:"cumulativeSeconds,omitempty"`
	Disclosures       []models.Disclosure `json:"disclosures,omitempty"`
	Error             string              `json:"error,omitempty"`
}

// ReachedStep is the match step the response proves, whichever branch produced it.
func (r *CheckUnlockResponse) ReachedStep() int {
	switch {
	case r == nil:
		return 0
	case r.UnlockedStep != nil:
		return *r.UnlockedStep
	case r.CurrentStep != nil:
		return *r.CurrentStep
	default:
		return 0
	}
}

// ListDisclosuresRequest asks for the disclosures of a match above a known step.
type ListDisclosuresRequest struct {
	MatchID   string `json:"matchId"`
	SinceStep int    `json:"sinceStep"`
}

// ListDisclosuresResponse returns disclosures in step order.
type ListDisclosuresResponse struct {
	MatchID     string              `json:"matchId"`
	Disclosures []models.Disclosure `json:"disclosures"`
}

func intPtr(v int) *int {
	return &v
}
