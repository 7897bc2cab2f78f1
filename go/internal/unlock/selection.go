package unlock

import (
	"fmt"
	"sort"

	"github.com/mcdev12/fantasymatch/go/internal/models"
)

const (
	SelectionFirst      = "first"
	SelectionRoundRobin = "round_robin"
)

// Selector picks which of a participant's answers is disclosed at a step.
// answers are the participant's stored answers; ok is false when none can be disclosed.
type Selector interface {
	Name() string
	Select(answers []models.FantasyAnswer, step int) (models.FantasyAnswer, bool)
}

// NewSelector resolves a configured strategy name.
func NewSelector(name string) (Selector, error) {
	switch name {
	case "", SelectionFirst:
		return FirstAnswer{}, nil
	case SelectionRoundRobin:
		return RoundRobin{}, nil
	default:
		return nil, fmt.Errorf("unknown selection strategy %q", name)
	}
}

// FirstAnswer always discloses the participant's earliest answer, for every step.
type FirstAnswer struct{}

func (FirstAnswer) Name() string { return SelectionFirst }

func (FirstAnswer) Select(answers []models.FantasyAnswer, _ int) (models.FantasyAnswer, bool) {
	ordered := byCreation(answers)
	if len(ordered) == 0 {
		return models.FantasyAnswer{}, false
	}
	return ordered[0], true
}

// RoundRobin walks the answers in creation order: step 1 gets the first, step 2 the second,
// wrapping when a participant has fewer answers than steps.
type RoundRobin struct{}

func (RoundRobin) Name() string { return SelectionRoundRobin }

func (RoundRobin) Select(answers []models.FantasyAnswer, step int) (models.FantasyAnswer, bool) {
	ordered := byCreation(answers)
	if len(ordered) == 0 || step < 1 {
		return models.FantasyAnswer{}, false
	}
	return ordered[(step-1)%len(ordered)], true
}

func byCreation(answers []models.FantasyAnswer) []models.FantasyAnswer {
	ordered := make([]models.FantasyAnswer, len(answers))
	copy(ordered, answers)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].QuestionID < ordered[j].QuestionID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	return ordered
}
