package unlock

import (
	"fmt"
	"time"
)

const (
	// DefaultInterval is the chat time between two reveal steps.
	DefaultInterval = 1200 * time.Second

	// DefaultMaxStep is the terminal step; a match has states 0..DefaultMaxStep.
	DefaultMaxStep = 3
)

// Policy holds the unlock cadence.
type Policy struct {
	Interval time.Duration
	MaxStep  int
}

// DefaultPolicy returns the product cadence: one step every 20 minutes, three steps total.
func DefaultPolicy() Policy {
	return Policy{Interval: DefaultInterval, MaxStep: DefaultMaxStep}
}

// Validate rejects cadences that could never unlock or would exceed the stored step range.
func (p Policy) Validate() error {
	if p.Interval < time.Second {
		return fmt.Errorf("unlock interval must be at least 1s, got %s", p.Interval)
	}
	if p.MaxStep < 1 || p.MaxStep > DefaultMaxStep {
		return fmt.Errorf("max step must be between 1 and %d, got %d", DefaultMaxStep, p.MaxStep)
	}
	return nil
}

// Decision is the result of evaluating a match's step against elapsed chat time.
type Decision struct {
	ShouldUnlock bool
	NextStep     int
}

// Threshold returns the elapsed seconds needed to move from step to step+1.
func (p Policy) Threshold(step int) int {
	return int(p.Interval/time.Second) * (step + 1)
}

// Evaluate decides whether currentStep may advance. At most one step is granted
// per call; a caller that is several intervals behind drains them one call at a time.
func (p Policy) Evaluate(currentStep, elapsedSeconds int) Decision {
	return Evaluate(currentStep, elapsedSeconds, p.MaxStep, p.Threshold)
}

// Evaluate is the pure unlock rule over an explicit threshold function.
func Evaluate(currentStep, elapsedSeconds, maxStep int, threshold func(step int) int) Decision {
	if currentStep < 0 || currentStep >= maxStep {
		return Decision{ShouldUnlock: false, NextStep: currentStep}
	}
	if elapsedSeconds >= threshold(currentStep) {
		return Decision{ShouldUnlock: true, NextStep: currentStep + 1}
	}
	return Decision{ShouldUnlock: false, NextStep: currentStep}
}
