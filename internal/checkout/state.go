package checkout

import (
	"fmt"
	"sync"
)

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var transitions = map[State][]State{
	StateIdle:       {StateValidating},
	StateValidating: {StateSubmitting, StateIdle},
	StateSubmitting: {StateSucceeded, StateFailed},
	StateSucceeded:  {StateIdle},
	StateFailed:     {StateIdle},
}

// Submission tracks one checkout attempt through its states.
type Submission struct {
	mu    sync.Mutex
	state State
}

func NewSubmission() *Submission {
	return &Submission{state: StateIdle}
}

func (s *Submission) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Advance moves to next or returns ErrIllegalTransition.
func (s *Submission) Advance(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, allowed := range transitions[s.state] {
		if allowed == next {
			s.state = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.state, next)
}
