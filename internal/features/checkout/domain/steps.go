package domain

import (
	"errors"
	"sync"
)

// Step is one stage of the checkout progression.
type Step int

const (
	StepServiceMode Step = iota
	StepCustomerInfo
	StepPayment
)

var stepNames = [...]string{"service_mode", "customer_info", "payment"}

func (s Step) String() string {
	if s < StepServiceMode || s > StepPayment {
		return "unknown"
	}
	return stepNames[s]
}

// Marker is the derived completion marker shown next to a step.
type Marker string

const (
	MarkerDone     Marker = "done"
	MarkerCurrent  Marker = "current"
	MarkerUpcoming Marker = "upcoming"
)

// StepState pairs a step with its marker.
type StepState struct {
	Step   Step   `json:"step"`
	Marker Marker `json:"marker"`
}

var (
	// ErrCannotProceed is returned by Next when the current step is incomplete.
	ErrCannotProceed = errors.New("checkout: current step is incomplete")
	// ErrLastStep is returned by Next on the payment step.
	ErrLastStep = errors.New("checkout: already on the last step")
)

// CanProceed reports whether service selection is complete:
// a mode is chosen and, for doorstep, so is a time slot.
func CanProceed(s State) bool {
	switch s.ServiceMode {
	case ServiceModeCarryIn:
		return true
	case ServiceModeDoorstep:
		return s.TimeSlot != ""
	default:
		return false
	}
}

// Sequencer walks service mode, customer info and payment in order.
// Gating always reads the latest committed store state.
type Sequencer struct {
	mu       sync.Mutex
	store    *Store
	current  Step
	customer CustomerInfo
}

// NewSequencer starts at service mode selection over store.
func NewSequencer(store *Store) *Sequencer {
	return &Sequencer{store: store}
}

// Current returns the active step.
func (q *Sequencer) Current() Step {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// SetCustomerInfo records the customer details entered on the customer info step.
func (q *Sequencer) SetCustomerInfo(info CustomerInfo) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.customer = info
}

// CustomerInfo returns the recorded customer details.
func (q *Sequencer) CustomerInfo() CustomerInfo {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.customer
}

// CanAdvance reports whether Next would succeed.
func (q *Sequencer) CanAdvance() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.canAdvance() == nil
}

// Next moves one step forward when the current step is complete.
func (q *Sequencer) Next() (Step, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.canAdvance(); err != nil {
		return q.current, err
	}
	q.current++
	return q.current, nil
}

// Back moves one step backward. It never touches cart or customer state.
func (q *Sequencer) Back() Step {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current > StepServiceMode {
		q.current--
	}
	return q.current
}

// Reset returns to the first step.
func (q *Sequencer) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.current = StepServiceMode
	q.customer = CustomerInfo{}
}

// StepStates returns every step with its marker.
func (q *Sequencer) StepStates() []StepState {
	q.mu.Lock()
	defer q.mu.Unlock()

	states := make([]StepState, 0, len(stepNames))
	for s := StepServiceMode; s <= StepPayment; s++ {
		marker := MarkerUpcoming
		switch {
		case s < q.current:
			marker = MarkerDone
		case s == q.current:
			marker = MarkerCurrent
		}
		states = append(states, StepState{Step: s, Marker: marker})
	}
	return states
}

func (q *Sequencer) canAdvance() error {
	switch q.current {
	case StepServiceMode:
		if !CanProceed(q.store.Snapshot()) {
			return ErrCannotProceed
		}
	case StepCustomerInfo:
		if err := q.customer.Validate(); err != nil {
			return errors.Join(ErrCannotProceed, err)
		}
	default:
		return ErrLastStep
	}
	return nil
}
