package grading

import "fmt"

// State enumerates the per-answer pipeline states.
type State string

const (
	StateRetrieve        State = "RETRIEVE"
	StateExamine         State = "EXAMINE"
	StateCheckDivergence State = "CHECK_DIVERGENCE"
	StateArbitrate       State = "ARBITRATE"
	StateConsensus       State = "CONSENSUS"
	StateDone            State = "DONE"
	StateFailed          State = "FAILED"
)

// Event enumerates the transitions between pipeline states.
type Event string

const (
	EventContextReady  Event = "context-ready"
	EventExaminersDone Event = "examiners-done"
	EventDivergent     Event = "divergent"
	EventConverged     Event = "converged"
	EventArbitrated    Event = "arbitrated"
	EventFinalized     Event = "finalized"
	EventFailure       Event = "failure"
)

type transitionKey struct {
	state State
	event Event
}

var transitions = map[transitionKey]State{
	{StateRetrieve, EventContextReady}:     StateExamine,
	{StateExamine, EventExaminersDone}:     StateCheckDivergence,
	{StateCheckDivergence, EventDivergent}: StateArbitrate,
	{StateCheckDivergence, EventConverged}: StateConsensus,
	{StateArbitrate, EventArbitrated}:      StateConsensus,
	{StateConsensus, EventFinalized}:       StateDone,
	{StateRetrieve, EventFailure}:          StateFailed,
	{StateExamine, EventFailure}:           StateFailed,
	{StateCheckDivergence, EventFailure}:   StateFailed,
	{StateArbitrate, EventFailure}:         StateFailed,
	{StateConsensus, EventFailure}:         StateFailed,
}

// Transition returns the next state for (state, event), or an error when the
// pair is not part of the pipeline graph.
func Transition(state State, event Event) (State, error) {
	next, ok := transitions[transitionKey{state, event}]
	if !ok {
		return state, fmt.Errorf("invalid transition: %s on %s", event, state)
	}
	return next, nil
}

// advance is Transition for wiring the orchestrator itself: an invalid pair
// there is a pipeline bug, so it panics instead of degrading.
func advance(state State, event Event) State {
	next, err := Transition(state, event)
	if err != nil {
		panic(err)
	}
	return next
}
