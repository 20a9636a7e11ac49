// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loader

import (
	"github.com/looplab/fsm"
)

// State is a session lifecycle state
type State string

// Session states. Every run starts in StateIdle and ends in StateDone or
// StateAborted.
const (
	StateIdle         State = "idle"
	StateStarted      State = "started"
	StateTransferring State = "transferring"
	StateTransferred  State = "transferred"
	StateBooted       State = "booted"
	StateCalibrated   State = "calibrated"
	StateDone         State = "done"
	StateAborted      State = "aborted"
)

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// state machine events
const (
	eventStart       = "start"
	eventTransfer    = "transfer"
	eventTransferred = "transferred"
	eventBoot        = "boot"
	eventCalibrate   = "calibrate"
	eventDone        = "done"
	eventAbort       = "abort"
)

// newStateMachine builds the forward-only transition table. Legacy sessions
// skip StateStarted and StateCalibrated.
func newStateMachine(onEnter func(from, to State)) *fsm.FSM {
	return fsm.NewFSM(
		string(StateIdle),
		fsm.Events{
			{Name: eventStart, Src: []string{string(StateIdle)}, Dst: string(StateStarted)},
			{Name: eventTransfer, Src: []string{string(StateIdle), string(StateStarted)}, Dst: string(StateTransferring)},
			{Name: eventTransferred, Src: []string{string(StateTransferring)}, Dst: string(StateTransferred)},
			{Name: eventBoot, Src: []string{string(StateTransferred)}, Dst: string(StateBooted)},
			{Name: eventCalibrate, Src: []string{string(StateBooted)}, Dst: string(StateCalibrated)},
			{Name: eventDone, Src: []string{string(StateBooted), string(StateCalibrated)}, Dst: string(StateDone)},
			{Name: eventAbort, Src: []string{
				string(StateIdle),
				string(StateStarted),
				string(StateTransferring),
				string(StateTransferred),
				string(StateBooted),
				string(StateCalibrated),
			}, Dst: string(StateAborted)},
		},
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) { onEnter(State(e.Src), State(e.Dst)) },
		},
	)
}
