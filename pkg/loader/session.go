// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loader

import (
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog/log"

	"github.com/Thermoquad/scumloader/pkg/scum"
	"github.com/Thermoquad/scumloader/pkg/transport"
)

// Result summarises a finished session
type Result struct {
	// State is StateDone or StateAborted
	State State

	// Visited lists every state entered, in order, starting with StateIdle
	Visited []State

	// Transferred is the number of unit bytes acknowledged or written
	Transferred int

	// Total is the number of unit bytes the transfer would deliver
	Total int

	// Elapsed is the wall time Run took
	Elapsed time.Duration
}

// Session uploads one firmware image over one transport.
type Session struct {
	protocol scum.Protocol
	t        transport.Transport
	fw       *scum.Firmware
	cfg      Config

	sm      *fsm.FSM
	visited []State
	started time.Time
	sent    int
	total   int
	ran     bool
	closed  bool
}

// NewSession prepares a session. Nothing is sent until Run.
func NewSession(protocol scum.Protocol, t transport.Transport, fw *scum.Firmware, opts ...Option) *Session {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		protocol: protocol,
		t:        t,
		fw:       fw,
		cfg:      cfg,
		visited:  []State{StateIdle},
	}
	s.sm = newStateMachine(s.onEnter)
	return s
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.sm.Current())
}

// Protocol returns the protocol variant in use
func (s *Session) Protocol() scum.Protocol {
	return s.protocol
}

// Run performs the whole upload. The transport is closed before Run
// returns, whatever the outcome. A session can only be run once.
func (s *Session) Run() (*Result, error) {
	if s.ran {
		return nil, ErrSessionUsed
	}
	s.ran = true
	s.started = s.cfg.Clock.Now()

	size := 0
	if s.fw != nil {
		size = s.fw.Len()
	}
	log.Info().
		Str("protocol", s.protocol.String()).
		Int("size", size).
		Msg("starting upload")

	var err error
	switch s.protocol {
	case scum.ProtocolLegacy:
		err = s.runLegacy()
	case scum.ProtocolFramed:
		err = s.runFramed()
	default:
		err = &SessionError{Step: StepPrepare, Err: fmt.Errorf("unknown protocol %v", s.protocol)}
	}

	if err != nil {
		if abortErr := s.sm.Event(eventAbort); abortErr != nil {
			log.Debug().Err(abortErr).Msg("abort transition failed")
		}
		log.Debug().Err(err).Msg("upload aborted")
	}
	s.close()

	res := s.result()
	if err == nil {
		log.Info().Dur("elapsed", res.Elapsed).Int("bytes", res.Transferred).Msg("upload complete")
	}
	return res, err
}

// Validate checks fw against protocol and opts without touching a transport.
// Run performs the same check before its first write.
func Validate(protocol scum.Protocol, fw *scum.Firmware, opts ...Option) error {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if _, err := newFramer(protocol, fw, cfg); err != nil {
		return &SessionError{Step: StepPrepare, Err: err}
	}
	return nil
}

func newFramer(protocol scum.Protocol, fw *scum.Firmware, c Config) (*scum.Framer, error) {
	if !protocol.Valid() {
		return nil, fmt.Errorf("unknown protocol %v", protocol)
	}

	cfg := protocol.FramerConfig(c.Padding)
	cfg.Rand = c.Rand
	if protocol == scum.ProtocolLegacy && c.TotalSize > 0 {
		cfg.TotalSize = c.TotalSize
	}
	return scum.NewFramer(fw, cfg)
}

// framer validates the image against the protocol before any I/O
func (s *Session) framer() (*scum.Framer, error) {
	f, err := newFramer(s.protocol, s.fw, s.cfg)
	if err != nil {
		return nil, err
	}
	s.total = f.TotalSize()
	return f, nil
}

func (s *Session) runFramed() error {
	f, err := s.framer()
	if err != nil {
		return &SessionError{Step: StepPrepare, Err: err}
	}

	unit := f.UnitSize()
	enc := scum.NewEncoder(unit)
	hs := NewHandshakeClient(s.t, s.protocol.WriteChunkSize())
	token := s.protocol.SuccessToken()

	send := func(step string, cmd scum.Command) error {
		frame, err := enc.Encode(cmd)
		if err != nil {
			return &SessionError{Step: step, Err: err}
		}
		log.Debug().Str("step", step).Msg(scum.FormatFrame(frame))
		if err := hs.Send(frame, token); err != nil {
			return &SessionError{Step: step, Err: err}
		}
		return nil
	}

	if err := send(StepStart, scum.NewStartCommand(unit)); err != nil {
		return err
	}
	if err := s.transition(StepStart, eventStart); err != nil {
		return err
	}
	if err := s.transition(StepTransfer, eventTransfer); err != nil {
		return err
	}

	for u := range f.Units() {
		step := ChunkStep(u.Index)
		if err := send(step, scum.NewChunkCommand(u)); err != nil {
			return err
		}
		s.sent += len(u.Data)
		s.report(step)
	}
	if err := s.transition(StepTransfer, eventTransferred); err != nil {
		return err
	}

	if err := send(StepBoot, scum.NewBootCommand(unit)); err != nil {
		return err
	}
	if err := s.transition(StepBoot, eventBoot); err != nil {
		return err
	}

	if s.cfg.Calibrate {
		if err := send(StepCalibrate, scum.NewCalibrateCommand(unit)); err != nil {
			return err
		}
		if err := s.transition(StepCalibrate, eventCalibrate); err != nil {
			return err
		}
	}

	return s.transition(StepBoot, eventDone)
}

func (s *Session) runLegacy() error {
	f, err := s.framer()
	if err != nil {
		return &SessionError{Step: StepPrepare, Err: err}
	}

	hs := NewHandshakeClient(s.t, s.protocol.WriteChunkSize())
	token := s.protocol.SuccessToken()

	if err := s.transition(StepTransfer, eventTransfer); err != nil {
		return err
	}

	log.Debug().
		Str("padding", s.cfg.Padding.String()).
		Int("total", s.total).
		Msg("sending raw image")

	onChunk := func(n int) {
		s.sent += n
		s.report(StepTransfer)
	}
	for u := range f.Units() {
		if err := hs.Write(u.Data, onChunk); err != nil {
			return &SessionError{Step: StepTransfer, Err: err}
		}
	}
	if err := hs.Expect(token); err != nil {
		return &SessionError{Step: StepTransfer, Err: err}
	}
	if err := s.transition(StepTransfer, eventTransferred); err != nil {
		return err
	}

	log.Debug().Str("mode", s.cfg.BootMode.Token()).Msg("sending boot trigger")
	if err := hs.Send(s.cfg.BootMode.BootLine(), token); err != nil {
		return &SessionError{Step: StepBoot, Err: err}
	}
	if err := s.transition(StepBoot, eventBoot); err != nil {
		return err
	}

	return s.transition(StepBoot, eventDone)
}

// transition fires a state machine event. A refused event is a bug in the
// session, reported against the step that tried it.
func (s *Session) transition(step, event string) error {
	if err := s.sm.Event(event); err != nil {
		return &SessionError{Step: step, Err: fmt.Errorf("state %s: %w", s.sm.Current(), err)}
	}
	return nil
}

func (s *Session) onEnter(from, to State) {
	s.visited = append(s.visited, to)
	log.Debug().Str("from", string(from)).Str("to", string(to)).Msg("session state")
}

func (s *Session) report(step string) {
	if s.cfg.Progress == nil {
		return
	}
	s.cfg.Progress(Progress{
		Step:        step,
		Transferred: s.sent,
		Total:       s.total,
		Elapsed:     s.cfg.Clock.Since(s.started),
	})
}

func (s *Session) close() {
	if s.closed || s.t == nil {
		return
	}
	s.closed = true
	if err := s.t.Close(); err != nil {
		log.Debug().Err(err).Msg("closing transport")
	}
}

func (s *Session) result() *Result {
	visited := make([]State, len(s.visited))
	copy(visited, s.visited)

	return &Result{
		State:       s.State(),
		Visited:     visited,
		Transferred: s.sent,
		Total:       s.total,
		Elapsed:     s.cfg.Clock.Since(s.started),
	}
}
