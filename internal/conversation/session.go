// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionClosed is returned when submitting to a session that has stopped.
var ErrSessionClosed = errors.New("session closed")

// submission is one piece of user input travelling to the session loop.
type submission struct {
	text  string
	reply chan AdmitResult
}

// Session drives a Controller from a single goroutine for callers that do not
// have an event loop of their own (the plain REPL, the one-shot command).
//
// Input and resolutions arrive on channels and are applied in the order the
// loop receives them. Each admitted request runs on its own goroutine and
// posts its resolution back to the loop.
type Session struct {
	ctrl    *Controller
	inputs  chan submission
	results chan Resolution
	done    chan struct{}

	mu      sync.Mutex
	idle    chan struct{} // closed while no request is in flight
	lastErr error
}

// NewSession wraps ctrl. The session must be started with Run.
func NewSession(ctrl *Controller) *Session {
	idle := make(chan struct{})
	close(idle)
	return &Session{
		ctrl:   ctrl,
		inputs: make(chan submission),
		// At most one request is in flight, so its goroutine never blocks.
		results: make(chan Resolution, 1),
		done:    make(chan struct{}),
		idle:    idle,
	}
}

// Controller returns the wrapped controller. Only read-only methods may be
// called on it from outside the session loop.
func (s *Session) Controller() *Controller {
	return s.ctrl
}

// Run owns the controller until ctx is done. It blocks and returns ctx.Err().
//
// Requests are run with ctx, so stopping the session also abandons a request
// that is still in flight.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case sub := <-s.inputs:
			req, result := s.ctrl.Submit(sub.text)
			if req != nil {
				s.mu.Lock()
				s.idle = make(chan struct{})
				s.mu.Unlock()

				go func() {
					s.results <- req.Run(ctx)
				}()
			}
			sub.reply <- result

		case res := <-s.results:
			if s.ctrl.Resolve(res) {
				s.mu.Lock()
				s.lastErr = res.Err
				close(s.idle)
				s.mu.Unlock()
			}
		}
	}
}

// Submit hands text to the session loop and returns the gate's decision.
func (s *Session) Submit(ctx context.Context, text string) (AdmitResult, error) {
	sub := submission{text: text, reply: make(chan AdmitResult, 1)}

	select {
	case s.inputs <- sub:
	case <-s.done:
		return AdmitResult{}, ErrSessionClosed
	case <-ctx.Done():
		return AdmitResult{}, ctx.Err()
	}

	select {
	case result := <-sub.reply:
		return result, nil
	case <-s.done:
		return AdmitResult{}, ErrSessionClosed
	case <-ctx.Done():
		return AdmitResult{}, ctx.Err()
	}
}

// WaitIdle blocks until no request is in flight.
func (s *Session) WaitIdle(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastError returns the error of the most recently applied resolution, or
// nil if it succeeded or nothing has resolved yet.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
