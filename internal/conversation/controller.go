// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"log/slog"

	"github.com/jeranaias/simplechat/internal/cloud"
	"github.com/jeranaias/simplechat/internal/model"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Completer turns a prompt into a reply. *cloud.Client implements it.
type Completer interface {
	Complete(ctx context.Context, prompt, credential string) (string, error)
}

// Renderer receives the render-ready state after every change.
// Implementations must not call back into the controller.
type Renderer interface {
	Render(history []model.Message, pending bool)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(history []model.Message, pending bool)

// Render calls f.
func (f RendererFunc) Render(history []model.Message, pending bool) {
	f(history, pending)
}

type nopRenderer struct{}

func (nopRenderer) Render([]model.Message, bool) {}

// =============================================================================
// REQUEST / RESOLUTION
// =============================================================================

// Request is an admitted submission waiting to be sent.
//
// Run performs the network call and touches no controller state, so it may be
// executed on any goroutine. Its Resolution must be handed back to
// Controller.Resolve on the coordinating goroutine.
type Request struct {
	// ID identifies the request; it equals the ID of the user message.
	ID string
	// Prompt is the admitted, trimmed text.
	Prompt string

	completer  Completer
	credential string
}

// Run sends the prompt and returns the outcome.
func (r *Request) Run(ctx context.Context) Resolution {
	text, err := r.completer.Complete(ctx, r.Prompt, r.credential)
	return Resolution{RequestID: r.ID, Text: text, Err: err}
}

// String identifies the request without exposing the prompt or credential.
func (r *Request) String() string {
	return "request " + r.ID
}

// Resolution is the outcome of running a Request.
type Resolution struct {
	RequestID string
	Text      string
	Err       error
}

// OK reports whether the request succeeded.
func (r Resolution) OK() bool {
	return r.Err == nil
}

// =============================================================================
// LOG VIEW
// =============================================================================

// LogView is read access to the conversation log.
// Appends go through Submit and Resolve only.
type LogView interface {
	Snapshot() []model.Message
	Len() int
	IsEmpty() bool
	Last() (model.Message, bool)
	LastFrom(origin model.Origin) (model.Message, bool)
}

type logView struct {
	log *model.ConversationLog
}

func (v logView) Snapshot() []model.Message   { return v.log.Snapshot() }
func (v logView) Len() int                    { return v.log.Len() }
func (v logView) IsEmpty() bool               { return v.log.IsEmpty() }
func (v logView) Last() (model.Message, bool) { return v.log.Last() }

func (v logView) LastFrom(origin model.Origin) (model.Message, bool) {
	return v.log.LastFrom(origin)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the conversation log and the request state.
//
// It is the only thing that mutates either. All methods that change state
// (Submit, Resolve) must be called from a single coordinating goroutine; the
// controller does not lock, the caller's event loop provides the ordering.
type Controller struct {
	log        *model.ConversationLog
	state      RequestState
	inflight   string
	completer  Completer
	credential string
	renderer   Renderer
	logger     *slog.Logger
}

// NewController creates an idle controller with an empty log.
// The credential is fixed for the lifetime of the controller.
func NewController(completer Completer, credential string) *Controller {
	return &Controller{
		log:        model.NewConversationLog(),
		state:      StateIdle,
		completer:  completer,
		credential: credential,
		renderer:   nopRenderer{},
		logger:     slog.Default(),
	}
}

// WithRenderer sets the renderer notified after every change.
func (c *Controller) WithRenderer(r Renderer) *Controller {
	if r == nil {
		r = nopRenderer{}
	}
	c.renderer = r
	return c
}

// WithLogger sets the logger.
func (c *Controller) WithLogger(logger *slog.Logger) *Controller {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// State returns the current request state.
func (c *Controller) State() RequestState {
	return c.state
}

// Pending reports whether a request is in flight.
func (c *Controller) Pending() bool {
	return c.state == StatePending
}

// History returns a snapshot of the conversation log.
func (c *Controller) History() []model.Message {
	return c.log.Snapshot()
}

// Log returns a read-only view of the conversation log.
func (c *Controller) Log() LogView {
	return logView{log: c.log}
}

// Submit offers user input to the controller.
//
// When the gate admits the input, the user message is appended, the state
// moves to pending and the returned Request must be run. When the gate
// rejects it, nothing changes and the Request is nil.
func (c *Controller) Submit(raw string) (*Request, AdmitResult) {
	result := TryAdmit(raw, c.state)
	if !result.Admitted {
		c.logger.Debug("submission rejected", "reason", result.Reason.String(), "state", c.state.String())
		return nil, result
	}

	msg := model.NewUserMessage(result.Text)
	c.log.Append(msg)
	c.render()

	c.transition(StatePending)
	c.inflight = msg.ID

	return &Request{
		ID:         msg.ID,
		Prompt:     result.Text,
		completer:  c.completer,
		credential: c.credential,
	}, result
}

// Resolve applies the outcome of the in-flight request.
//
// Success appends the reply; failure appends a description of the error.
// Either way the state returns to idle. A resolution for any request other
// than the one in flight is ignored and Resolve returns false.
func (c *Controller) Resolve(res Resolution) bool {
	if c.state != StatePending || res.RequestID != c.inflight {
		c.logger.Warn("ignoring stale resolution", "request", res.RequestID, "state", c.state.String())
		return false
	}

	content := res.Text
	if res.Err != nil {
		c.logger.Warn("completion failed", "request", res.RequestID, "kind", cloud.KindOf(res.Err).String(), "error", res.Err)
		content = DescribeError(res.Err)
	}

	c.log.Append(model.NewAssistantMessage(content))
	c.render()

	c.inflight = ""
	c.transition(StateIdle)
	return true
}

func (c *Controller) transition(to RequestState) {
	c.logger.Debug("state transition", "from", c.state.String(), "to", to.String())
	c.state = to
	c.render()
}

func (c *Controller) render() {
	c.renderer.Render(c.log.Snapshot(), c.state == StatePending)
}
