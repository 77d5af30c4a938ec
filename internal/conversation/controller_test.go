// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/simplechat/internal/cloud"
	"github.com/jeranaias/simplechat/internal/model"
)

// =============================================================================
// FAKES
// =============================================================================

// fakeCompleter returns canned replies and records what it was asked.
type fakeCompleter struct {
	mu          sync.Mutex
	reply       func(prompt string) (string, error)
	prompts     []string
	credentials []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt, credential string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.credentials = append(f.credentials, credential)
	reply := f.reply
	f.mu.Unlock()

	if reply == nil {
		return "ok", nil
	}
	return reply(prompt)
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func echoCompleter() *fakeCompleter {
	return &fakeCompleter{reply: func(p string) (string, error) { return "echo: " + p, nil }}
}

func failingCompleter(err error) *fakeCompleter {
	return &fakeCompleter{reply: func(string) (string, error) { return "", err }}
}

// renderCall is one observed Render invocation.
type renderCall struct {
	length  int
	pending bool
}

func recordRenders(c *Controller) *[]renderCall {
	var calls []renderCall
	c.WithRenderer(RendererFunc(func(h []model.Message, pending bool) {
		calls = append(calls, renderCall{length: len(h), pending: pending})
	}))
	return &calls
}

// =============================================================================
// ROUND TRIP
// =============================================================================

func TestController_RoundTrip(t *testing.T) {
	fake := &fakeCompleter{reply: func(string) (string, error) { return "Hi there!", nil }}
	c := NewController(fake, "sk-test")

	req, result := c.Submit("  Hello  ")
	require.NotNil(t, req)
	assert.True(t, result.Admitted)
	assert.Equal(t, "Hello", result.Text)
	assert.Equal(t, StatePending, c.State())

	history := c.History()
	require.Len(t, history, 1)
	assert.Equal(t, model.OriginUser, history[0].Origin)
	assert.Equal(t, "Hello", history[0].Content)
	assert.Equal(t, history[0].ID, req.ID)

	res := req.Run(context.Background())
	assert.True(t, res.OK())
	assert.True(t, c.Resolve(res))

	assert.Equal(t, StateIdle, c.State())
	history = c.History()
	require.Len(t, history, 2)
	assert.Equal(t, model.OriginAssistant, history[1].Origin)
	assert.Equal(t, "Hi there!", history[1].Content)

	assert.Equal(t, []string{"Hello"}, fake.prompts)
	assert.Equal(t, []string{"sk-test"}, fake.credentials)
}

func TestController_RejectedInputChangesNothing(t *testing.T) {
	fake := echoCompleter()
	c := NewController(fake, "")
	renders := recordRenders(c)

	for _, raw := range []string{"", "   ", "\n\t"} {
		req, result := c.Submit(raw)
		assert.Nil(t, req)
		assert.False(t, result.Admitted)
		assert.Equal(t, RejectEmpty, result.Reason)
	}

	assert.True(t, c.Log().IsEmpty())
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, *renders)
	assert.Zero(t, fake.calls())
}

func TestController_LogIsReadOnly(t *testing.T) {
	c := NewController(echoCompleter(), "")

	_, ok := c.Log().(interface{ Append(model.Message) })
	assert.False(t, ok, "log view must not expose Append")

	_, ok = c.Log().(*model.ConversationLog)
	assert.False(t, ok, "log view must not be the live log")

	req, _ := c.Submit("Hello")
	require.NotNil(t, req)
	require.True(t, c.Resolve(req.Run(context.Background())))

	view := c.Log()
	assert.Equal(t, 2, view.Len())
	first := view.Snapshot()[0]
	assert.Equal(t, model.OriginUser, first.Origin)
	last, ok := view.LastFrom(model.OriginAssistant)
	require.True(t, ok)
	assert.Equal(t, "echo: Hello", last.Content)
}

// =============================================================================
// AT MOST ONE IN FLIGHT
// =============================================================================

func TestController_AtMostOneInFlight(t *testing.T) {
	fake := echoCompleter()
	c := NewController(fake, "")

	first, result := c.Submit("first")
	require.NotNil(t, first)
	require.True(t, result.Admitted)

	for i := 0; i < 5; i++ {
		req, result := c.Submit(fmt.Sprintf("extra %d", i))
		assert.Nil(t, req)
		assert.False(t, result.Admitted)
		assert.Equal(t, RejectBusy, result.Reason)
	}

	assert.Equal(t, 1, c.Log().Len())
	assert.True(t, c.Pending())

	require.True(t, c.Resolve(first.Run(context.Background())))
	assert.Equal(t, 1, fake.calls())

	second, result := c.Submit("second")
	require.NotNil(t, second)
	assert.True(t, result.Admitted)
}

// =============================================================================
// ERROR SETTLEMENT
// =============================================================================

func TestController_EveryFailureSettles(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"network", &cloud.CompletionError{Kind: cloud.KindNetwork, Err: errors.New("dial tcp: refused")}, "network"},
		{"rate limited", &cloud.CompletionError{Kind: cloud.KindRateLimited, Status: 429}, "wait"},
		{"local throttle", &cloud.CompletionError{Kind: cloud.KindRateLimited}, "wait"},
		{"server 500", &cloud.CompletionError{Kind: cloud.KindServer, Status: 500}, "HTTP 500"},
		{"server 401", &cloud.CompletionError{Kind: cloud.KindServer, Status: 401}, "HTTP 401"},
		{"malformed", &cloud.CompletionError{Kind: cloud.KindMalformedResponse, Err: errors.New("no choices")}, "malformed"},
		{"unclassified", errors.New("boom"), "boom"},
		{"wrapped", fmt.Errorf("send: %w", &cloud.CompletionError{Kind: cloud.KindServer, Status: 503}), "HTTP 503"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewController(failingCompleter(tc.err), "")

			req, _ := c.Submit("question")
			require.NotNil(t, req)

			res := req.Run(context.Background())
			assert.False(t, res.OK())
			require.True(t, c.Resolve(res))

			assert.Equal(t, StateIdle, c.State())
			history := c.History()
			require.Len(t, history, 2)
			assert.Equal(t, model.OriginAssistant, history[1].Origin)
			assert.Contains(t, history[1].Content, tc.contains)
			assert.Equal(t, DescribeError(tc.err), history[1].Content)

			// Input is accepted again.
			next, result := c.Submit("again")
			assert.NotNil(t, next)
			assert.True(t, result.Admitted)
		})
	}
}

func TestController_RateLimitDistinctFromServerError(t *testing.T) {
	limited := NewController(failingCompleter(&cloud.CompletionError{Kind: cloud.KindRateLimited, Status: 429}), "")
	server := NewController(failingCompleter(&cloud.CompletionError{Kind: cloud.KindServer, Status: 500}), "")

	settle := func(c *Controller) string {
		req, _ := c.Submit("hi")
		require.NotNil(t, req)
		require.True(t, c.Resolve(req.Run(context.Background())))
		last, ok := c.Log().Last()
		require.True(t, ok)
		return last.Content
	}

	limitedText := settle(limited)
	serverText := settle(server)

	assert.NotEqual(t, limitedText, serverText)
	assert.Contains(t, strings.ToLower(limitedText), "wait")
	assert.NotContains(t, strings.ToLower(serverText), "wait")
}

// =============================================================================
// ORDERING
// =============================================================================

func TestController_AlternatingHistory(t *testing.T) {
	const n = 20
	fake := &fakeCompleter{reply: func(p string) (string, error) {
		if strings.HasSuffix(p, "7") {
			return "", &cloud.CompletionError{Kind: cloud.KindServer, Status: 502}
		}
		return "reply to " + p, nil
	}}
	c := NewController(fake, "")

	for i := 0; i < n; i++ {
		req, _ := c.Submit(fmt.Sprintf("  prompt %d  ", i))
		require.NotNil(t, req, "submission %d", i)
		require.True(t, c.Resolve(req.Run(context.Background())))
	}

	history := c.History()
	require.Len(t, history, 2*n)
	for i := 0; i < n; i++ {
		user, reply := history[2*i], history[2*i+1]
		assert.Equal(t, model.OriginUser, user.Origin)
		assert.Equal(t, fmt.Sprintf("prompt %d", i), user.Content)
		assert.Equal(t, model.OriginAssistant, reply.Origin)
		assert.False(t, reply.Timestamp.Before(user.Timestamp))
	}
	assert.Equal(t, "reply to prompt 0", history[1].Content)
	assert.Contains(t, history[15].Content, "HTTP 502")
}

// =============================================================================
// STALE RESOLUTIONS
// =============================================================================

func TestController_IgnoresStaleResolution(t *testing.T) {
	c := NewController(echoCompleter(), "")

	assert.False(t, c.Resolve(Resolution{RequestID: "nothing-in-flight", Text: "x"}))
	assert.True(t, c.Log().IsEmpty())

	req, _ := c.Submit("real")
	require.NotNil(t, req)

	assert.False(t, c.Resolve(Resolution{RequestID: "someone-else", Text: "x"}))
	assert.True(t, c.Pending())
	assert.Equal(t, 1, c.Log().Len())

	res := req.Run(context.Background())
	require.True(t, c.Resolve(res))

	// A duplicate delivery does nothing.
	assert.False(t, c.Resolve(res))
	assert.Equal(t, 2, c.Log().Len())
	assert.Equal(t, StateIdle, c.State())
}

// =============================================================================
// RENDERING
// =============================================================================

func TestController_RenderSequence(t *testing.T) {
	c := NewController(echoCompleter(), "")
	renders := recordRenders(c)

	req, _ := c.Submit("hello")
	require.NotNil(t, req)
	require.True(t, c.Resolve(req.Run(context.Background())))

	assert.Equal(t, []renderCall{
		{length: 1, pending: false}, // user message appended
		{length: 1, pending: true},  // thinking
		{length: 2, pending: true},  // reply appended
		{length: 2, pending: false}, // idle again
	}, *renders)
}

func TestController_NilRendererIsAllowed(t *testing.T) {
	c := NewController(echoCompleter(), "").WithRenderer(nil).WithLogger(nil)

	req, _ := c.Submit("hello")
	require.NotNil(t, req)
	assert.True(t, c.Resolve(req.Run(context.Background())))
}

func TestRequest_StringOmitsPromptAndCredential(t *testing.T) {
	c := NewController(echoCompleter(), "sk-very-secret")

	req, _ := c.Submit("private prompt")
	require.NotNil(t, req)

	s := req.String()
	assert.Contains(t, s, req.ID)
	assert.NotContains(t, s, "private prompt")
	assert.NotContains(t, s, "sk-very-secret")
}
