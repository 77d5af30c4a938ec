// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "sk-test-abcdefghijklmnopqrstuvwxyz0123456789"

// newTestClient points a client at server.
func newTestClient(server *httptest.Server) *Client {
	return NewClient().WithBaseURL(server.URL).WithHTTPClient(server.Client())
}

// respond returns a handler that writes status and body.
func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// =============================================================================
// REQUEST SHAPE
// =============================================================================

func TestComplete_RequestShape(t *testing.T) {
	var got struct {
		method, path, contentType, auth string
		body                            map[string]any
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.contentType = r.Header.Get("Content-Type")
		got.auth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &got.body)
		respond(http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`)(w, r)
	}))
	defer server.Close()

	client := newTestClient(server).WithModel("test-model")
	_, err := client.Complete(context.Background(), "Hello", testKey)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/chat/completions", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "Bearer "+testKey, got.auth)

	assert.Equal(t, "test-model", got.body["model"])
	assert.EqualValues(t, MaxTokens, got.body["max_tokens"])
	messages, ok := got.body["messages"].([]any)
	require.True(t, ok, "messages should be an array")
	require.Len(t, messages, 1)
	assert.Equal(t, map[string]any{"role": "user", "content": "Hello"}, messages[0])
}

func TestComplete_DefaultModelAndTokenCap(t *testing.T) {
	var body ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		respond(http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`)(w, r)
	}))
	defer server.Close()

	_, err := newTestClient(server).Complete(context.Background(), "x", testKey)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, body.Model)
	assert.Equal(t, 150, body.MaxTokens)
}

// =============================================================================
// OUTCOME CLASSIFICATION
// =============================================================================

func TestComplete_SuccessTrimsContent(t *testing.T) {
	server := httptest.NewServer(respond(http.StatusOK, `{"choices":[{"message":{"content":" Hi there! "}}]}`))
	defer server.Close()

	reply, err := newTestClient(server).Complete(context.Background(), "Hello", testKey)
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply)
}

func TestComplete_IgnoresExtraFields(t *testing.T) {
	server := httptest.NewServer(respond(http.StatusOK, `{
		"id": "chatcmpl-1",
		"model": "gpt-3.5-turbo",
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": "\n\nHello!"},
			"finish_reason": "stop"
		}],
		"usage": {"prompt_tokens": 9, "completion_tokens": 3, "total_tokens": 12}
	}`))
	defer server.Close()

	reply, err := newTestClient(server).Complete(context.Background(), "Hi", testKey)
	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply)
}

func TestComplete_OnlyFirstChoiceIsParsed(t *testing.T) {
	server := httptest.NewServer(respond(http.StatusOK,
		`{"choices":[{"message":{"content":" Hi "}},{"message":{"content":[{"type":"text"}]}},"junk"]}`))
	defer server.Close()

	reply, err := newTestClient(server).Complete(context.Background(), "Hello", testKey)
	require.NoError(t, err)
	assert.Equal(t, "Hi", reply)
}

func TestComplete_RateLimited(t *testing.T) {
	server := httptest.NewServer(respond(http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`))
	defer server.Close()

	_, err := newTestClient(server).Complete(context.Background(), "Hello", testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrServer)
	assert.Equal(t, KindRateLimited, KindOf(err))

	var ce *CompletionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, http.StatusTooManyRequests, ce.Status)
}

func TestComplete_ServerErrors(t *testing.T) {
	statuses := []int{
		http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusNotFound,
		http.StatusInternalServerError,
		http.StatusServiceUnavailable,
		http.StatusCreated,
	}

	for _, status := range statuses {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(respond(status, `{"choices":[{"message":{"content":"ignored"}}]}`))
			defer server.Close()

			_, err := newTestClient(server).Complete(context.Background(), "Hello", testKey)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrServer)
			assert.NotErrorIs(t, err, ErrRateLimited)

			var ce *CompletionError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, status, ce.Status)
		})
	}
}

func TestComplete_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"empty body", ``},
		{"no choices field", `{"id":"x"}`},
		{"empty choices", `{"choices":[]}`},
		{"choices not array", `{"choices":{"message":{"content":"hi"}}}`},
		{"missing message", `{"choices":[{"finish_reason":"stop"}]}`},
		{"null message", `{"choices":[{"message":null}]}`},
		{"missing content", `{"choices":[{"message":{"role":"assistant"}}]}`},
		{"null content", `{"choices":[{"message":{"content":null}}]}`},
		{"numeric content", `{"choices":[{"message":{"content":42}}]}`},
		{"object content", `{"choices":[{"message":{"content":{"text":"hi"}}}]}`},
		{"first choice not object", `{"choices":["hi",{"message":{"content":"hi"}}]}`},
		{"null first choice", `{"choices":[null]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(respond(http.StatusOK, tc.body))
			defer server.Close()

			reply, err := newTestClient(server).Complete(context.Background(), "Hello", testKey)
			require.Error(t, err)
			assert.Empty(t, reply)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.Equal(t, KindMalformedResponse, KindOf(err))
		})
	}
}

func TestComplete_OversizedBodyIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"`))
		_, _ = w.Write([]byte(strings.Repeat("a", MaxResponseSize)))
		_, _ = w.Write([]byte(`"}}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Complete(context.Background(), "Hello", testKey)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestComplete_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(respond(http.StatusOK, `{}`))
	client := newTestClient(server)
	server.Close()

	_, err := client.Complete(context.Background(), "Hello", testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.NotContains(t, err.Error(), testKey)
}

func TestComplete_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(server).WithTimeout(50 * time.Millisecond)
	_, err := client.Complete(context.Background(), "Hello", testKey)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestComplete_CancelledContextIsNetworkError(t *testing.T) {
	server := httptest.NewServer(respond(http.StatusOK, `{"choices":[{"message":{"content":"late"}}]}`))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server).Complete(ctx, "Hello", testKey)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// CLIENT-SIDE THROTTLE
// =============================================================================

func TestComplete_ClientThrottle(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		respond(http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`)(w, r)
	}))
	defer server.Close()

	client := newTestClient(server).WithRequestsPerMinute(1)

	_, err := client.Complete(context.Background(), "first", testKey)
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "second", testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, int32(1), hits.Load(), "throttled request must not reach the server")

	var ce *CompletionError
	require.ErrorAs(t, err, &ce)
	assert.Zero(t, ce.Status)
}

func TestWithRequestsPerMinute_ZeroDisables(t *testing.T) {
	client := NewClient().WithRequestsPerMinute(10).WithRequestsPerMinute(0)
	assert.Nil(t, client.limiter)
}

// =============================================================================
// CONCURRENT ACCESS TESTS
// =============================================================================

// TestComplete_Concurrent verifies that a configured client can be shared.
// Run with: go test -race -run TestComplete_Concurrent
func TestComplete_Concurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		content, _ := json.Marshal(req.Messages[0].Content)
		respond(http.StatusOK, `{"choices":[{"message":{"content":`+string(content)+`}}]}`)(w, r)
	}))
	defer server.Close()

	client := newTestClient(server)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			prompt := strings.Repeat("x", n+1)
			reply, err := client.Complete(context.Background(), prompt, testKey)
			if err != nil {
				errs <- err
				return
			}
			if reply != prompt {
				errs <- errors.New("reply does not echo prompt")
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Complete: %v", err)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "none", Fingerprint(""))

	fp := Fingerprint(testKey)
	assert.True(t, strings.HasPrefix(fp, "sha256:"))
	assert.Len(t, fp, len("sha256:")+8)
	assert.NotContains(t, fp, "sk-")
	assert.Equal(t, fp, Fingerprint(testKey))
	assert.NotEqual(t, fp, Fingerprint(testKey+"x"))
}

func TestClientAccessors(t *testing.T) {
	client := NewClient().
		WithBaseURL("https://llm.example.com/v1/").
		WithModel("  gpt-4o-mini ").
		WithTimeout(5 * time.Second)

	assert.Equal(t, "https://llm.example.com/v1/chat/completions", client.Endpoint())
	assert.Equal(t, "llm.example.com", client.Host())
	assert.Equal(t, "gpt-4o-mini", client.Model())
	assert.Equal(t, 5*time.Second, client.Timeout())

	// Empty model keeps the previous value.
	assert.Equal(t, "gpt-4o-mini", client.WithModel(" ").Model())
}

func TestCompletionError_Message(t *testing.T) {
	err := &CompletionError{Kind: KindServer, Status: http.StatusBadGateway}
	assert.Equal(t, "server (HTTP 502 Bad Gateway)", err.Error())

	wrapped := &CompletionError{Kind: KindNetwork, Err: errors.New("dial tcp: refused")}
	assert.Equal(t, "network: dial tcp: refused", wrapped.Error())
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
}
