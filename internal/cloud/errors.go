// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the completion failure taxonomy.
// Every error returned by Complete matches exactly one of these with errors.Is.
var (
	// ErrNetwork indicates no usable response reached the client: connection
	// failures, timeouts, cancellation, or a body that could not be read.
	ErrNetwork = errors.New("network error")

	// ErrRateLimited indicates the endpoint answered 429, or the client-side
	// throttle refused to send the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer indicates any other non-200 status.
	ErrServer = errors.New("server error")

	// ErrMalformedResponse indicates a 200 whose body is not the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// ErrorKind classifies a CompletionError.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota + 1
	KindRateLimited
	KindServer
	KindMalformedResponse
)

// String returns the short name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRateLimited:
		return "rate limited"
	case KindServer:
		return "server"
	case KindMalformedResponse:
		return "malformed response"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindRateLimited:
		return ErrRateLimited
	case KindServer:
		return ErrServer
	case KindMalformedResponse:
		return ErrMalformedResponse
	default:
		return nil
	}
}

// CompletionError is the classified failure of a single completion attempt.
//
// It never carries the credential, the prompt or the response body.
type CompletionError struct {
	Kind ErrorKind

	// Status is the HTTP status for KindServer and KindRateLimited (0 when
	// the limit was applied locally).
	Status int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *CompletionError) Error() string {
	msg := e.Kind.String()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d %s)", msg, e.Status, http.StatusText(e.Status))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *CompletionError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func networkError(err error) *CompletionError {
	return &CompletionError{Kind: KindNetwork, Err: err}
}

func malformedError(err error) *CompletionError {
	return &CompletionError{Kind: KindMalformedResponse, Err: err}
}

// classifyStatus maps a non-200 status to its error.
func classifyStatus(status int) *CompletionError {
	if status == http.StatusTooManyRequests {
		return &CompletionError{Kind: KindRateLimited, Status: status}
	}
	return &CompletionError{Kind: KindServer, Status: status}
}

// KindOf returns the kind of err, or 0 if err is not a CompletionError.
func KindOf(err error) ErrorKind {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
