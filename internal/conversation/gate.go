// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import "strings"

// =============================================================================
// REQUEST STATE
// =============================================================================

// RequestState is whether a completion request is outstanding.
type RequestState int

const (
	// StateIdle means no request is in flight and input may be admitted.
	StateIdle RequestState = iota
	// StatePending means a request is in flight; all input is rejected.
	StatePending
)

// String returns the state name.
func (s RequestState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	default:
		return "unknown"
	}
}

// =============================================================================
// ADMISSION
// =============================================================================

// RejectReason explains why a submission was not admitted.
type RejectReason int

const (
	// NotRejected is the reason carried by an admitted result.
	NotRejected RejectReason = iota
	// RejectEmpty means the input was empty after trimming.
	RejectEmpty
	// RejectBusy means a request is already in flight.
	RejectBusy
)

// String returns the reason name.
func (r RejectReason) String() string {
	switch r {
	case NotRejected:
		return "none"
	case RejectEmpty:
		return "empty input"
	case RejectBusy:
		return "request in flight"
	default:
		return "unknown"
	}
}

// AdmitResult is the gate's decision.
type AdmitResult struct {
	// Admitted is true when the submission may become a request.
	Admitted bool
	// Text is the trimmed input; only meaningful when Admitted.
	Text string
	// Reason is set when the submission was rejected.
	Reason RejectReason
}

// TryAdmit decides whether raw may be sent given the current state.
//
// Surrounding whitespace is trimmed. Input that is empty after trimming is
// rejected, as is any input while a request is pending. TryAdmit is a pure
// function of its arguments.
func TryAdmit(raw string, state RequestState) AdmitResult {
	text := strings.TrimSpace(raw)
	if text == "" {
		return AdmitResult{Reason: RejectEmpty}
	}
	if state == StatePending {
		return AdmitResult{Reason: RejectBusy}
	}
	return AdmitResult{Admitted: true, Text: text}
}
