// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jeranaias/simplechat/internal/cloud"
)

// RateLimitedMessage is shown when the endpoint (or the local throttle) refuses a request.
const RateLimitedMessage = "Too many requests. Please wait a moment and try again."

// DescribeError renders a completion failure as the content of an assistant message.
//
// Each failure kind has its own template; rate limiting carries a wait hint
// instead of the generic "Error" prefix.
func DescribeError(err error) string {
	var ce *cloud.CompletionError
	if !errors.As(err, &ce) {
		if err == nil {
			return "Error: unknown failure."
		}
		return "Error: " + err.Error()
	}

	switch ce.Kind {
	case cloud.KindRateLimited:
		return RateLimitedMessage
	case cloud.KindNetwork:
		return "Error (network): could not reach the completion service. Check your connection and try again."
	case cloud.KindServer:
		return fmt.Sprintf("Error (server): the completion service returned HTTP %d %s.",
			ce.Status, http.StatusText(ce.Status))
	case cloud.KindMalformedResponse:
		return "Error (malformed response): the reply from the completion service could not be read."
	default:
		return "Error: " + ce.Error()
	}
}
