// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/simplechat/internal/config"
)

// ExitError asks main to exit with Code without printing anything further.
// The command has already reported the problem.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// PrintError reports err on w. Configuration problems are listed one per line.
func PrintError(w io.Writer, err error) {
	verrs, ok := config.AsValidateErrors(err)
	if !ok {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}

	summary := strings.TrimSuffix(strings.TrimSuffix(err.Error(), verrs.Error()), ": ")
	if summary == "" {
		summary = "invalid configuration"
	}
	fmt.Fprintf(w, "Error: %s\n", summary)
	for _, e := range verrs {
		fmt.Fprintf(w, "  - %s\n", e.Error())
	}
}
