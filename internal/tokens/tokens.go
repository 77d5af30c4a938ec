// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tokens estimates how many model tokens a prompt will cost.
//
// Counts use the cl100k_base encoding shared by the gpt-3.5/gpt-4 family.
// If the codec cannot be loaded the count falls back to a characters-per-token
// heuristic, so callers always get a number.
package tokens

import (
	"sync"
	"unicode/utf8"

	"github.com/tiktoken-go/tokenizer"
)

// CharsPerToken is the heuristic ratio used when no codec is available.
const CharsPerToken = 4

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
	codecErr  error
)

func loadCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return codec, codecErr
}

// Count returns the number of tokens in s.
func Count(s string) int {
	if s == "" {
		return 0
	}

	c, err := loadCodec()
	if err != nil {
		return Estimate(s)
	}
	ids, _, err := c.Encode(s)
	if err != nil {
		return Estimate(s)
	}
	return len(ids)
}

// Estimate returns the heuristic token count for s: one token per
// CharsPerToken characters, rounded up.
func Estimate(s string) int {
	n := utf8.RuneCountInString(s)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// Exact reports whether Count uses the real encoding.
func Exact() bool {
	_, err := loadCodec()
	return err == nil
}
