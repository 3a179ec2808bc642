/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
)

// isRetryableModelError reports whether a model API error is worth
// retrying: rate limits, overload, and transient server errors.
func isRetryableModelError(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 503, 504, 529:
			return true
		}
	}
	return false
}
