// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks sync protocol values before they cross the wire.
//
// The client transport validates every outgoing request before any network
// call; the dev remote endpoint validates every incoming one with the same
// rules. Queue operations are validated on enqueue.
package validators

import "context"

// Validator validates v. When fields are given, only those fields are
// checked.
type Validator interface {
	Validate(ctx context.Context, v any, fields ...string) error
}
