// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors of the request pipeline. Callers can match against them
// with [errors.Is].
var (
	// ErrEmptyAuthorizationHeader is returned by the auth middleware when the
	// incoming request does not include an "Authorization" header at all.
	ErrEmptyAuthorizationHeader = errors.New("empty `Authorization` header")

	// ErrEmptyBody is returned when a request that must carry a JSON document
	// arrives without one.
	ErrEmptyBody = errors.New("empty request body")

	// ErrIntegrityCheckFailed is returned when the HashSHA256 header does not
	// match the request body.
	ErrIntegrityCheckFailed = errors.New("integrity check failed")

	// ErrUnknownMethod is returned for an operation endpoint hit with a method
	// that maps to no operation type.
	ErrUnknownMethod = errors.New("method maps to no operation")
)
