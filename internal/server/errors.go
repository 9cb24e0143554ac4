// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import "errors"

var (
	// errNoSyncEndpoints is returned when neither the HTTP nor the gRPC sync
	// endpoint is configured.
	errNoSyncEndpoints = errors.New("sync server has no http or grpc endpoint configured")
	errListen          = errors.New("cannot bind sync endpoint")
)
