// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client assembles the offline-first sync client.
//
// [NewApp] opens the local store, restores the device id, the access token
// and the consent decision, builds the transport chain and the sync
// services, and registers the network monitor and the background sync job
// as workers. [App.Run] keeps them running until the context is cancelled.
// The cobra commands in this package drive an App for one-shot operations;
// `watch` runs the workers next to the live status screen of package tui.
package client
