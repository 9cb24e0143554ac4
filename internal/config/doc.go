// Package config provides configuration loading, merging, and validation
// facilities for the sync client and the development sync server.
//
// Configuration is assembled from multiple sources; for every field the
// first source with a non-zero value wins:
//  1. Command-line flags registered with [BindFlags]
//  2. Environment variables (after an optional .env file is loaded)
//  3. JSON config file
//  4. Built-in defaults
//
// The main entry points are [GetClientConfig] and [GetServerConfig].
package config
