// Package capability provides the environment checks a sync pass depends
// on: whether the user is authenticated, whether they consented to cloud
// sync and whether the device is online.
//
// State changes are published through [Broadcaster]: every subscriber gets
// its own channel and an explicit unsubscribe function, and a slow
// subscriber only ever misses intermediate values, never the latest one.
package capability
