// Package storage defines the persistence interfaces for user preferences,
// saved chat histories and the scraped activity cache, plus the sentinel
// errors shared by all backends.
//
// Backends live in subpackages: memory (tests and single-process
// deployments), postgres (preferences and history) and sqlite (activity
// cache).
package storage
