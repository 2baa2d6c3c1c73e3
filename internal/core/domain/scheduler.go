package domain

import "time"

// RebuildStatus reports the state of background rebuilds.
type RebuildStatus struct {
	// Running is true while a build is in progress.
	Running bool

	// Builds counts successful builds since start.
	Builds int

	// Failures counts failed builds since start.
	Failures int

	// LastRun is when the last build started.
	LastRun time.Time

	// LastBuildID is the id of the last published build.
	LastBuildID string

	// LastError is the last build error message, if any.
	LastError string
}
