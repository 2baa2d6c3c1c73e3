package domain

import "time"

// BuildManifest describes one persisted index build.
// It is written next to the index and sidecar and carries the
// build id both of them must agree on.
type BuildManifest struct {
	ID        string        `json:"id"`
	Strategy  IndexStrategy `json:"strategy"`
	Exact     bool          `json:"exact"`
	Dimension int           `json:"dimension"`
	Chunks    int           `json:"chunks"`
	Documents int           `json:"documents"`
	Model     string        `json:"model"`
	CreatedAt time.Time     `json:"created_at"`
}

// SkippedDocument records a document that ingestion could not use.
type SkippedDocument struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// BuildRecord is the history entry for a completed build.
type BuildRecord struct {
	BuildManifest

	// Skipped lists documents dropped by ingestion errors.
	Skipped []SkippedDocument `json:"skipped,omitempty"`

	// Duration is the wall time of the build.
	Duration time.Duration `json:"duration"`
}
