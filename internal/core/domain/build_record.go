package domain

import "time"

// BuildRecord is the persisted result of realizing one environment package.
// Records are keyed by package name; InputHash decides cache validity.
type BuildRecord struct {
	Package      string    `json:"package"`
	InputHash    string    `json:"input_hash"`
	ArtifactHash string    `json:"artifact_hash"`
	Timestamp    time.Time `json:"timestamp"`
}
