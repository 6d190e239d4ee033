package types

import "github.com/google/uuid"

// Version is the application version, overwritten at build time via ldflags
var Version = "dev"

// PipelineID identifies one pipeline run
type PipelineID string

// NewPipelineID generates a new random pipeline ID
func NewPipelineID() PipelineID {
	return PipelineID(uuid.NewString())
}

func (x PipelineID) String() string {
	return string(x)
}

// AppID is the configuration key of a build target
type AppID string

func (x AppID) String() string {
	return string(x)
}
