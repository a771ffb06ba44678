// Package server provides the HTTP surface for the silence remover. It
// includes handlers, middleware, routes, and DTOs separated from domain
// types.
package server

import (
	"github.com/gaurab-pandey/video-silence-remover/internal/timeline"
)

// ProcessVideoRequest is the request body for importing a video.
type ProcessVideoRequest struct {
	// VideoPath is the path to the source video file.
	VideoPath string `json:"video_path" validate:"required"`
}

// UpdateConfigRequest is the request body for updating silence detection
// settings.
type UpdateConfigRequest struct {
	// ThresholdDB is the silence amplitude cutoff in dBFS.
	ThresholdDB float64 `json:"threshold_db" validate:"required,lt=0"`
	// MinSilenceDuration is the minimum silence run length in seconds.
	MinSilenceDuration float64 `json:"min_silence_duration" validate:"required,gt=0"`
}

// SoftnessRequest is the request body for setting cut softness. The
// percentage is clamped to [0, 100] rather than rejected.
type SoftnessRequest struct {
	Percent int `json:"percent"`
}

// BoundaryRequest is the request body for moving a segment boundary.
type BoundaryRequest struct {
	// NewTime is the requested boundary position in source seconds. The
	// applied position is clamped and returned in the response.
	NewTime float64 `json:"new_time"`
}

// BoundaryResponse carries the clamped boundary time actually applied,
// which interactive drags must use as feedback.
type BoundaryResponse struct {
	ClampedTime float64            `json:"clamped_time"`
	Timeline    *timeline.Timeline `json:"timeline"`
}

// SegmentAtResponse carries the index of the clip at a source time.
type SegmentAtResponse struct {
	Index int `json:"index"`
}

// ExportRequest is the request body for exporting the edited video.
type ExportRequest struct {
	// OutputPath is the destination path for the exported file.
	OutputPath string `json:"output_path" validate:"required"`
	// PushToS3 uploads the finished export to S3 when configured.
	PushToS3 bool `json:"push_to_s3"`
}

// ExportEvent is one line of the newline-delimited JSON export stream.
// Event is "progress" while encoding, then a terminal "complete" or
// "error".
type ExportEvent struct {
	Event         string  `json:"event"`
	Percentage    float64 `json:"percentage,omitempty"`
	CurrentTime   float64 `json:"current_time,omitempty"`
	TotalDuration float64 `json:"total_duration,omitempty"`
	OutputPath    string  `json:"output_path,omitempty"`
	VideoURL      string  `json:"video_url,omitempty"`
	Error         string  `json:"error,omitempty"`
	Code          string  `json:"code,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
