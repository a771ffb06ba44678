package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/gaurab-pandey/video-silence-remover/internal/analysis"
	"github.com/gaurab-pandey/video-silence-remover/internal/export"
	"github.com/gaurab-pandey/video-silence-remover/internal/media"
	"github.com/gaurab-pandey/video-silence-remover/internal/session"
	"github.com/gaurab-pandey/video-silence-remover/internal/timeline"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	session          *session.Session
	validator        *validator.Validate
	logger           *slog.Logger
	waveformBucketMS int
}

// HandlerOption configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithWaveformBucketMS sets the default waveform bucket size.
func WithWaveformBucketMS(ms int) HandlerOption {
	return func(h *Handlers) {
		if ms > 0 {
			h.waveformBucketMS = ms
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sess *session.Session, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		session:          sess,
		validator:        validator.New(),
		logger:           logger,
		waveformBucketMS: 10,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// ProcessVideo handles POST /project: imports a video and returns the
// freshly analyzed timeline.
func (h *Handlers) ProcessVideo(w http.ResponseWriter, r *http.Request) {
	var req ProcessVideoRequest
	if !h.decode(w, r, &req) {
		return
	}

	tl, err := h.session.ProcessVideo(r.Context(), req.VideoPath)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("project created",
		slog.String("video", req.VideoPath),
		slog.Int("clips", len(tl.Clips)),
	)
	writeJSON(w, http.StatusCreated, tl)
}

// GetTimeline handles GET /timeline.
func (h *Handlers) GetTimeline(w http.ResponseWriter, _ *http.Request) {
	tl, err := h.session.Timeline()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

// GetConfig handles GET /config.
func (h *Handlers) GetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Config())
}

// UpdateConfig handles PUT /config.
func (h *Handlers) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req UpdateConfigRequest
	if !h.decode(w, r, &req) {
		return
	}

	cfg, err := h.session.UpdateConfig(req.ThresholdDB, req.MinSilenceDuration)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// RerunAnalysis handles POST /analysis: re-runs silence detection with the
// stored config, discarding manual edits.
func (h *Handlers) RerunAnalysis(w http.ResponseWriter, _ *http.Request) {
	tl, err := h.session.RerunAnalysis()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

// GetWaveform handles GET /waveform.
func (h *Handlers) GetWaveform(w http.ResponseWriter, r *http.Request) {
	bucketMS := h.waveformBucketMS
	if q := r.URL.Query().Get("bucket_ms"); q != "" {
		parsed, err := strconv.Atoi(q)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "bucket_ms must be a positive integer", "INVALID_INPUT")
			return
		}
		bucketMS = parsed
	}

	wf, err := h.session.Waveform(bucketMS)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// SetSoftness handles PUT /softness.
func (h *Handlers) SetSoftness(w http.ResponseWriter, r *http.Request) {
	var req SoftnessRequest
	if !h.decode(w, r, &req) {
		return
	}

	tl, err := h.session.SetSoftness(req.Percent)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

// ToggleSegment handles POST /segments/{index}/toggle.
func (h *Handlers) ToggleSegment(w http.ResponseWriter, r *http.Request) {
	h.segmentOp(w, r, h.session.ToggleSegment)
}

// RemoveSegment handles DELETE /segments/{index}.
func (h *Handlers) RemoveSegment(w http.ResponseWriter, r *http.Request) {
	h.segmentOp(w, r, h.session.RemoveSegment)
}

// MergeSegments handles POST /segments/{index}/merge.
func (h *Handlers) MergeSegments(w http.ResponseWriter, r *http.Request) {
	h.segmentOp(w, r, h.session.MergeSegments)
}

// ExcludeSilence handles POST /segments/exclude-silence.
func (h *Handlers) ExcludeSilence(w http.ResponseWriter, _ *http.Request) {
	tl, err := h.session.ExcludeSilence()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

// AdjustBoundary handles PUT /segments/{index}/boundary. The response
// carries the clamped time actually applied.
func (h *Handlers) AdjustBoundary(w http.ResponseWriter, r *http.Request) {
	index, ok := h.segmentIndex(w, r)
	if !ok {
		return
	}
	var req BoundaryRequest
	if !h.decode(w, r, &req) {
		return
	}

	clamped, tl, err := h.session.AdjustBoundary(index, req.NewTime)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BoundaryResponse{ClampedTime: clamped, Timeline: tl})
}

// SegmentAt handles GET /segments/at?time=.
func (h *Handlers) SegmentAt(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("time")
	sourceTime, err := strconv.ParseFloat(q, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "time must be a number", "INVALID_INPUT")
		return
	}

	index, err := h.session.SegmentAt(sourceTime)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SegmentAtResponse{Index: index})
}

// Export handles POST /export. The response is a newline-delimited JSON
// stream of progress events followed by one terminal event. Closing the
// request connection cancels the in-flight export.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !h.decode(w, r, &req) {
		return
	}

	progressCh, outcomeCh, err := h.session.Export(r.Context(), req.OutputPath, req.PushToS3)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	enc := json.NewEncoder(w)
	writeEvent := func(ev ExportEvent) {
		if err := enc.Encode(ev); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	for p := range progressCh {
		writeEvent(ExportEvent{
			Event:         "progress",
			Percentage:    p.Percentage,
			CurrentTime:   p.CurrentTime,
			TotalDuration: p.TotalDuration,
		})
	}

	outcome := <-outcomeCh
	if outcome.Err != nil {
		_, code := domainStatus(outcome.Err)
		h.logger.Error("export failed",
			slog.String("output", req.OutputPath),
			slog.String("error", outcome.Err.Error()),
		)
		writeEvent(ExportEvent{Event: "error", Error: outcome.Err.Error(), Code: code})
		return
	}

	writeEvent(ExportEvent{
		Event:      "complete",
		Percentage: 100,
		OutputPath: outcome.OutputPath,
		VideoURL:   outcome.VideoURL,
	})
}

// segmentOp parses the index path value and runs one index-based editor
// command.
func (h *Handlers) segmentOp(w http.ResponseWriter, r *http.Request, op func(int) (*timeline.Timeline, error)) {
	index, ok := h.segmentIndex(w, r)
	if !ok {
		return
	}
	tl, err := op(index)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

func (h *Handlers) segmentIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "segment index must be an integer", "INVALID_INPUT")
		return 0, false
	}
	return index, true
}

// decode parses and validates a JSON request body, writing the error
// response itself on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("failed to decode request body", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.logger.Warn("request validation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return false
	}
	return true
}

// writeDomainError maps domain errors to HTTP status codes and error codes.
func (h *Handlers) writeDomainError(w http.ResponseWriter, err error) {
	status, code := domainStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}
	writeError(w, status, err.Error(), code)
}

func domainStatus(err error) (int, string) {
	var ffErr *media.FFmpegError
	var encErr *export.EncoderError
	switch {
	case errors.Is(err, timeline.ErrIndexOutOfRange):
		return http.StatusNotFound, "INDEX_OUT_OF_RANGE"
	case errors.Is(err, timeline.ErrInvalidOperation):
		return http.StatusUnprocessableEntity, "INVALID_OPERATION"
	case errors.Is(err, export.ErrEmptyExport):
		return http.StatusUnprocessableEntity, "EMPTY_EXPORT"
	case errors.Is(err, export.ErrCancelled):
		return http.StatusRequestTimeout, "CANCELLED"
	case errors.Is(err, session.ErrNoProject):
		return http.StatusConflict, "NO_PROJECT"
	case errors.Is(err, session.ErrExportInProgress):
		return http.StatusConflict, "ALREADY_IN_PROGRESS"
	case errors.Is(err, session.ErrInvalidConfig),
		errors.Is(err, analysis.ErrEmptySignal),
		errors.Is(err, analysis.ErrInvalidSampleRate),
		errors.Is(err, analysis.ErrBucketTooSmall),
		errors.Is(err, media.ErrVideoNotFound),
		errors.Is(err, media.ErrInvalidWAV),
		errors.Is(err, timeline.ErrInvalidDuration):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.As(err, &encErr), errors.As(err, &ffErr):
		return http.StatusBadGateway, "ENCODER_FAILURE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
