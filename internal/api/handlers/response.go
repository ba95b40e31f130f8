package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/david-YJ-Kim/notesvc/internal/logger"
	"github.com/david-YJ-Kim/notesvc/pkg/notes/model"
)

// Response wraps health endpoint payloads.
//
//   - Status indicates the overall result ("healthy", "unhealthy")
//   - Timestamp provides response time for debugging and caching
//   - Data contains the response payload (optional)
//   - Error contains error details when Status indicates failure (optional)
type Response struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// errorBody is the problem payload for 400, 404 and 500 responses.
type errorBody struct {
	Detail string `json:"detail"`
}

// conflictResponse is the 409 payload for optimistic-concurrency failures on
// save. ConflictData always carries the full server-side state.
type conflictResponse struct {
	ErrorCode    string               `json:"error_code"`
	Message      string               `json:"message"`
	ConflictData model.ConflictDetail `json:"conflict_data"`
}

// conflictMessage is the operator-facing text shown to a client whose save
// lost the concurrency race.
const conflictMessage = "편집 중 다른 사용자가 내용을 수정했습니다."

// writeJSON writes a JSON response with the given status code.
//
// The response is written with Content-Type: application/json header.
// Encoding is done to a buffer first to ensure we can return an error
// response if encoding fails (before headers are sent).
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	// Encode to buffer first to catch encoding errors before sending headers
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", logger.Err(err))
		http.Error(w, `{"detail":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// badRequest writes a 400 response with the given detail message.
func badRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Detail: detail})
}

// notFound writes a 404 response.
func notFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorBody{Detail: "Not Found"})
}

// internalError writes a 500 response with the given detail message.
func internalError(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusInternalServerError, errorBody{Detail: detail})
}

// conflict writes a 409 response carrying the full conflict detail.
func conflict(w http.ResponseWriter, detail model.ConflictDetail) {
	writeJSON(w, http.StatusConflict, conflictResponse{
		ErrorCode:    "NOTE_CONFLICT",
		Message:      conflictMessage,
		ConflictData: detail,
	})
}

// writeServiceError maps coordinator errors onto the HTTP status surface.
//
// Conflicts become 409 with the full conflict payload, unknown titles 404,
// input problems 400. Everything else is logged and surfaced as 500.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if ce, ok := model.AsConflict(err); ok {
		conflict(w, ce.Detail)
		return
	}

	switch {
	case errors.Is(err, model.ErrNoteNotFound):
		notFound(w)
	case errors.Is(err, model.ErrValidation):
		badRequest(w, err.Error())
	default:
		logger.ErrorCtx(ctx, "Request failed", logger.Err(err))
		internalError(w, err.Error())
	}
}

// healthyResponse creates a successful health check response.
func healthyResponse(data interface{}) Response {
	return Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// unhealthyResponseWithData creates a failed health check response with data payload.
func unhealthyResponseWithData(data interface{}) Response {
	return Response{
		Status:    "unhealthy",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
