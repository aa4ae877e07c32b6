package handlers

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/kortix/gateway/api"
	"github.com/kortix/gateway/gatewayerr"
	"go.uber.org/zap"
)

// =============================================================================
// Response helpers
// =============================================================================

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes data as a 200 response. Unlike the teacher's
// envelope, success responses carry the DTO directly — the gateway's
// wire contract (§6) has no top-level success wrapper, only the error
// envelope of §6.6.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteError writes the §6.6 error envelope for err, logging it first.
func WriteError(w http.ResponseWriter, err *gatewayerr.Error, logger *zap.Logger) {
	if logger != nil {
		logger.Error("request failed",
			zap.String("kind", string(err.Kind)),
			zap.Int("status", err.Status()),
			zap.Error(err.Cause),
		)
	}
	WriteJSON(w, err.Status(), api.ErrorEnvelope{
		Error:   true,
		Message: err.Message,
		Status:  err.Status(),
	})
}

// WriteErrorMessage builds and writes a gatewayerr.Error from kind and
// message in one call.
func WriteErrorMessage(w http.ResponseWriter, kind gatewayerr.Kind, message string, logger *zap.Logger) {
	WriteError(w, gatewayerr.New(kind, message), logger)
}

// =============================================================================
// Request validation helpers
// =============================================================================

// maxRequestBodyBytes bounds every decoded JSON request body (1 MiB).
const maxRequestBodyBytes = 1 << 20

// DecodeJSONBody decodes r's body into dst, rejecting unknown fields and
// bodies over 1 MiB. On failure it writes the error response itself and
// returns a non-nil error so the caller can short-circuit.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) error {
	if r.Body == nil {
		err := gatewayerr.New(gatewayerr.BadRequest, "request body is empty")
		WriteError(w, err, logger)
		return err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		apiErr := gatewayerr.New(gatewayerr.BadRequest, "invalid JSON body").WithCause(err)
		WriteError(w, apiErr, logger)
		return apiErr
	}
	return nil
}

// ValidateContentType requires an application/json Content-Type header,
// writing the error response itself on mismatch.
func ValidateContentType(w http.ResponseWriter, r *http.Request, logger *zap.Logger) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		WriteError(w, gatewayerr.New(gatewayerr.BadRequest, "Content-Type must be application/json"), logger)
		return false
	}
	return true
}

// =============================================================================
// Response writer wrapper (used by OTel tracing middleware)
// =============================================================================

// ResponseWriter wraps http.ResponseWriter to capture the status code
// written, for middleware that needs it after the handler returns.
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	Written    bool
}

// NewResponseWriter builds a ResponseWriter defaulting to 200, matching
// net/http's own behavior when WriteHeader is never called explicitly.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (rw *ResponseWriter) WriteHeader(code int) {
	if !rw.Written {
		rw.StatusCode = code
		rw.Written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.Written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Flush implements http.Flusher so SSE responses can be wrapped by
// ResponseWriter without losing flush support.
func (rw *ResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
