package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	formatJSON    = "json"
	formatMsgPack = "msgpack"
)

// responseFormat returns the requested encoding. ok is false for an unsupported value.
func responseFormat(r *http.Request) (format string, ok bool) {
	switch f := r.URL.Query().Get("format"); f {
	case "", formatJSON:
		return formatJSON, true
	case formatMsgPack:
		return formatMsgPack, true
	default:
		return f, false
	}
}

// writeResponse encodes v as JSON, or as MessagePack when format=msgpack. Struct fields use
// their json tags in both encodings. The body is encoded before the header is written so an
// encoding failure can still become a 500.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, v any) {
	format, ok := responseFormat(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "INVALID_FORMAT", "format must be json or msgpack")
		return
	}
	if format == formatJSON {
		writeJSON(w, status, v)
		return
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "encode response")
		return
	}
	w.Header().Set("Content-Type", "application/x-msgpack")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v, ok := r.Context().Value("correlation_id").(string); ok {
		corrID = v
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
