package api

import (
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/warp/internal/metrics"
	"github.com/samcharles93/warp/pkg/warp"
)

func writeBadRequest(c *echo.Context, route string, err error) error {
	metrics.RequestErrors.WithLabelValues(route).Inc()
	return writeError(c, http.StatusBadRequest, "invalid_request_error", err.Error(), paramOf(err), "")
}

func writeError(c *echo.Context, status int, errType, msg, param, code string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Param:   param,
		},
	})
}

// decodeJSON decodes a single JSON document and rejects unknown fields, so
// a misspelt "top_k" fails loudly instead of silently using the default.
func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return out, newInvalidRequest("", "request body is empty")
		}
		return out, newInvalidRequest("", "decode request: %v", err)
	}
	return out, nil
}

// candidates validates a request's candidate set and fills in identity
// indices when none were sent. The kernel panics on misaligned input, so
// every mismatch must be caught here.
func candidates(indices []int, logits []float32, maxLen int) ([]int, error) {
	if len(logits) > maxLen {
		return nil, newInvalidRequest("logits", "at most %d candidates are accepted, got %d", maxLen, len(logits))
	}
	if indices == nil {
		return warp.Identity(len(logits)), nil
	}
	if len(indices) != len(logits) {
		return nil, newInvalidRequest("indices", "length %d does not match %d logits", len(indices), len(logits))
	}
	for i, id := range indices {
		if id < 0 {
			return nil, newInvalidRequest("indices", "index %d at position %d is negative", id, i)
		}
	}
	return indices, nil
}

func parseBackend(name string, fallback warp.Backend) (warp.Backend, error) {
	if name == "" {
		return fallback, nil
	}
	b, err := warp.ParseBackend(name)
	if err != nil {
		return warp.Auto, newInvalidRequest("backend", "%v", err)
	}
	return b, nil
}

func checkRange[T int | float32](param string, v *T, lo, hi T) error {
	if v != nil && (*v < lo || *v > hi) {
		return newInvalidRequest(param, "must be within [%v, %v], got %v", lo, hi, *v)
	}
	return nil
}

func allFinite(logits []float32) bool {
	for _, v := range logits {
		if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
			return false
		}
	}
	return true
}
