package api

import (
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samcharles93/warp/internal/logger"
	"github.com/samcharles93/warp/internal/logits"
	"github.com/samcharles93/warp/internal/metrics"
	"github.com/samcharles93/warp/internal/version"
	"github.com/samcharles93/warp/pkg/warp"
)

const (
	routeTopK   = "/v1/topk"
	routeWarp   = "/v1/warp"
	routeSample = "/v1/sample"

	// DefaultMaxCandidates bounds request size; large vocabularies sit
	// around 256k entries.
	DefaultMaxCandidates = 1 << 20
)

// Defaults are applied to request fields the caller leaves unset.
type Defaults struct {
	TopK    int
	Backend warp.Backend
	Sampler logits.SamplerConfig
}

type Server struct {
	defaults      Defaults
	log           logger.Logger
	maxCandidates int
	clock         func() time.Time
}

type ServerOption func(*Server)

func WithDefaults(d Defaults) ServerOption {
	return func(s *Server) { s.defaults = d }
}

func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

func WithMaxCandidates(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxCandidates = n
		}
	}
}

func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		defaults:      Defaults{TopK: 40},
		log:           logger.Discard(),
		maxCandidates: DefaultMaxCandidates,
		clock:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", func(c *echo.Context) error {
		promhttp.Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	})

	e.POST(routeTopK, s.handleTopK)
	e.POST(routeWarp, s.handleWarp)
	e.POST(routeSample, s.handleSample)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version.String(),
		Backend: warp.DefaultBackend().String(),
	})
}

func (s *Server) handleTopK(c *echo.Context) error {
	req, err := decodeJSON[TopKRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, routeTopK, err)
	}
	indices, err := candidates(req.Indices, req.Logits, s.maxCandidates)
	if err != nil {
		return writeBadRequest(c, routeTopK, err)
	}
	k := s.defaults.TopK
	if req.K != nil {
		k = *req.K
	}
	if k < 0 {
		return writeBadRequest(c, routeTopK, newInvalidRequest("k", "must be >= 0, got %d", k))
	}
	backend, err := parseBackend(req.Backend, s.defaults.Backend)
	if err != nil {
		return writeBadRequest(c, routeTopK, err)
	}

	resolved := warp.ResolveBackend(backend, len(req.Logits), min(k, len(req.Logits)))
	start := s.clock()
	outIdx, outLog := warp.SelectWith(resolved, indices, req.Logits, k)
	elapsed := s.clock().Sub(start)
	metrics.ObserveSelection(resolved.String(), len(req.Logits), len(outIdx), elapsed)
	s.log.Debug("top-k selected", "n", len(req.Logits), "k", k, "backend", resolved, "elapsed", elapsed)

	return c.JSON(http.StatusOK, CandidateResponse{
		ID:      "topk_" + uuid.NewString(),
		Object:  "topk",
		Backend: resolved.String(),
		Indices: outIdx,
		Logits:  outLog,
	})
}

func (s *Server) handleWarp(c *echo.Context) error {
	req, err := decodeJSON[WarpRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, routeWarp, err)
	}
	indices, err := candidates(req.Indices, req.Logits, s.maxCandidates)
	if err != nil {
		return writeBadRequest(c, routeWarp, err)
	}
	backend, err := parseBackend(req.Backend, s.defaults.Backend)
	if err != nil {
		return writeBadRequest(c, routeWarp, err)
	}
	chain, names, err := buildChain(req, backend)
	if err != nil {
		return writeBadRequest(c, routeWarp, err)
	}

	outIdx, outLog := chain.Warp(indices, req.Logits)
	if !allFinite(outLog) {
		metrics.RequestErrors.WithLabelValues(routeWarp).Inc()
		return writeError(c, http.StatusUnprocessableEntity, "invalid_request_error",
			"warped scores are not finite; raise the temperature", "temperature", "")
	}
	metrics.ObserveWarp(len(req.Logits), len(outIdx))
	s.log.Debug("warp chain applied", "n", len(req.Logits), "out", len(outIdx), "warpers", names)

	return c.JSON(http.StatusOK, CandidateResponse{
		ID:      "warp_" + uuid.NewString(),
		Object:  "warp",
		Warpers: names,
		Indices: outIdx,
		Logits:  outLog,
	})
}

// buildChain orders stages the way the sampler does. Min-p and top-p need
// descending input, so a full-width top-k is inserted when none was asked.
func buildChain(req WarpRequest, backend warp.Backend) (warp.Chain, []string, error) {
	for _, err := range []error{
		checkRange("top_k", req.TopK, 0, math.MaxInt),
		checkRange("temperature", req.Temperature, 0, math.MaxFloat32),
		checkRange("top_p", req.TopP, 0, 1),
		checkRange("min_p", req.MinP, 0, 1),
		checkRange("repeat_penalty", req.RepeatPenalty, 0, math.MaxFloat32),
	} {
		if err != nil {
			return nil, nil, err
		}
	}

	var (
		chain warp.Chain
		names []string
	)
	if req.RepeatPenalty != nil {
		chain = append(chain, warp.RepetitionPenalty{Penalty: *req.RepeatPenalty, Recent: req.Recent})
		names = append(names, "repeat_penalty")
	}
	if req.Temperature != nil {
		chain = append(chain, warp.Temperature(*req.Temperature))
		names = append(names, "temperature")
	}
	switch {
	case req.TopK != nil:
		chain = append(chain, warp.TopK{K: *req.TopK, Backend: backend})
		names = append(names, "top_k")
	case req.MinP != nil || req.TopP != nil:
		chain = append(chain, warp.TopK{K: len(req.Logits), Backend: backend})
		names = append(names, "sort")
	}
	if req.MinP != nil {
		chain = append(chain, warp.MinP(*req.MinP))
		names = append(names, "min_p")
	}
	if req.TopP != nil {
		chain = append(chain, warp.TopP(*req.TopP))
		names = append(names, "top_p")
	}
	return chain, names, nil
}

func (s *Server) handleSample(c *echo.Context) error {
	req, err := decodeJSON[SampleRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, routeSample, err)
	}
	if len(req.Logits) == 0 {
		return writeBadRequest(c, routeSample, newInvalidRequest("logits", "at least one logit is required"))
	}
	if _, err := candidates(nil, req.Logits, s.maxCandidates); err != nil {
		return writeBadRequest(c, routeSample, err)
	}
	cfg, err := s.samplerConfig(req)
	if err != nil {
		return writeBadRequest(c, routeSample, err)
	}

	token := logits.NewSampler(cfg).Sample(req.Logits, req.Recent)
	metrics.SamplesTotal.Inc()

	return c.JSON(http.StatusOK, SampleResponse{
		ID:     "sample_" + uuid.NewString(),
		Object: "sample",
		Token:  token,
	})
}

func (s *Server) samplerConfig(req SampleRequest) (logits.SamplerConfig, error) {
	for _, err := range []error{
		checkRange("top_k", req.TopK, 0, math.MaxInt),
		checkRange("repeat_last_n", req.RepeatLastN, 0, math.MaxInt),
		checkRange("temperature", req.Temperature, 0, math.MaxFloat32),
		checkRange("top_p", req.TopP, 0, 1),
		checkRange("min_p", req.MinP, 0, 1),
		checkRange("repeat_penalty", req.RepeatPenalty, 0, math.MaxFloat32),
	} {
		if err != nil {
			return logits.SamplerConfig{}, err
		}
	}

	cfg := s.defaults.Sampler
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.Temperature != nil {
		cfg.Temperature = *req.Temperature
	}
	if req.TopK != nil {
		cfg.TopK = *req.TopK
	}
	if req.TopP != nil {
		cfg.TopP = *req.TopP
	}
	if req.MinP != nil {
		cfg.MinP = *req.MinP
	}
	if req.RepeatPenalty != nil {
		cfg.RepeatPenalty = *req.RepeatPenalty
	}
	if req.RepeatLastN != nil {
		cfg.RepeatLastN = *req.RepeatLastN
	}
	backend, err := parseBackend(req.Backend, cfg.Backend)
	if err != nil {
		return logits.SamplerConfig{}, err
	}
	cfg.Backend = backend
	return cfg, nil
}
