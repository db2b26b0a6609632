package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opticlab/labres-api/internal/dto"
	"github.com/opticlab/labres-api/internal/models"
	"github.com/opticlab/labres-api/internal/service"
	appErrors "github.com/opticlab/labres-api/pkg/errors"
	"github.com/opticlab/labres-api/pkg/response"
)

type topologyResolver interface {
	Resolve(ctx context.Context, req dto.ResolveTopologyRequest) (*dto.ResolveTopologyResponse, error)
}

type topologySuggester interface {
	Suggest(ctx context.Context, req dto.SuggestTopologyRequest) (*dto.SuggestTopologyResponse, error)
}

type overrideApplier interface {
	Apply(ctx context.Context, req dto.OverrideRequest) (models.Mapping, error)
}

// TopologyHandler exposes topology resolution, ranked suggestions and manual
// overrides.
type TopologyHandler struct {
	resolver  topologyResolver
	suggester topologySuggester
	overrides overrideApplier
	metrics   *service.MetricsService
}

// NewTopologyHandler builds a new handler.
func NewTopologyHandler(resolver topologyResolver, suggester topologySuggester, overrides overrideApplier, metrics *service.MetricsService) *TopologyHandler {
	return &TopologyHandler{resolver: resolver, suggester: suggester, overrides: overrides, metrics: metrics}
}

// Resolve godoc
// @Summary Resolve a logical topology
// @Description Maps the logical topology onto available physical devices
// @Tags Topology
// @Accept json
// @Produce json
// @Param payload body dto.ResolveTopologyRequest true "Logical topology and window"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /topology/resolve [post]
func (h *TopologyHandler) Resolve(c *gin.Context) {
	var req dto.ResolveTopologyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid topology payload"))
		return
	}

	start := time.Now()
	resolved, err := h.resolver.Resolve(c.Request.Context(), req)
	if err != nil {
		h.metrics.ObserveResolve(resolveOutcome(err), time.Since(start))
		response.Error(c, err)
		return
	}
	h.metrics.ObserveResolve("ok", time.Since(start))
	response.JSON(c, http.StatusOK, resolved, nil)
}

// Suggest godoc
// @Summary Ranked topology suggestions
// @Description Resolves and ranks mappings on performance, availability, efficiency and reliability
// @Tags Topology
// @Accept json
// @Produce json
// @Param payload body dto.SuggestTopologyRequest true "Logical topology, window and annotate flag"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /topology/suggest [post]
func (h *TopologyHandler) Suggest(c *gin.Context) {
	var req dto.SuggestTopologyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid suggestion payload"))
		return
	}

	start := time.Now()
	suggestions, err := h.suggester.Suggest(c.Request.Context(), req)
	if err != nil {
		h.metrics.ObserveResolve(resolveOutcome(err), time.Since(start))
		response.Error(c, err)
		return
	}
	h.metrics.ObserveResolve("ok", time.Since(start))
	response.JSON(c, http.StatusOK, suggestions, nil)
}

// Override godoc
// @Summary Override one node of a mapping
// @Description Substitutes an alternative candidate and recomputes the total fit score
// @Tags Topology
// @Accept json
// @Produce json
// @Param payload body dto.OverrideRequest true "Mapping, logical node and replacement candidate"
// @Success 200 {object} response.Envelope
// @Router /topology/override [post]
func (h *TopologyHandler) Override(c *gin.Context) {
	var req dto.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid override payload"))
		return
	}

	mapping, err := h.overrides.Apply(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordOverride()
	response.JSON(c, http.StatusOK, mapping, nil)
}

func resolveOutcome(err error) string {
	if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNoFeasibleMapping.Code {
		return "infeasible"
	}
	return "error"
}
