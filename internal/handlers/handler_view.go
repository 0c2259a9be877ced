package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/currency_baskets/internal/core/ports/services"
	"github.com/SscSPs/currency_baskets/internal/middleware"
	"github.com/gin-gonic/gin"
)

// viewHandler serves the aggregation read views.
type viewHandler struct {
	aggregationService portssvc.AggregationSvc
}

func newViewHandler(as portssvc.AggregationSvc) *viewHandler {
	return &viewHandler{
		aggregationService: as,
	}
}

// registerViewRoutes registers the read-only aggregation routes.
func registerViewRoutes(rg *gin.RouterGroup, aggregationService portssvc.AggregationSvc) {
	h := newViewHandler(aggregationService)

	views := rg.Group("/views")
	{
		views.GET("/latest", h.getLatestAccountsView)
		views.GET("/aggregated", h.getAggregatedAmount)
	}
}

// getLatestAccountsView godoc
// @Summary Latest accounts view
// @Description Returns the users' latest accounts with base totals and week/month changes
// @Tags views
// @Produce  json
// @Param   userID query []string false "User IDs" collectionFormat(multi)
// @Success 200 {object} domain.LatestAccountsView
// @Failure 500 {object} map[string]string "Failed to build view"
// @Router /views/latest [get]
func (h *viewHandler) getLatestAccountsView(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userIDs := c.QueryArray("userID")

	view, err := h.aggregationService.GetLatestAccountsView(c.Request.Context(), userIDs)
	if err != nil {
		respondError(c, logger.With(slog.Int("user_count", len(userIDs))), err, "Failed to build view")
		return
	}

	c.JSON(http.StatusOK, view)
}

// getAggregatedAmount godoc
// @Summary Aggregated amounts per currency
// @Description Returns one native and base total per currency held by the users
// @Tags views
// @Produce  json
// @Param   userID query []string false "User IDs" collectionFormat(multi)
// @Success 200 {array} domain.AggregatedAmount
// @Failure 500 {object} map[string]string "Failed to aggregate amounts"
// @Router /views/aggregated [get]
func (h *viewHandler) getAggregatedAmount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userIDs := c.QueryArray("userID")

	amounts, err := h.aggregationService.GetAggregatedAmount(c.Request.Context(), userIDs)
	if err != nil {
		respondError(c, logger.With(slog.Int("user_count", len(userIDs))), err, "Failed to aggregate amounts")
		return
	}

	c.JSON(http.StatusOK, amounts)
}
