package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/currency_baskets/internal/core/ports/services"
	"github.com/SscSPs/currency_baskets/internal/dto"
	"github.com/SscSPs/currency_baskets/internal/middleware"
	"github.com/gin-gonic/gin"
)

// rateHandler handles HTTP requests related to the rate ledger.
type rateHandler struct {
	rateService portssvc.RateLedgerSvcFacade
}

// newRateHandler creates a new rateHandler.
func newRateHandler(rs portssvc.RateLedgerSvcFacade) *rateHandler {
	return &rateHandler{
		rateService: rs,
	}
}

// registerRateRoutes registers routes related to rates.
func registerRateRoutes(rg *gin.RouterGroup, rateService portssvc.RateLedgerSvcFacade) {
	h := newRateHandler(rateService)

	rates := rg.Group("/rates")
	{
		rates.POST("", h.registerRate)
		rates.GET("", h.listLatestRates)
		rates.PUT("/:lineageID", h.updateRate)
		rates.GET("/:lineageID/history", h.getRateHistory)
	}
}

// registerRate godoc
// @Summary Register a rate
// @Description Starts tracking a currency with its first rate revision
// @Tags rates
// @Accept  json
// @Produce  json
// @Param   rate body dto.RegisterRateRequest true "Rate details"
// @Success 201 {object} dto.RateResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 409 {object} map[string]string "Currency already tracked"
// @Failure 500 {object} map[string]string "Failed to register rate"
// @Router /rates [post]
func (h *rateHandler) registerRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RegisterRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RegisterRate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to register rate",
		slog.String("currency_code", req.CurrencyCode),
		slog.Any("rate", req.Rate),
	)

	rate, err := h.rateService.RegisterRate(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to register rate")
		return
	}

	logger.Info("Rate registered successfully", slog.String("lineage_id", rate.LineageID))
	c.JSON(http.StatusCreated, dto.ToRateResponse(*rate))
}

// listLatestRates godoc
// @Summary List latest rates
// @Description Retrieves the current rate of every tracked currency
// @Tags rates
// @Produce  json
// @Success 200 {array} dto.RateResponse
// @Failure 500 {object} map[string]string "Failed to list rates"
// @Router /rates [get]
func (h *rateHandler) listLatestRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	rates, err := h.rateService.ListLatestRates(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list rates")
		return
	}

	c.JSON(http.StatusOK, dto.ToListRateResponse(rates))
}

// updateRate godoc
// @Summary Record a rate update
// @Description Appends a rate revision and re-values every account priced in the lineage
// @Tags rates
// @Accept  json
// @Produce  json
// @Param   lineageID path string true "Rate lineage ID"
// @Param   rate body dto.UpdateRateRequest true "New rate"
// @Success 200 {object} dto.RateUpdateResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 404 {object} map[string]string "Rate lineage not found"
// @Failure 409 {object} map[string]string "Concurrent modification"
// @Failure 500 {object} map[string]string "Failed to update rate"
// @Router /rates/{lineageID} [put]
func (h *rateHandler) updateRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	lineageID := c.Param("lineageID")

	var req dto.UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateRate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("lineage_id", lineageID))
	result, err := h.rateService.RecordRateUpdate(c.Request.Context(), lineageID, *req.Rate)
	if err != nil {
		respondError(c, logger, err, "Failed to update rate")
		return
	}

	logger.Info("Rate updated",
		slog.Int("version", result.Rate.Version),
		slog.Int("revalued_accounts", len(result.Accounts)),
	)
	c.JSON(http.StatusOK, dto.ToRateUpdateResponse(*result))
}

// getRateHistory godoc
// @Summary List rate revisions
// @Description Retrieves every revision of a rate lineage, newest first
// @Tags rates
// @Produce  json
// @Param   lineageID path string true "Rate lineage ID"
// @Success 200 {array} dto.RateResponse
// @Failure 404 {object} map[string]string "Rate lineage not found"
// @Failure 500 {object} map[string]string "Failed to list rate revisions"
// @Router /rates/{lineageID}/history [get]
func (h *rateHandler) getRateHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	lineageID := c.Param("lineageID")

	rates, err := h.rateService.GetRateHistory(c.Request.Context(), lineageID)
	if err != nil {
		respondError(c, logger.With(slog.String("lineage_id", lineageID)), err, "Failed to list rate revisions")
		return
	}

	c.JSON(http.StatusOK, dto.ToListRateResponse(rates))
}
