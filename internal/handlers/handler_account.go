package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/currency_baskets/internal/core/ports/services"
	"github.com/SscSPs/currency_baskets/internal/dto"
	"github.com/SscSPs/currency_baskets/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to the account ledger.
type accountHandler struct {
	accountService portssvc.AccountLedgerSvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(as portssvc.AccountLedgerSvcFacade) *accountHandler {
	return &accountHandler{
		accountService: as,
	}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountLedgerSvcFacade) {
	h := newAccountHandler(accountService)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.openAccount)
		accounts.PUT("/:lineageID/amount", h.updateAmount)
		accounts.GET("/:lineageID/history", h.getAccountHistory)
	}
}

// openAccount godoc
// @Summary Open an account
// @Description Records an initial deposit as the first revision of a new account lineage
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.OpenAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 500 {object} map[string]string "Failed to open account"
// @Router /accounts [post]
func (h *accountHandler) openAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for OpenAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to open account",
		slog.String("user_id", req.UserID),
		slog.String("bank", req.Bank),
		slog.String("currency_code", req.CurrencyCode),
	)

	account, err := h.accountService.OpenAccount(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to open account")
		return
	}

	logger.Info("Account opened successfully", slog.String("lineage_id", account.LineageID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(*account))
}

// updateAmount godoc
// @Summary Record an amount update
// @Description Appends a revision holding the new amount to the account lineage
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   lineageID path string true "Account lineage ID"
// @Param   amount body dto.UpdateAmountRequest true "New amount"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format"
// @Failure 404 {object} map[string]string "Account lineage not found"
// @Failure 409 {object} map[string]string "Concurrent modification"
// @Failure 500 {object} map[string]string "Failed to update account"
// @Router /accounts/{lineageID}/amount [put]
func (h *accountHandler) updateAmount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	lineageID := c.Param("lineageID")

	var req dto.UpdateAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateAmount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("lineage_id", lineageID))
	account, err := h.accountService.RecordAmountUpdate(c.Request.Context(), lineageID, *req.Amount)
	if err != nil {
		respondError(c, logger, err, "Failed to update account")
		return
	}

	logger.Info("Account amount updated", slog.Int("version", account.Version))
	c.JSON(http.StatusOK, dto.ToAccountResponse(*account))
}

// getAccountHistory godoc
// @Summary List account revisions
// @Description Pages through the revisions of an account lineage, newest first
// @Tags accounts
// @Produce  json
// @Param   lineageID path string true "Account lineage ID"
// @Param   limit query int false "Page size" minimum(1) maximum(100)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListAccountRevisionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 404 {object} map[string]string "Account lineage not found"
// @Failure 500 {object} map[string]string "Failed to list account revisions"
// @Router /accounts/{lineageID}/history [get]
func (h *accountHandler) getAccountHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	lineageID := c.Param("lineageID")

	var params dto.ListRevisionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for GetAccountHistory", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.accountService.GetAccountHistory(c.Request.Context(), lineageID, params)
	if err != nil {
		respondError(c, logger.With(slog.String("lineage_id", lineageID)), err, "Failed to list account revisions")
		return
	}

	c.JSON(http.StatusOK, resp)
}
