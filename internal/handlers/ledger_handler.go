package handlers

import (
	"net/http"

	"github.com/olosevents/backend/internal/models"
	"github.com/olosevents/backend/internal/services"
)

type LedgerHandler struct {
	ledger *services.LedgerService
}

func NewLedgerHandler(ledger *services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// GetBalance returns the caller's Olos balance
// @Summary Get balance
// @Description Current balance with lifetime earned and spent totals
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,data=models.UserLedger}
// @Failure 401 {object} services.ErrorResponse
// @Failure 500 {object} services.ErrorResponse
// @Router /ledger/balance [get]
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	ledger, err := h.ledger.GetLedger(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ledger)
}

// GetTransactions lists the caller's ledger transactions
// @Summary Transaction history
// @Description Newest first. limit defaults to 20 and is capped at 100
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of transactions"
// @Success 200 {object} object{success=bool,data=[]models.LedgerTransaction}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /ledger/transactions [get]
func (h *LedgerHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit, ok := queryLimit(w, r)
	if !ok {
		return
	}

	history, err := h.ledger.GetTransactionHistory(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if history == nil {
		history = []models.LedgerTransaction{}
	}

	writeJSON(w, http.StatusOK, history)
}

// Reconcile replays the caller's ledger
// @Summary Reconcile ledger
// @Description Replays completed transactions and compares them with the stored balance
// @Tags Ledger
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{success=bool,data=services.ReconciliationReport}
// @Failure 401 {object} services.ErrorResponse
// @Router /ledger/reconciliation [get]
func (h *LedgerHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	report, err := h.ledger.Reconcile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
