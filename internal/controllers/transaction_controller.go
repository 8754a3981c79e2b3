package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/preenhq/payments-service/internal/services"
	"github.com/preenhq/payments-service/internal/utils"
)

type TransactionController struct {
	summaryService *services.SummaryService
}

func NewTransactionController(summaryService *services.SummaryService) *TransactionController {
	return &TransactionController{summaryService: summaryService}
}

// GetSplitsHandler -> GET /api/v1/transactions/{id}/splits
func (c *TransactionController) GetSplitsHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := authedUserID(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid user identity", nil)
		return
	}
	txnID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid transaction id", nil, err)
		return
	}

	resp, err := c.summaryService.GetTransactionSplits(r.Context(), txnID, ownerID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}
