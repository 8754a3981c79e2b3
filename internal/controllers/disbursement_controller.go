package controllers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/preenhq/payments-service/internal/config"
	"github.com/preenhq/payments-service/internal/constants"
	"github.com/preenhq/payments-service/internal/dtos"
	"github.com/preenhq/payments-service/internal/services"
	"github.com/preenhq/payments-service/internal/utils"
)

type DisbursementController struct {
	cfg                 *config.Config
	disbursementService *services.DisbursementService
	validate            *validator.Validate
}

func NewDisbursementController(cfg *config.Config, disbursementService *services.DisbursementService) *DisbursementController {
	return &DisbursementController{
		cfg:                 cfg,
		disbursementService: disbursementService,
		validate:            validator.New(),
	}
}

// OutcomeHandler -> POST /api/v1/payments/disbursements/{id}/outcome
//
// Called by the payout pipeline, authenticated by a shared secret header.
func (c *DisbursementController) OutcomeHandler(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get(constants.DisbursementCallbackSecretHeader)
	if subtle.ConstantTimeCompare([]byte(secret), []byte(c.cfg.DisbursementCallbackSecret)) != 1 {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid callback secret", nil)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid disbursement id", nil, err)
		return
	}

	var req dtos.DisbursementOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON body", nil, err)
		return
	}
	if err := c.validate.Struct(req); err != nil {
		if validationErrs, ok := err.(validator.ValidationErrors); ok {
			utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", formatValidationErrors(validationErrs))
			return
		}
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", nil, err)
		return
	}

	if err := c.disbursementService.ApplyOutcome(r.Context(), id, &req); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.DisbursementOutcomeResponse{Message: "Outcome recorded"})
}
