package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/preenhq/payments-service/internal/dtos"
	"github.com/preenhq/payments-service/internal/middleware"
	"github.com/preenhq/payments-service/internal/services"
	"github.com/preenhq/payments-service/internal/utils"
)

type PaymentLinkController struct {
	linkService        *services.PaymentLinkService
	splitConfigService *services.SplitConfigService
	validate           *validator.Validate
}

func NewPaymentLinkController(linkService *services.PaymentLinkService, splitConfigService *services.SplitConfigService) *PaymentLinkController {
	return &PaymentLinkController{
		linkService:        linkService,
		splitConfigService: splitConfigService,
		validate:           validator.New(),
	}
}

func formatValidationErrors(errs validator.ValidationErrors) []dtos.ValidationErrorDetail {
	details := make([]dtos.ValidationErrorDetail, 0, len(errs))
	for _, fe := range errs {
		details = append(details, dtos.ValidationErrorDetail{
			Field:   fe.Field(),
			Message: fe.Tag(),
		})
	}
	return details
}

func authedUserID(r *http.Request) (uuid.UUID, bool) {
	sub, ok := r.Context().Value(middleware.ContextKeyUserID).(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// CreateHandler -> POST /api/v1/payment-links
func (c *PaymentLinkController) CreateHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := authedUserID(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid user identity", nil)
		return
	}

	var req dtos.CreatePaymentLinkRequest
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

	link, err := c.linkService.Create(r.Context(), ownerID, &req)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.NewPaymentLinkResponse(link))
}

// ListHandler -> GET /api/v1/payment-links
func (c *PaymentLinkController) ListHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := authedUserID(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid user identity", nil)
		return
	}

	links, err := c.linkService.ListByOwner(r.Context(), ownerID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	responses := make([]dtos.PaymentLinkResponse, 0, len(links))
	for _, l := range links {
		responses = append(responses, dtos.NewPaymentLinkResponse(l))
	}
	utils.RespondWithJSON(w, http.StatusOK, responses)
}

// GetBySlugHandler -> GET /api/v1/payment-links/{slug}
func (c *PaymentLinkController) GetBySlugHandler(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	link, err := c.linkService.GetBySlug(r.Context(), slug)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewPaymentLinkResponse(link))
}

// ReplaceRecipientsHandler -> PUT /api/v1/payment-links/{id}/recipients
func (c *PaymentLinkController) ReplaceRecipientsHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := authedUserID(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid user identity", nil)
		return
	}
	linkID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid link id", nil, err)
		return
	}

	var req dtos.ReplaceRecipientsRequest
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

	link, err := c.linkService.GetOwnedByID(r.Context(), linkID, ownerID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	recipients, err := c.splitConfigService.ReplaceRecipients(r.Context(), link, req.Recipients)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.RecipientsResponse{Recipients: recipients})
}

// ListRecipientsHandler -> GET /api/v1/payment-links/{id}/recipients
func (c *PaymentLinkController) ListRecipientsHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := authedUserID(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid user identity", nil)
		return
	}
	linkID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid link id", nil, err)
		return
	}

	link, err := c.linkService.GetOwnedByID(r.Context(), linkID, ownerID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	recipients, err := c.splitConfigService.ListRecipients(r.Context(), link.ID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.RecipientsResponse{Recipients: recipients})
}

// PreviewHandler -> POST /api/v1/payment-links/{id}/preview
func (c *PaymentLinkController) PreviewHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := authedUserID(r)
	if !ok {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid user identity", nil)
		return
	}
	linkID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid link id", nil, err)
		return
	}

	var req dtos.PreviewSplitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid JSON body", nil, err)
		return
	}

	link, err := c.linkService.GetOwnedByID(r.Context(), linkID, ownerID)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	preview, err := c.splitConfigService.Preview(r.Context(), link, req.Amount)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, preview)
}
