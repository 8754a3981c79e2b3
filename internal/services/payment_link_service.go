package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/preenhq/payments-service/internal/constants"
	"github.com/preenhq/payments-service/internal/dtos"
	"github.com/preenhq/payments-service/internal/models"
	"github.com/preenhq/payments-service/internal/repositories"
	"github.com/preenhq/payments-service/internal/utils"
)

const slugCollisionMaxAttempts = 5

type PaymentLinkService struct {
	linkRepo repositories.PaymentLinkRepository
	txnRepo  repositories.PaymentTransactionRepository
}

func NewPaymentLinkService(linkRepo repositories.PaymentLinkRepository, txnRepo repositories.PaymentTransactionRepository) *PaymentLinkService {
	return &PaymentLinkService{linkRepo: linkRepo, txnRepo: txnRepo}
}

func (s *PaymentLinkService) Create(ctx context.Context, ownerUserID uuid.UUID, req *dtos.CreatePaymentLinkRequest) (*models.PaymentLink, error) {
	if !req.AmountDue.IsPositive() {
		return nil, &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Code:       utils.ErrCodeValidation,
			Message:    "amount_due must be positive",
		}
	}

	slug, err := s.uniqueSlug(ctx)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Could not allocate a link slug",
			Err:        err,
		}
	}

	link := &models.PaymentLink{
		ID:          uuid.New(),
		TenantID:    req.TenantID,
		OwnerUserID: ownerUserID,
		Slug:        slug,
		Title:       req.Title,
		AmountDue:   req.AmountDue,
		Currency:    req.Currency,
		Status:      models.LinkStatusActive,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to create payment link",
			Err:        err,
		}
	}

	utils.Logger.Infof("Created payment link %s (slug=%s) for owner %s", link.ID, link.Slug, ownerUserID)
	return link, nil
}

func (s *PaymentLinkService) uniqueSlug(ctx context.Context) (string, error) {
	for attempt := 0; attempt < slugCollisionMaxAttempts; attempt++ {
		slug := utils.RandomSlug(constants.LinkSlugLength)
		existing, err := s.linkRepo.GetBySlug(ctx, slug)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return slug, nil
		}
	}
	return "", fmt.Errorf("slug collisions on %d consecutive attempts", slugCollisionMaxAttempts)
}

func (s *PaymentLinkService) GetBySlug(ctx context.Context, slug string) (*models.PaymentLink, error) {
	link, err := s.linkRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to fetch payment link",
			Err:        err,
		}
	}
	if link == nil || link.Status == models.LinkStatusDeleted {
		return nil, &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Payment link not found",
		}
	}
	return link, nil
}

// GetOwnedByID fetches a link and enforces that the caller owns it. Ownership
// mismatches report not-found rather than forbidden so link IDs cannot be
// probed.
func (s *PaymentLinkService) GetOwnedByID(ctx context.Context, id, ownerUserID uuid.UUID) (*models.PaymentLink, error) {
	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to fetch payment link",
			Err:        err,
		}
	}
	if link == nil || link.Status == models.LinkStatusDeleted || link.OwnerUserID != ownerUserID {
		return nil, &utils.AppError{
			StatusCode: http.StatusNotFound,
			Code:       utils.ErrCodeNotFound,
			Message:    "Payment link not found",
		}
	}
	return link, nil
}

func (s *PaymentLinkService) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]*models.PaymentLink, error) {
	links, err := s.linkRepo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, &utils.AppError{
			StatusCode: http.StatusInternalServerError,
			Code:       utils.ErrCodeInternal,
			Message:    "Failed to list payment links",
			Err:        err,
		}
	}
	return links, nil
}

// ExpireStale is the cron sweep: links past their expiry go EXPIRED, and
// transactions stuck in PENDING past the TTL go EXPIRED as well.
func (s *PaymentLinkService) ExpireStale(ctx context.Context) error {
	now := time.Now().UTC()

	expiredLinks, err := s.linkRepo.ExpireActiveOlderThan(ctx, now)
	if err != nil {
		return fmt.Errorf("expire stale links: %w", err)
	}
	if expiredLinks > 0 {
		utils.Logger.Infof("Expired %d stale payment links", expiredLinks)
	}

	expiredTxns, err := s.txnRepo.ExpirePendingOlderThan(ctx, now.Add(-constants.PendingTransactionTTL))
	if err != nil {
		return fmt.Errorf("expire stale transactions: %w", err)
	}
	if expiredTxns > 0 {
		utils.Logger.Infof("Expired %d stale pending transactions", expiredTxns)
	}
	return nil
}
