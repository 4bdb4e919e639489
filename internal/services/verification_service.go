package services

import (
	"context"
	"time"

	"soko_backend/internal/cache"
	"soko_backend/internal/email"
	"soko_backend/internal/logger"
	"soko_backend/internal/models"
	"soko_backend/internal/repositories"
	"soko_backend/internal/services/dto"
	"soko_backend/pkg/apperrors"
)

// VerificationService owns the pending/approved/rejected lifecycle and
// its side effects. The admin check happens here as well as in the
// middleware: no seller data is read for a non-admin caller.
type VerificationService interface {
	UpdateStatus(ctx context.Context, callerRole models.UserRole, sellerID string, req *dto.VerificationDecisionRequest) (*models.Seller, error)
}

type verificationServiceImpl struct {
	sellerRepo repositories.SellerRepository
	userRepo   repositories.UserRepository
	notifier   email.Notifier
	listCache  *cache.Cache
	now        func() time.Time
}

func NewVerificationService(
	sellerRepo repositories.SellerRepository,
	userRepo repositories.UserRepository,
	notifier email.Notifier,
	listCache *cache.Cache,
) VerificationService {
	return &verificationServiceImpl{
		sellerRepo: sellerRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		listCache:  listCache,
		now:        time.Now,
	}
}

func (s *verificationServiceImpl) UpdateStatus(ctx context.Context, callerRole models.UserRole, sellerID string, req *dto.VerificationDecisionRequest) (*models.Seller, error) {
	if callerRole != models.UserRoleAdmin {
		return nil, apperrors.NewForbiddenError("only admins can update verification status")
	}

	target := models.SellerStatus(req.Status)
	if !models.ValidSellerStatus(target) {
		return nil, apperrors.NewBadRequestError("status must be pending, approved or rejected")
	}

	seller, err := s.sellerRepo.FindByID(ctx, sellerID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrSellerNotFound) {
			return nil, apperrors.NewNotFoundError("seller not found")
		}
		return nil, apperrors.DatabaseError(err, "find seller")
	}

	reason, verifiedAt := s.fieldsFor(seller, target, req.Notes)

	err = s.sellerRepo.UpdateVerification(ctx, sellerID, seller.UpdatedAt, target, reason, verifiedAt)
	if err != nil {
		switch {
		case apperrors.Is(err, repositories.ErrStaleSeller):
			return nil, apperrors.NewConflictError(
				"seller was updated by someone else, reload and retry",
				map[string]interface{}{"status": seller.Status},
			)
		case apperrors.Is(err, repositories.ErrSellerNotFound):
			return nil, apperrors.NewNotFoundError("seller not found")
		default:
			return nil, apperrors.DatabaseError(err, "update verification status")
		}
	}

	seller.Status = target
	seller.RejectionReason = reason
	seller.VerificationDate = verifiedAt

	// Role sync runs after the seller write on purpose: the seller row is
	// the source of truth, so a crash between the two writes leaves the
	// recoverable state. The write is retried once before giving up.
	s.syncUserRole(ctx, seller)

	if err := s.notifier.SendDecision(seller); err != nil {
		logger.WithError(err).Warn("decision notification failed", "seller_id", seller.ID)
	}

	s.listCache.Flush()

	return seller, nil
}

// fieldsFor computes rejection_reason and verification_date for the
// target status, keeping the transition idempotent: re-asserting the
// current status never corrupts either field.
func (s *verificationServiceImpl) fieldsFor(seller *models.Seller, target models.SellerStatus, notes string) (*string, *time.Time) {
	switch target {
	case models.SellerStatusApproved:
		if seller.Status == models.SellerStatusApproved && seller.VerificationDate != nil {
			return nil, seller.VerificationDate
		}
		now := s.now().UTC()
		return nil, &now
	case models.SellerStatusRejected:
		// Notes are recommended for rejections but not required; an empty
		// reason is stored rather than refused.
		if notes == "" && seller.Status == models.SellerStatusRejected && seller.RejectionReason != nil {
			return seller.RejectionReason, nil
		}
		return &notes, nil
	default:
		return nil, nil
	}
}

func (s *verificationServiceImpl) syncUserRole(ctx context.Context, seller *models.Seller) {
	var role models.UserRole
	switch seller.Status {
	case models.SellerStatusApproved:
		role = models.UserRoleSeller
	case models.SellerStatusRejected:
		role = models.UserRoleCustomer
	default:
		role = models.UserRoleSellerPending
	}

	err := s.userRepo.UpdateRoleByEmail(ctx, seller.Email, role)
	if err != nil && !apperrors.Is(err, repositories.ErrUserNotFound) {
		// One retry covers transient failures; anything else is logged
		// for the reconciliation sweep.
		err = s.userRepo.UpdateRoleByEmail(ctx, seller.Email, role)
	}
	switch {
	case err == nil:
	case apperrors.Is(err, repositories.ErrUserNotFound):
		logger.Warn("no user account to sync for seller", "seller_id", seller.ID, "email", seller.Email)
	default:
		logger.WithError(err).Error("failed to sync user role after verification",
			"seller_id", seller.ID, "email", seller.Email, "role", role)
	}
}
