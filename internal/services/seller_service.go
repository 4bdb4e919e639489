package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"soko_backend/internal/cache"
	"soko_backend/internal/documents"
	"soko_backend/internal/logger"
	"soko_backend/internal/models"
	"soko_backend/internal/repositories"
	"soko_backend/internal/services/dto"
	"soko_backend/internal/storage"
	"soko_backend/internal/validator"
	"soko_backend/pkg/apperrors"
)

type SellerService interface {
	// SubmitApplication handles both first submissions and re-submissions
	// after rejection. Submissions while a decision is pending or already
	// made are refused with the current status attached.
	SubmitApplication(ctx context.Context, req *dto.SellerApplicationRequest, files []documents.UploadFile) (*dto.SubmissionResult, error)

	GetSeller(ctx context.Context, sellerID string) (*dto.SellerResponse, error)
	ListSellers(ctx context.Context, status models.SellerStatus, page, pageSize int) (*dto.PaginatedSellers, error)
	DocumentDownload(ctx context.Context, sellerID, filename string) (*dto.DocumentDownload, error)
}

type sellerServiceImpl struct {
	sellerRepo repositories.SellerRepository
	userRepo   repositories.UserRepository
	docStore   *documents.Store
	resolver   *documents.Resolver
	legacy     storage.ObjectStore
	listCache  *cache.Cache
}

func NewSellerService(
	sellerRepo repositories.SellerRepository,
	userRepo repositories.UserRepository,
	docStore *documents.Store,
	legacy storage.ObjectStore,
	listCache *cache.Cache,
) SellerService {
	return &sellerServiceImpl{
		sellerRepo: sellerRepo,
		userRepo:   userRepo,
		docStore:   docStore,
		resolver:   documents.NewResolver(docStore.Objects()),
		legacy:     legacy,
		listCache:  listCache,
	}
}

func (s *sellerServiceImpl) SubmitApplication(ctx context.Context, req *dto.SellerApplicationRequest, files []documents.UploadFile) (*dto.SubmissionResult, error) {
	// File policy runs before any bytes are persisted, and every
	// violation is reported in one pass.
	var fileErrors []string
	for _, f := range files {
		if v := validator.ValidateUpload(f.Name, f.MimeType, f.Size); !v.IsValid {
			fileErrors = append(fileErrors, v.Errors...)
		}
	}
	if len(fileErrors) > 0 {
		return nil, apperrors.ValidationError(fileErrors)
	}

	existing, err := s.sellerRepo.FindByEmail(ctx, req.Email)
	if err != nil && !apperrors.Is(err, repositories.ErrSellerNotFound) {
		return nil, apperrors.DatabaseError(err, "find seller by email")
	}

	var seller *models.Seller
	switch {
	case existing == nil:
		seller, err = s.createSeller(ctx, req)
		if err != nil {
			return nil, err
		}
	case existing.Status == models.SellerStatusRejected:
		// Re-application reuses the row: back to pending, reason cleared.
		seller, err = s.resetRejectedSeller(ctx, existing, req)
		if err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("an application for %s already exists", req.Email),
			map[string]interface{}{"status": existing.Status},
		)
	}

	// Uploads are best-effort per file: a storage failure is logged and
	// reported, but does not sink the application.
	var uploaded []models.Document
	var failed []string
	for _, f := range files {
		doc, upErr := s.docStore.Upload(ctx, seller.ID, f)
		if upErr != nil {
			logger.WithError(upErr).Warn("document upload failed",
				"seller_id", seller.ID, "filename", f.Name)
			failed = append(failed, f.Name)
			continue
		}
		uploaded = append(uploaded, doc)
	}

	if len(uploaded) > 0 {
		docs := append(seller.DocumentList(), uploaded...)
		if err := s.sellerRepo.ReplaceDocuments(ctx, seller.ID, docs); err != nil {
			return nil, apperrors.DatabaseError(err, "replace seller documents")
		}
		_ = seller.SetDocumentList(docs)
	}

	if err := s.linkUser(ctx, req); err != nil {
		// The seller row is the source of truth; a user-link hiccup is
		// logged, not surfaced.
		logger.WithError(err).Warn("failed to link user for application", "email", req.Email)
	}

	s.listCache.Flush()

	return &dto.SubmissionResult{
		Seller:        seller,
		UploadedCount: len(uploaded),
		FailedUploads: failed,
	}, nil
}

func (s *sellerServiceImpl) createSeller(ctx context.Context, req *dto.SellerApplicationRequest) (*models.Seller, error) {
	seller := &models.Seller{
		ClerkID:            req.ClerkID,
		Email:              req.Email,
		BusinessName:       req.BusinessName,
		BusinessType:       req.BusinessType,
		ContactName:        req.ContactName,
		Phone:              req.Phone,
		RegistrationNumber: req.RegistrationNumber,
		TaxID:              req.TaxID,
		Status:             models.SellerStatusPending,
	}
	if err := applyProfileJSON(seller, req); err != nil {
		return nil, apperrors.InternalError(err)
	}
	if err := seller.SetDocumentList(nil); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if err := s.sellerRepo.Create(ctx, seller); err != nil {
		return nil, apperrors.DatabaseError(err, "create seller")
	}
	return seller, nil
}

func (s *sellerServiceImpl) resetRejectedSeller(ctx context.Context, seller *models.Seller, req *dto.SellerApplicationRequest) (*models.Seller, error) {
	seller.BusinessName = req.BusinessName
	seller.BusinessType = req.BusinessType
	seller.ContactName = req.ContactName
	seller.Phone = req.Phone
	seller.RegistrationNumber = req.RegistrationNumber
	seller.TaxID = req.TaxID
	if req.ClerkID != "" {
		seller.ClerkID = req.ClerkID
	}
	if err := applyProfileJSON(seller, req); err != nil {
		return nil, apperrors.InternalError(err)
	}

	seller.Status = models.SellerStatusPending
	seller.RejectionReason = nil
	seller.VerificationDate = nil

	if err := s.sellerRepo.Update(ctx, seller); err != nil {
		return nil, apperrors.DatabaseError(err, "reset rejected seller")
	}
	return seller, nil
}

func applyProfileJSON(seller *models.Seller, req *dto.SellerApplicationRequest) error {
	if err := seller.SetCategoryList(req.Categories); err != nil {
		return err
	}
	if req.Location != nil {
		raw, err := json.Marshal(req.Location)
		if err != nil {
			return err
		}
		seller.Location = datatypes.JSON(raw)
	}
	if req.BankInfo != nil {
		raw, err := json.Marshal(req.BankInfo)
		if err != nil {
			return err
		}
		seller.BankInfo = datatypes.JSON(raw)
	}
	return nil
}

// linkUser keeps the marketplace account in step with the application:
// applicants become seller_pending until an admin decides.
func (s *sellerServiceImpl) linkUser(ctx context.Context, req *dto.SellerApplicationRequest) error {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if !apperrors.Is(err, repositories.ErrUserNotFound) {
			return err
		}
		return s.userRepo.Create(ctx, &models.User{
			ClerkID: req.ClerkID,
			Email:   req.Email,
			Name:    req.ContactName,
			Role:    models.UserRoleSellerPending,
		})
	}

	switch user.Role {
	case models.UserRoleCustomer, models.UserRoleSellerPending:
		return s.userRepo.UpdateRoleByEmail(ctx, req.Email, models.UserRoleSellerPending)
	}
	// Admins and already-approved sellers keep their role.
	return nil
}

func (s *sellerServiceImpl) GetSeller(ctx context.Context, sellerID string) (*dto.SellerResponse, error) {
	seller, err := s.sellerRepo.FindByID(ctx, sellerID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrSellerNotFound) {
			return nil, apperrors.NewNotFoundError("seller not found")
		}
		return nil, apperrors.DatabaseError(err, "find seller")
	}

	docs := seller.DocumentList()
	infos := make([]documents.DocumentInfo, 0, len(docs))
	for _, d := range docs {
		infos = append(infos, documents.Info(d))
	}

	return &dto.SellerResponse{Seller: seller, Documents: infos}, nil
}

func (s *sellerServiceImpl) ListSellers(ctx context.Context, status models.SellerStatus, page, pageSize int) (*dto.PaginatedSellers, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	key := fmt.Sprintf("sellers:%s:%d:%d", status, page, pageSize)
	if cached, ok := s.listCache.Get(key); ok {
		if result, ok := cached.(*dto.PaginatedSellers); ok {
			return result, nil
		}
	}

	sellers, total, err := s.sellerRepo.List(ctx, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "list sellers")
	}

	result := &dto.PaginatedSellers{
		Sellers:  sellers,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	s.listCache.Set(key, result)
	return result, nil
}

func (s *sellerServiceImpl) DocumentDownload(ctx context.Context, sellerID, filename string) (*dto.DocumentDownload, error) {
	seller, err := s.sellerRepo.FindByID(ctx, sellerID)
	if err != nil {
		if apperrors.Is(err, repositories.ErrSellerNotFound) {
			return nil, apperrors.NewNotFoundError("seller not found")
		}
		return nil, apperrors.DatabaseError(err, "find seller")
	}

	var doc *models.Document
	for _, d := range seller.DocumentList() {
		if d.Filename == filename {
			d := d
			doc = &d
			break
		}
	}
	if doc == nil {
		return nil, apperrors.NewNotFoundError("document not found")
	}

	if url, ok := s.resolver.DownloadURL(*doc); ok {
		return &dto.DocumentDownload{
			URL:          url,
			OriginalName: doc.OriginalName,
			MimeType:     doc.MimeType,
		}, nil
	}

	// Legacy document: find the file on disk for the route layer to
	// stream.
	path, found := s.locateLegacy(ctx, sellerID, doc)
	if !found {
		return nil, apperrors.NewNotFoundError("legacy document file is missing")
	}
	return &dto.DocumentDownload{
		Legacy:       true,
		Path:         path,
		OriginalName: doc.OriginalName,
		MimeType:     doc.MimeType,
	}, nil
}

func (s *sellerServiceImpl) locateLegacy(ctx context.Context, sellerID string, doc *models.Document) (string, bool) {
	for _, candidate := range documents.LegacyCandidates(sellerID, *doc) {
		if ok, err := s.legacy.Exists(ctx, candidate); err == nil && ok {
			return candidate, true
		}
	}
	return "", false
}
