package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"soko_backend/internal/models"
)

var (
	ErrSellerNotFound = errors.New("seller not found")
	// ErrStaleSeller means the row changed between read and write. The
	// update carries an updated_at precondition so a concurrent admin
	// decision surfaces as a conflict instead of a silent overwrite.
	ErrStaleSeller = errors.New("seller was modified concurrently")
)

type SellerRepository interface {
	Create(ctx context.Context, seller *models.Seller) error
	FindByID(ctx context.Context, id string) (*models.Seller, error)
	FindByEmail(ctx context.Context, email string) (*models.Seller, error)
	FindByClerkID(ctx context.Context, clerkID string) (*models.Seller, error)
	Update(ctx context.Context, seller *models.Seller) error

	// UpdateVerification writes status and its dependent fields in one
	// row update, guarded by the expected updated_at value.
	UpdateVerification(ctx context.Context, sellerID string, expectedUpdatedAt time.Time,
		status models.SellerStatus, rejectionReason *string, verificationDate *time.Time) error

	// ReplaceDocuments rewrites the documents column in a single call so
	// a reader never sees a partially rewritten list.
	ReplaceDocuments(ctx context.Context, sellerID string, docs []models.Document) error

	List(ctx context.Context, status models.SellerStatus, limit, offset int) ([]models.Seller, int64, error)
	ListWithDocuments(ctx context.Context) ([]models.Seller, error)
}

type sellerRepositoryImpl struct {
	db *gorm.DB
}

func NewSellerRepository(db *gorm.DB) SellerRepository {
	return &sellerRepositoryImpl{db: db}
}

func (r *sellerRepositoryImpl) Create(ctx context.Context, seller *models.Seller) error {
	return r.db.WithContext(ctx).Create(seller).Error
}

func (r *sellerRepositoryImpl) FindByID(ctx context.Context, id string) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&seller).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, err
	}
	return &seller, nil
}

func (r *sellerRepositoryImpl) FindByEmail(ctx context.Context, email string) (*models.Seller, error) {
	var seller models.Seller
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&seller).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, err
	}
	return &seller, nil
}

func (r *sellerRepositoryImpl) FindByClerkID(ctx context.Context, clerkID string) (*models.Seller, error) {
	var seller models.Seller
	err := r.db.WithContext(ctx).Where("clerk_id = ?", clerkID).First(&seller).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, err
	}
	return &seller, nil
}

func (r *sellerRepositoryImpl) Update(ctx context.Context, seller *models.Seller) error {
	return r.db.WithContext(ctx).Save(seller).Error
}

func (r *sellerRepositoryImpl) UpdateVerification(ctx context.Context, sellerID string, expectedUpdatedAt time.Time,
	status models.SellerStatus, rejectionReason *string, verificationDate *time.Time) error {

	result := r.db.WithContext(ctx).
		Model(&models.Seller{}).
		Where("id = ? AND updated_at = ?", sellerID, expectedUpdatedAt).
		Updates(map[string]interface{}{
			"status":            status,
			"rejection_reason":  rejectionReason,
			"verification_date": verificationDate,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// Distinguish a vanished row from a concurrent write.
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Seller{}).Where("id = ?", sellerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrSellerNotFound
		}
		return ErrStaleSeller
	}

	return nil
}

func (r *sellerRepositoryImpl) ReplaceDocuments(ctx context.Context, sellerID string, docs []models.Document) error {
	if docs == nil {
		docs = []models.Document{}
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&models.Seller{}).
		Where("id = ?", sellerID).
		Updates(map[string]interface{}{
			"documents":  datatypes.JSON(raw),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSellerNotFound
	}
	return nil
}

func (r *sellerRepositoryImpl) List(ctx context.Context, status models.SellerStatus, limit, offset int) ([]models.Seller, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Seller{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sellers []models.Seller
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&sellers).Error
	if err != nil {
		return nil, 0, err
	}

	return sellers, total, nil
}

func (r *sellerRepositoryImpl) ListWithDocuments(ctx context.Context) ([]models.Seller, error) {
	var sellers []models.Seller
	err := r.db.WithContext(ctx).
		Where("documents IS NOT NULL").
		Order("created_at ASC").
		Find(&sellers).Error
	if err != nil {
		return nil, err
	}

	// An empty JSON array still matches the column filter; drop those here
	// rather than fighting per-dialect JSON operators.
	out := sellers[:0]
	for _, s := range sellers {
		if len(s.DocumentList()) > 0 {
			out = append(out, s)
		}
	}
	return out, nil
}
