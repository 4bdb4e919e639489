package services

import (
	"context"
	"errors"
	"io"
	"time"

	"soko_backend/internal/documents"
	"soko_backend/internal/logger"
	"soko_backend/internal/models"
	"soko_backend/internal/repositories"
	"soko_backend/internal/services/dto"
	"soko_backend/internal/storage"
	"soko_backend/pkg/apperrors"
)

// MigrationService moves legacy filesystem documents into the object
// store. Both operations are batch jobs: one bad document or seller never
// stops the rest, and re-running is always safe.
type MigrationService interface {
	Migrate(ctx context.Context) (*dto.MigrationStats, error)
	Verify(ctx context.Context) (*dto.VerifyReport, error)
}

type migrationServiceImpl struct {
	sellerRepo repositories.SellerRepository
	docStore   *documents.Store
	legacy     storage.ObjectStore
	now        func() time.Time
}

func NewMigrationService(
	sellerRepo repositories.SellerRepository,
	docStore *documents.Store,
	legacy storage.ObjectStore,
) MigrationService {
	return &migrationServiceImpl{
		sellerRepo: sellerRepo,
		docStore:   docStore,
		legacy:     legacy,
		now:        time.Now,
	}
}

func (s *migrationServiceImpl) Migrate(ctx context.Context) (*dto.MigrationStats, error) {
	if _, err := s.docStore.EnsureBucket(ctx); err != nil {
		// Without a destination bucket nothing can move; this is the one
		// failure that aborts a run.
		return nil, err
	}

	sellers, err := s.sellerRepo.ListWithDocuments(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "list sellers with documents")
	}

	stats := &dto.MigrationStats{}
	for i := range sellers {
		s.migrateSeller(ctx, &sellers[i], stats)
		stats.SellersProcessed++
	}

	logger.Info("document migration finished",
		"sellers", stats.SellersProcessed,
		"migrated", stats.DocumentsMigrated,
		"skipped", stats.DocumentsSkipped,
		"failed", stats.DocumentsFailed,
	)
	return stats, nil
}

func (s *migrationServiceImpl) migrateSeller(ctx context.Context, seller *models.Seller, stats *dto.MigrationStats) {
	docs := seller.DocumentList()
	changed := 0

	for i := range docs {
		stats.DocumentsProcessed++

		if documents.IsStored(docs[i]) {
			stats.DocumentsSkipped++
			continue
		}

		migrated, err := s.migrateDocument(ctx, seller.ID, docs[i])
		if err != nil {
			stats.DocumentsFailed++
			stats.Errors = append(stats.Errors, dto.MigrationError{
				SellerID: seller.ID,
				Filename: docs[i].Filename,
				Reason:   err.Error(),
			})
			logger.MigrationLog(seller.ID, docs[i].Filename, err)
			continue
		}

		docs[i] = migrated
		changed++
		stats.DocumentsMigrated++
		logger.MigrationLog(seller.ID, migrated.Filename, nil)
	}

	if changed == 0 {
		return
	}

	// One write per seller keeps the partial-update window as small as
	// the row-update granularity allows.
	if err := s.sellerRepo.ReplaceDocuments(ctx, seller.ID, docs); err != nil {
		stats.DocumentsMigrated -= changed
		stats.DocumentsFailed += changed
		stats.Errors = append(stats.Errors, dto.MigrationError{
			SellerID: seller.ID,
			Filename: "*",
			Reason:   "failed to persist migrated documents: " + err.Error(),
		})
	}
}

// migrateDocument reads the legacy bytes and re-uploads them, keeping the
// descriptor's identity fields and stored name intact.
func (s *migrationServiceImpl) migrateDocument(ctx context.Context, sellerID string, doc models.Document) (models.Document, error) {
	reader, err := s.openLegacy(ctx, sellerID, doc)
	if err != nil {
		return models.Document{}, err
	}
	defer reader.Close()

	name := doc.Filename
	if name == "" {
		name = doc.OriginalName
	}

	uploaded, err := s.docStore.UploadAs(ctx, sellerID, name, documents.UploadFile{
		Name:     doc.OriginalName,
		MimeType: doc.MimeType,
		Size:     doc.Size,
		Reader:   reader,
	})
	if err != nil {
		return models.Document{}, err
	}

	// Only provenance and location change; filename, originalName,
	// mimetype, size and uploadedAt stay as they were.
	migratedAt := s.now().UTC()
	doc.Storage = uploaded.Storage
	doc.Path = uploaded.Path
	doc.URL = uploaded.URL
	doc.MigratedAt = &migratedAt

	return doc, nil
}

func (s *migrationServiceImpl) openLegacy(ctx context.Context, sellerID string, doc models.Document) (io.ReadCloser, error) {
	for _, candidate := range documents.LegacyCandidates(sellerID, doc) {
		ok, err := s.legacy.Exists(ctx, candidate)
		if err != nil || !ok {
			continue
		}
		rc, err := s.legacy.Get(ctx, candidate)
		if err != nil {
			continue
		}
		return rc, nil
	}
	return nil, apperrors.StorageError(nil, "legacy file not found on disk")
}

func (s *migrationServiceImpl) Verify(ctx context.Context) (*dto.VerifyReport, error) {
	sellers, err := s.sellerRepo.ListWithDocuments(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError(err, "list sellers with documents")
	}

	report := &dto.VerifyReport{}
	for i := range sellers {
		for _, doc := range sellers[i].DocumentList() {
			if !documents.IsStored(doc) {
				continue
			}
			report.DocumentsChecked++

			if s.fetchable(ctx, doc) {
				report.Accessible++
				continue
			}

			report.Inaccessible++
			report.Problems = append(report.Problems, dto.MigrationError{
				SellerID: sellers[i].ID,
				Filename: doc.Filename,
				Reason:   "stored document bytes are not fetchable",
			})
		}
	}

	return report, nil
}

// fetchable does an actual byte fetch, not just a metadata check, to
// catch objects that were removed after a successful upload.
func (s *migrationServiceImpl) fetchable(ctx context.Context, doc models.Document) bool {
	if doc.Path == "" {
		return false
	}
	rc, err := s.docStore.Get(ctx, doc.Path)
	if err != nil {
		return false
	}
	defer rc.Close()

	buf := make([]byte, 1)
	_, err = rc.Read(buf)
	return err == nil || errors.Is(err, io.EOF)
}
