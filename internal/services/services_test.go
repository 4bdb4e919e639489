package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"soko_backend/internal/cache"
	"soko_backend/internal/documents"
	"soko_backend/internal/models"
	"soko_backend/internal/repositories"
	"soko_backend/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Seller{}))
	return db
}

// testEnv wires real repositories over sqlite and local directories for
// both storage generations.
type testEnv struct {
	db         *gorm.DB
	sellerRepo repositories.SellerRepository
	userRepo   repositories.UserRepository
	docStore   *documents.Store
	objects    storage.ObjectStore
	legacy     storage.ObjectStore
	legacyDir  string
	objectDir  string
	listCache  *cache.Cache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	objectDir := t.TempDir()
	legacyDir := t.TempDir()

	objects, err := storage.NewLocalStorage(storage.Config{
		BasePath: objectDir,
		BaseURL:  "https://cdn.example.com",
	})
	require.NoError(t, err)

	legacy, err := storage.NewLocalStorage(storage.Config{BasePath: legacyDir})
	require.NoError(t, err)

	return &testEnv{
		db:         db,
		sellerRepo: repositories.NewSellerRepository(db),
		userRepo:   repositories.NewUserRepository(db),
		docStore:   documents.NewStore(objects, "documents"),
		objects:    objects,
		legacy:     legacy,
		legacyDir:  legacyDir,
		objectDir:  objectDir,
		listCache:  cache.New(time.Minute),
	}
}

func (e *testEnv) seedSeller(t *testing.T, email string, status models.SellerStatus) *models.Seller {
	t.Helper()

	seller := &models.Seller{
		Email:        email,
		BusinessName: "Mama Njeri Produce",
		BusinessType: "sole_proprietorship",
		ContactName:  "Grace Njeri",
		Phone:        "+254700000001",
		Status:       status,
	}
	require.NoError(t, e.sellerRepo.Create(context.Background(), seller))
	return seller
}

func (e *testEnv) seedUser(t *testing.T, email string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{Email: email, Name: "Grace Njeri", Role: role}
	require.NoError(t, e.userRepo.Create(context.Background(), user))
	return user
}

// recordingNotifier captures decision notifications instead of sending.
type recordingNotifier struct {
	sent []models.SellerStatus
	err  error
}

func (n *recordingNotifier) SendDecision(seller *models.Seller) error {
	n.sent = append(n.sent, seller.Status)
	return n.err
}
