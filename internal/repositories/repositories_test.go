package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"soko_backend/internal/models"
)

// newTestDB opens a private in-memory database per test. Times are kept
// in UTC so the updated_at precondition compares cleanly across the
// driver round trip.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Seller{}))
	return db
}

func newPendingSeller(email string) *models.Seller {
	return &models.Seller{
		Email:        email,
		BusinessName: "Mama Njeri Produce",
		BusinessType: "sole_proprietorship",
		ContactName:  "Grace Njeri",
		Phone:        "+254700000001",
		Status:       models.SellerStatusPending,
	}
}
