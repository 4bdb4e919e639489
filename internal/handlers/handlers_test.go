package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"soko_backend/internal/auth"
	"soko_backend/internal/cache"
	"soko_backend/internal/config"
	"soko_backend/internal/documents"
	"soko_backend/internal/email"
	"soko_backend/internal/handlers"
	"soko_backend/internal/models"
	"soko_backend/internal/repositories"
	"soko_backend/internal/routes"
	"soko_backend/internal/services"
	"soko_backend/internal/storage"
	"soko_backend/internal/validator"
)

type apiEnv struct {
	router     *gin.Engine
	sellerRepo repositories.SellerRepository
	userRepo   repositories.UserRepository
	legacy     storage.ObjectStore
	adminToken string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prev := config.AppConfig
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = 60
	config.AppConfig = cfg
	t.Cleanup(func() { config.AppConfig = prev })

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Seller{}))

	objects, err := storage.NewLocalStorage(storage.Config{
		BasePath: t.TempDir(),
		BaseURL:  "https://cdn.example.com",
	})
	require.NoError(t, err)
	legacy, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	sellerRepo := repositories.NewSellerRepository(db)
	userRepo := repositories.NewUserRepository(db)
	docStore := documents.NewStore(objects, "documents")
	listCache := cache.New(time.Minute)

	sellerService := services.NewSellerService(sellerRepo, userRepo, docStore, legacy, listCache)
	verificationService := services.NewVerificationService(sellerRepo, userRepo, email.NoopNotifier{}, listCache)
	migrationService := services.NewMigrationService(sellerRepo, docStore, legacy)

	base := handlers.NewBaseHandler(validator.New())
	router := gin.New()
	routes.RegisterRoutes(router,
		handlers.NewSellerHandler(base, sellerService, legacy),
		handlers.NewAdminHandler(base, verificationService, migrationService),
	)

	adminToken, err := auth.GenerateToken("user_admin", "admin@soko.co.ke", models.UserRoleAdmin)
	require.NoError(t, err)

	return &apiEnv{
		router:     router,
		sellerRepo: sellerRepo,
		userRepo:   userRepo,
		legacy:     legacy,
		adminToken: adminToken,
	}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *apiEnv) doJSON(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return e.do(t, method, path, token, bytes.NewBuffer(raw), "application/json")
}

func applicationForm(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	data := map[string]interface{}{
		"email":         "will-be-overridden@example.com",
		"business_name": "Mama Njeri Produce",
		"contact_name":  "Grace Njeri",
		"categories":    []string{"produce"},
	}
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("data", string(raw)))

	for name, content := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="documents"; filename=%q`, name))
		h.Set("Content-Type", "application/pdf")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestSubmitApplicationEndpoint(t *testing.T) {
	env := newAPIEnv(t)

	token, err := auth.GenerateToken("user_2abc", "grace@njeri.co.ke", models.UserRoleCustomer)
	require.NoError(t, err)

	body, contentType := applicationForm(t, map[string]string{"licence.pdf": "pdf bytes"})
	w := env.do(t, http.MethodPost, "/api/v1/sellers/apply", token, body, contentType)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// The application is keyed to the authenticated caller, not to
	// whatever email the form claimed.
	seller, err := env.sellerRepo.FindByEmail(context.Background(), "grace@njeri.co.ke")
	require.NoError(t, err)
	assert.Equal(t, models.SellerStatusPending, seller.Status)
	assert.Len(t, seller.DocumentList(), 1)
}

func TestSubmitApplicationEndpoint_MissingRequiredFields(t *testing.T) {
	env := newAPIEnv(t)

	token, err := auth.GenerateToken("user_2abc", "grace@njeri.co.ke", models.UserRoleCustomer)
	require.NoError(t, err)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("data", `{"email":"grace@njeri.co.ke"}`))
	require.NoError(t, w.Close())

	resp := env.do(t, http.MethodPost, "/api/v1/sellers/apply", token, body, w.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestVerifyEndpoint_ApprovesSeller(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	seller := &models.Seller{
		Email:        "grace@njeri.co.ke",
		BusinessName: "Mama Njeri Produce",
		ContactName:  "Grace Njeri",
		Status:       models.SellerStatusPending,
	}
	require.NoError(t, env.sellerRepo.Create(ctx, seller))

	w := env.doJSON(t, http.MethodPut, "/api/v1/admin/sellers/"+seller.ID+"/verify", env.adminToken,
		map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored, err := env.sellerRepo.FindByID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SellerStatusApproved, stored.Status)
	assert.NotNil(t, stored.VerificationDate)
}

func TestVerifyEndpoint_RefusesNonAdmin(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	seller := &models.Seller{
		Email:        "grace@njeri.co.ke",
		BusinessName: "Mama Njeri Produce",
		ContactName:  "Grace Njeri",
		Status:       models.SellerStatusPending,
	}
	require.NoError(t, env.sellerRepo.Create(ctx, seller))

	token, err := auth.GenerateToken("user_2abc", "grace@njeri.co.ke", models.UserRoleSeller)
	require.NoError(t, err)

	w := env.doJSON(t, http.MethodPut, "/api/v1/admin/sellers/"+seller.ID+"/verify", token,
		map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	stored, err := env.sellerRepo.FindByID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SellerStatusPending, stored.Status)
}

func TestVerifyEndpoint_RejectsUnknownStatus(t *testing.T) {
	env := newAPIEnv(t)

	w := env.doJSON(t, http.MethodPut, "/api/v1/admin/sellers/abc/verify", env.adminToken,
		map[string]string{"status": "suspended"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListSellersEndpoint_AdminOnly(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/sellers?status=pending", env.adminToken, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	token, err := auth.GenerateToken("user_2abc", "grace@njeri.co.ke", models.UserRoleCustomer)
	require.NoError(t, err)
	w = env.do(t, http.MethodGet, "/api/v1/sellers", token, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListSellersEndpoint_UnknownStatusFilter(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/sellers?status=suspended", env.adminToken, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadEndpoint_RedirectsStoredDocument(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	seller := &models.Seller{
		Email:        "grace@njeri.co.ke",
		BusinessName: "Mama Njeri Produce",
		ContactName:  "Grace Njeri",
		Status:       models.SellerStatusPending,
	}
	require.NoError(t, env.sellerRepo.Create(ctx, seller))
	require.NoError(t, env.sellerRepo.ReplaceDocuments(ctx, seller.ID, []models.Document{{
		Filename: "licence.pdf",
		MimeType: "application/pdf",
		Size:     9,
		Storage:  models.StorageSupabase,
		URL:      "https://cdn.example.com/documents/" + seller.ID + "/licence.pdf",
	}}))

	w := env.do(t, http.MethodGet, "/api/v1/sellers/"+seller.ID+"/documents/licence.pdf/download", env.adminToken, nil, "")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://cdn.example.com/documents/"+seller.ID+"/licence.pdf", w.Header().Get("Location"))
}

func TestDownloadEndpoint_StreamsLegacyDocument(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	seller := &models.Seller{
		Email:        "grace@njeri.co.ke",
		BusinessName: "Mama Njeri Produce",
		ContactName:  "Grace Njeri",
		Status:       models.SellerStatusPending,
	}
	require.NoError(t, env.sellerRepo.Create(ctx, seller))
	require.NoError(t, env.sellerRepo.ReplaceDocuments(ctx, seller.ID, []models.Document{{
		Filename:     "scan.jpg",
		OriginalName: "scan.jpg",
		MimeType:     "image/jpeg",
		Size:         4,
	}}))
	require.NoError(t, env.legacy.Save(ctx, "sellers/"+seller.ID+"/scan.jpg", strings.NewReader("jpeg"), "image/jpeg"))

	w := env.do(t, http.MethodGet, "/api/v1/sellers/"+seller.ID+"/documents/scan.jpg/download", env.adminToken, nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "scan.jpg")
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
}

func TestMigrationEndpoints(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/admin/migration/run", env.adminToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "sellers_processed")

	w = env.do(t, http.MethodGet, "/api/v1/admin/migration/verify", env.adminToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "documents_checked")
}
