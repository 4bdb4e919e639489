package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"soko_backend/internal/documents"
	"soko_backend/internal/middleware"
	"soko_backend/internal/models"
	"soko_backend/internal/services"
	"soko_backend/internal/services/dto"
	"soko_backend/internal/storage"
	"soko_backend/internal/validator"
	"soko_backend/pkg/apperrors"
)

type SellerHandler struct {
	*BaseHandler
	sellerService services.SellerService
	legacy        storage.ObjectStore
}

func NewSellerHandler(base *BaseHandler, sellerService services.SellerService, legacy storage.ObjectStore) *SellerHandler {
	return &SellerHandler{
		BaseHandler:   base,
		sellerService: sellerService,
		legacy:        legacy,
	}
}

func (h *SellerHandler) RegisterRoutes(r *gin.RouterGroup) {
	sellers := r.Group("/sellers")
	sellers.Use(middleware.AuthMiddleware())
	{
		// Application submission by the seller themselves
		sellers.POST("/apply", h.SubmitApplication)

		// Admin-only read paths
		admin := sellers.Group("")
		admin.Use(middleware.AdminOnly())
		{
			admin.GET("", h.ListSellers)
			admin.GET("/:id", h.GetSeller)
			admin.GET("/:id/documents/:filename/download", h.DownloadDocument)
		}
	}
}

// SubmitApplication accepts a multipart form: a "data" field carrying the
// application JSON plus any number of "documents" file parts.
func (h *SellerHandler) SubmitApplication(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("failed to parse form: "+err.Error()))
		return
	}

	var req dto.SellerApplicationRequest
	if err := json.Unmarshal([]byte(c.PostForm("data")), &req); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("invalid application data: "+err.Error()))
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
			return
		}
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}

	// The applicant applies as themselves.
	if email := middleware.CallerEmail(c); email != "" {
		req.Email = email
	}
	if req.ClerkID == "" {
		req.ClerkID = middleware.CallerExternalID(c)
	}

	var files []documents.UploadFile
	if c.Request.MultipartForm != nil {
		for _, fh := range c.Request.MultipartForm.File["documents"] {
			f, err := fh.Open()
			if err != nil {
				apperrors.HandleError(c, apperrors.NewBadRequestError("failed to read uploaded file "+fh.Filename))
				return
			}
			defer f.Close()

			files = append(files, documents.UploadFile{
				Name:     fh.Filename,
				MimeType: fh.Header.Get("Content-Type"),
				Size:     fh.Size,
				Reader:   f,
			})
		}
	}

	result, err := h.sellerService.SubmitApplication(c.Request.Context(), &req, files)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *SellerHandler) ListSellers(c *gin.Context) {
	status := models.SellerStatus(c.Query("status"))
	if status != "" && !models.ValidSellerStatus(status) {
		apperrors.HandleError(c, apperrors.NewBadRequestError("unknown status filter"))
		return
	}

	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "page_size", 20)

	result, err := h.sellerService.ListSellers(c.Request.Context(), status, page, pageSize)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *SellerHandler) GetSeller(c *gin.Context) {
	result, err := h.sellerService.GetSeller(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DownloadDocument redirects to the object store for migrated documents
// and streams from the legacy uploads directory for the rest.
func (h *SellerHandler) DownloadDocument(c *gin.Context) {
	dl, err := h.sellerService.DocumentDownload(c.Request.Context(), c.Param("id"), c.Param("filename"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	if !dl.Legacy {
		c.Redirect(http.StatusFound, dl.URL)
		return
	}

	rc, err := h.legacy.Get(c.Request.Context(), dl.Path)
	if err != nil {
		apperrors.HandleError(c, apperrors.StorageError(err, "failed to open legacy document"))
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.OriginalName))
	contentType := dl.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n < 1 {
		return fallback
	}
	return n
}
