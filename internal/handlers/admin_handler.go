package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"soko_backend/internal/middleware"
	"soko_backend/internal/services"
	"soko_backend/internal/services/dto"
	"soko_backend/pkg/apperrors"
)

type AdminHandler struct {
	*BaseHandler
	verificationService services.VerificationService
	migrationService    services.MigrationService
}

func NewAdminHandler(base *BaseHandler, verificationService services.VerificationService, migrationService services.MigrationService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:         base,
		verificationService: verificationService,
		migrationService:    migrationService,
	}
}

func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminOnly())
	{
		admin.PUT("/sellers/:id/verify", h.UpdateVerification)
		admin.POST("/migration/run", h.RunMigration)
		admin.GET("/migration/verify", h.VerifyDocuments)
	}
}

func (h *AdminHandler) UpdateVerification(c *gin.Context) {
	var req dto.VerificationDecisionRequest
	if !h.BindAndValidate(c, &req) {
		return
	}

	role, ok := middleware.CallerRole(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewForbiddenError("caller role missing"))
		return
	}

	seller, err := h.verificationService.UpdateStatus(c.Request.Context(), role, c.Param("id"), &req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"seller": seller})
}

func (h *AdminHandler) RunMigration(c *gin.Context) {
	stats, err := h.migrationService.Migrate(c.Request.Context())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) VerifyDocuments(c *gin.Context) {
	report, err := h.migrationService.Verify(c.Request.Context())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
