package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollhub/internal/app/models/dto"
	"github.com/yigit/enrollhub/internal/app/services"
)

// DiagnosticsController reports store health
type DiagnosticsController struct {
	diagnosticsService *services.DiagnosticsService
}

// NewDiagnosticsController creates a new DiagnosticsController
func NewDiagnosticsController(diagnosticsService *services.DiagnosticsService) *DiagnosticsController {
	return &DiagnosticsController{
		diagnosticsService: diagnosticsService,
	}
}

// GetDiagnostics reports store connectivity and row counts
// @Summary Store diagnostics
// @Tags diagnostics
// @Produce json
// @Success 200 {object} dto.APIResponse{data=models.Stats}
// @Router /diagnostics [get]
func (c *DiagnosticsController) GetDiagnostics(ctx *gin.Context) {
	stats := c.diagnosticsService.Check(ctx.Request.Context())
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats))
}
