package controllers

import (
	"net/http"
	"strings"

	"hospital-equipment/internal/dto"
	"hospital-equipment/internal/services"
	"hospital-equipment/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type ReportController struct {
	reportService services.ReportServiceInterface
	logger        *zap.Logger
}

func NewReportController(reportService services.ReportServiceInterface, logger *zap.Logger) *ReportController {
	return &ReportController{reportService: reportService, logger: logger}
}

// GetReport отдаёт журнал за период. ?format=txt|xlsx выгружает файл вместо JSON.
func (c *ReportController) GetReport(ctx echo.Context) error {
	var query dto.ReportQueryDTO
	if err := bindPayload(ctx, &query); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	query.Format = strings.ToLower(query.Format)
	c.logger.Debug("Запрос на отчет", zap.Any("query", query))

	report, err := c.reportService.GetReport(ctx.Request().Context(), query)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if query.Format == "" || query.Format == dto.ReportFormatJSON {
		return utils.SuccessResponse(ctx, report, "Отчет успешно сформирован", http.StatusOK)
	}

	file, err := c.reportService.Render(report, query.Format)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+file.Name)
	return ctx.Blob(http.StatusOK, file.ContentType, file.Data)
}
