package controllers

import (
	"net/http"

	"hospital-equipment/internal/dto"
	"hospital-equipment/internal/services"
	"hospital-equipment/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type MovementController struct {
	movementService services.MovementServiceInterface
	reportService   services.ReportServiceInterface
	logger          *zap.Logger
}

func NewMovementController(
	movementService services.MovementServiceInterface,
	reportService services.ReportServiceInterface,
	logger *zap.Logger,
) *MovementController {
	return &MovementController{
		movementService: movementService,
		reportService:   reportService,
		logger:          logger,
	}
}

func (c *MovementController) RequestEntry(ctx echo.Context) error {
	var payload dto.TransitionDTO
	if err := bindPayload(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.movementService.RequestEntry(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Въезд оборудования зафиксирован", http.StatusCreated)
}

func (c *MovementController) RequestExit(ctx echo.Context) error {
	var payload dto.TransitionDTO
	if err := bindPayload(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.movementService.RequestExit(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Выезд оборудования зафиксирован", http.StatusCreated)
}

func (c *MovementController) GetMovements(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	res, total, err := c.reportService.GetMovements(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	return utils.SuccessResponse(ctx, res, "Журнал перемещений успешно получен", http.StatusOK, total)
}
