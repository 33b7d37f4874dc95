package routes

import (
	"hospital-equipment/internal/controllers"
	"hospital-equipment/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func runMovementRouter(
	secureGroup *echo.Group,
	movementService services.MovementServiceInterface,
	reportService services.ReportServiceInterface,
	logger *zap.Logger,
) {
	movementCtrl := controllers.NewMovementController(movementService, reportService, logger)

	secureGroup.GET("/movements", movementCtrl.GetMovements)
	secureGroup.POST("/movements/entry", movementCtrl.RequestEntry)
	secureGroup.POST("/movements/exit", movementCtrl.RequestExit)
}
