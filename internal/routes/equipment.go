package routes

import (
	"hospital-equipment/internal/controllers"
	"hospital-equipment/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func runEquipmentRouter(
	secureGroup *echo.Group,
	equipmentService services.EquipmentServiceInterface,
	movementService services.MovementServiceInterface,
	logger *zap.Logger,
) {
	equipmentCtrl := controllers.NewEquipmentController(equipmentService, movementService, logger)

	secureGroup.GET("/equipment", equipmentCtrl.GetEquipments)
	secureGroup.GET("/equipment/qr/:code", equipmentCtrl.FindByQRCode)
	secureGroup.GET("/equipment/:id", equipmentCtrl.FindEquipment)
	secureGroup.GET("/equipment/:id/movements", equipmentCtrl.GetHistory)
	secureGroup.POST("/equipment", equipmentCtrl.RegisterEquipment)
	secureGroup.PUT("/equipment/:id", equipmentCtrl.UpdateEquipment)
	secureGroup.DELETE("/equipment/:id", equipmentCtrl.DeleteEquipment)
}
