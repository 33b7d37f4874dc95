package routes

import (
	"hospital-equipment/internal/controllers"
	"hospital-equipment/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func runUserRouter(secureGroup *echo.Group, userService services.UserServiceInterface, logger *zap.Logger) {
	userController := controllers.NewUserController(userService, logger)

	secureGroup.GET("/users", userController.GetActiveUsers)
}
