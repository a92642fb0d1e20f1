package handlers

import "github.com/gofiber/fiber/v2"

// APIRoutes collects the /api/v1 handlers. A nil Arm disables direct
// control; a nil Auth leaves the group unauthenticated.
type APIRoutes struct {
	Auth   fiber.Handler
	Device *DeviceHandler
	Arm    *ArmHandler
}

// Register mounts the API group on app. Auth guards every route in it,
// including the actuator endpoint.
func (r APIRoutes) Register(app *fiber.App) fiber.Router {
	v1 := app.Group("/api/v1")
	if r.Auth != nil {
		v1.Use(r.Auth)
	}

	if r.Device != nil {
		v1.Get("/devices/:id/config", r.Device.GetConfig)
		v1.Get("/devices/:id/commands", r.Device.ListCommands)
	}
	if r.Arm != nil {
		v1.Put("/arm/:servo/:value", r.Arm.Set)
	}
	return v1
}
