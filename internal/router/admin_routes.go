package router

import (
	"github.com/labstack/echo/v4"

	"github.com/studentacc/accommodation-booking/internal/handler"
	"github.com/studentacc/accommodation-booking/internal/middleware"
	"github.com/studentacc/accommodation-booking/internal/model"
)

// RegisterAdmin registers the back-office CRUD under /v1/admin.  session
// is the same JWT plus session-guard chain the student routes use.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, session ...echo.MiddlewareFunc) {
	mw := append(append([]echo.MiddlewareFunc{}, session...), middleware.RequireRole(model.RoleAdmin))
	g := e.Group("/v1/admin", mw...)

	g.GET("/owners", h.ListOwners)
	g.POST("/owners", h.CreateOwner)
	g.GET("/owners/:id", h.GetOwner)
	g.PUT("/owners/:id", h.UpdateOwner)
	g.DELETE("/owners/:id", h.DeleteOwner)

	g.GET("/accommodations", h.ListAccommodations)
	g.POST("/accommodations", h.CreateAccommodation)
	g.GET("/accommodations/:id", h.GetAccommodation)
	g.PUT("/accommodations/:id", h.UpdateAccommodation)
	g.DELETE("/accommodations/:id", h.DeleteAccommodation)
	g.POST("/accommodations/:id/image", h.UploadImage)
	g.GET("/accommodations/:id/rooms", h.ListAccommodationRooms)
	g.POST("/accommodations/:id/amenities/:amenityID", h.AttachAmenity)
	g.DELETE("/accommodations/:id/amenities/:amenityID", h.DetachAmenity)

	g.POST("/rooms", h.CreateRoom)
	g.GET("/rooms/:id", h.GetRoom)
	g.PUT("/rooms/:id", h.UpdateRoom)
	g.DELETE("/rooms/:id", h.DeleteRoom)

	g.GET("/amenities", h.ListAmenities)
	g.POST("/amenities", h.CreateAmenity)
	g.PUT("/amenities/:id", h.UpdateAmenity)
	g.DELETE("/amenities/:id", h.DeleteAmenity)

	g.GET("/discounts", h.ListDiscounts)
	g.POST("/discounts", h.CreateDiscount)
	g.GET("/discounts/:id", h.GetDiscount)
	g.PUT("/discounts/:id", h.UpdateDiscount)
	g.DELETE("/discounts/:id", h.DeleteDiscount)
}
