package router

import (
	"github.com/labstack/echo/v4"

	"github.com/studentacc/accommodation-booking/internal/handler"
	"github.com/studentacc/accommodation-booking/internal/middleware"
	"github.com/studentacc/accommodation-booking/internal/model"
)

// Student bundles what the authenticated student routes need.  Session is
// the JWT plus session-guard chain; BookLimit may be nil.
type Student struct {
	Auth      *handler.AuthHandler
	Catalog   *handler.CatalogHandler
	Bookings  *handler.BookingHandler
	Session   []echo.MiddlewareFunc
	BookLimit echo.MiddlewareFunc
}

// RegisterStudent registers endpoints under /v1 for STUDENT and ADMIN
// users.  Admins may browse and book like students.
func RegisterStudent(e *echo.Echo, s Student) {
	mw := append(append([]echo.MiddlewareFunc{}, s.Session...),
		middleware.RequireRole(model.RoleStudent, model.RoleAdmin))
	g := e.Group("/v1", mw...)

	g.POST("/auth/logout", s.Auth.Logout)
	g.GET("/me", s.Auth.Me)

	g.GET("/rooms", s.Catalog.ListRooms)
	g.GET("/accommodations/:id", s.Catalog.GetAccommodation)

	var book []echo.MiddlewareFunc
	if s.BookLimit != nil {
		book = append(book, s.BookLimit)
	}
	g.POST("/accommodations/:id/book", s.Bookings.Book, book...)
	g.GET("/my-bookings", s.Bookings.ListMine)
	g.DELETE("/my-bookings/:id", s.Bookings.Cancel)
}
