package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/studentacc/accommodation-booking/internal/service"
)

// Catalog is the read side students browse.
type Catalog interface {
	ListRooms(ctx context.Context) ([]service.RoomView, error)
	GetAccommodation(ctx context.Context, id uint64) (*service.AccommodationDetail, error)
	Search(ctx context.Context, p service.SearchParams) (*service.SearchPage, error)
}

type CatalogHandler struct {
	Catalog Catalog
	Log     *logrus.Logger
}

func NewCatalogHandler(c Catalog, log *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{Catalog: c, Log: log}
}

// ListRooms handles GET /v1/rooms.
func (h *CatalogHandler) ListRooms(c echo.Context) error {
	rooms, err := h.Catalog.ListRooms(c.Request().Context())
	if err != nil {
		return serverError(c, h.Log, err, "failed to list rooms")
	}
	out := make([]roomListingDTO, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomListingDTO{roomDTO: toRoom(r.Room), Accommodation: toAccommodation(r.Accommodation)})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GetAccommodation handles GET /v1/accommodations/:id.
func (h *CatalogHandler) GetAccommodation(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid accommodation id")
	}
	d, err := h.Catalog.GetAccommodation(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	out := accommodationDetailDTO{
		accommodationDTO: toAccommodation(d.PricedAccommodation),
		Rooms:            make([]roomDTO, 0, len(d.Rooms)),
		AvailableRooms:   d.Available,
	}
	for _, r := range d.Rooms {
		out.Rooms = append(out.Rooms, toRoom(r))
	}
	return c.JSON(http.StatusOK, out)
}

// Search handles GET /v1/search/accommodations?q=&city=&max_price=&page=&page_size=.
func (h *CatalogHandler) Search(c echo.Context) error {
	p := service.SearchParams{
		Text: strings.TrimSpace(c.QueryParam("q")),
		City: strings.TrimSpace(c.QueryParam("city")),
	}
	if raw := strings.TrimSpace(c.QueryParam("max_price")); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil || v.IsNegative() {
			return badRequest(c, "max_price must be a non-negative number")
		}
		p.MaxPrice = &v
	}
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return badRequest(c, "invalid page")
		}
		p.Page = n
	}
	if raw := c.QueryParam("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return badRequest(c, "invalid page_size")
		}
		p.PageSize = n
	}

	page, err := h.Catalog.Search(c.Request().Context(), p)
	if err != nil {
		return serverError(c, h.Log, err, "search failed")
	}
	items := make([]accommodationDTO, 0, len(page.Items))
	for _, a := range page.Items {
		items = append(items, toAccommodation(a))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data":      items,
		"page":      page.Page,
		"page_size": page.PageSize,
		"total":     page.Total,
	})
}
