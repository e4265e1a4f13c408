package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/studentacc/accommodation-booking/internal/middleware"
	"github.com/studentacc/accommodation-booking/internal/model"
	"github.com/studentacc/accommodation-booking/internal/repository"
	"github.com/studentacc/accommodation-booking/internal/storage"
)

// ImageStore uploads accommodation images and returns their public URL.
type ImageStore interface {
	UploadAccommodationImage(ctx context.Context, accommodationID uint64, r io.Reader) (string, error)
}

// AdminHandler serves the back-office CRUD endpoints.  All routes are
// behind RequireRole(ADMIN).
type AdminHandler struct {
	Owners         *repository.OwnerRepo
	Accommodations *repository.AccommodationRepo
	Rooms          *repository.RoomRepo
	Amenities      *repository.AmenityRepo
	Discounts      *repository.DiscountRepo
	Images         ImageStore
	Log            *logrus.Logger
}

const dateLayout = "2006-01-02"

// repoError maps repository sentinels onto responses.
func (h *AdminHandler) repoError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrOwnerNotFound),
		errors.Is(err, repository.ErrAccommodationNotFound),
		errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrAmenityNotFound),
		errors.Is(err, repository.ErrDiscountNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already exists"})
	case errors.Is(err, repository.ErrRoomOccupied):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrInvalidReference):
		return badRequest(c, err.Error())
	}
	return serverError(c, h.Log, err, "internal error")
}

// ----- owners -----

type ownerReq struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=254"`
}

type ownerDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toOwner(o model.Owner) ownerDTO { return ownerDTO{ID: o.ID, Name: o.Name, Email: o.Email} }

func (h *AdminHandler) ListOwners(c echo.Context) error {
	list, err := h.Owners.List(c.Request().Context())
	if err != nil {
		return h.repoError(c, err)
	}
	out := make([]ownerDTO, 0, len(list))
	for _, o := range list {
		out = append(out, toOwner(o))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

func (h *AdminHandler) GetOwner(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid owner id")
	}
	o, err := h.Owners.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusOK, toOwner(*o))
}

func (h *AdminHandler) CreateOwner(c echo.Context) error {
	var req ownerReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	o := model.Owner{Name: strings.TrimSpace(req.Name), Email: req.Email}
	if err := h.Owners.Create(c.Request().Context(), &o); err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusCreated, toOwner(o))
}

func (h *AdminHandler) UpdateOwner(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid owner id")
	}
	var req ownerReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	o := model.Owner{ID: id, Name: strings.TrimSpace(req.Name), Email: repository.NormalizeEmail(req.Email)}
	if err := h.Owners.Update(c.Request().Context(), &o); err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusOK, toOwner(o))
}

// DeleteOwner removes the owner and everything listed under it.
func (h *AdminHandler) DeleteOwner(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid owner id")
	}
	if err := h.Owners.Delete(c.Request().Context(), id); err != nil {
		return h.repoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- amenities -----

type amenityReq struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (h *AdminHandler) ListAmenities(c echo.Context) error {
	list, err := h.Amenities.List(c.Request().Context())
	if err != nil {
		return h.repoError(c, err)
	}
	out := make([]amenityDTO, 0, len(list))
	for _, a := range list {
		out = append(out, amenityDTO{ID: a.ID, Name: a.Name})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

func (h *AdminHandler) CreateAmenity(c echo.Context) error {
	var req amenityReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	a := model.Amenity{Name: strings.TrimSpace(req.Name)}
	if err := h.Amenities.Create(c.Request().Context(), &a); err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusCreated, amenityDTO{ID: a.ID, Name: a.Name})
}

func (h *AdminHandler) UpdateAmenity(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid amenity id")
	}
	var req amenityReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	a := model.Amenity{ID: id, Name: strings.TrimSpace(req.Name)}
	if err := h.Amenities.Update(c.Request().Context(), &a); err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusOK, amenityDTO{ID: a.ID, Name: a.Name})
}

func (h *AdminHandler) DeleteAmenity(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid amenity id")
	}
	if err := h.Amenities.Delete(c.Request().Context(), id); err != nil {
		return h.repoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- festival discounts -----

type discountReq struct {
	Name       string          `json:"name" validate:"required,max=100"`
	Percentage decimal.Decimal `json:"percentage"`
	StartDate  string          `json:"start_date" validate:"required"`
	EndDate    string          `json:"end_date" validate:"required"`
	Active     *bool           `json:"active"`
}

type discountDTO struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Percentage string `json:"percentage"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Active     bool   `json:"active"`
}

func toDiscount(d model.FestivalDiscount) discountDTO {
	return discountDTO{
		ID:         d.ID,
		Name:       d.Name,
		Percentage: d.Percentage.StringFixed(2),
		StartDate:  d.StartDate.Format(dateLayout),
		EndDate:    d.EndDate.Format(dateLayout),
		Active:     d.Enabled,
	}
}

// discountFromReq checks the percentage range and the date window.
func discountFromReq(req discountReq) (model.FestivalDiscount, string) {
	if req.Percentage.IsNegative() || req.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return model.FestivalDiscount{}, "percentage must be between 0 and 100"
	}
	start, err := time.Parse(dateLayout, strings.TrimSpace(req.StartDate))
	if err != nil {
		return model.FestivalDiscount{}, "start_date must be YYYY-MM-DD"
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(req.EndDate))
	if err != nil {
		return model.FestivalDiscount{}, "end_date must be YYYY-MM-DD"
	}
	if end.Before(start) {
		return model.FestivalDiscount{}, "end_date must not be before start_date"
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return model.FestivalDiscount{
		Name:       strings.TrimSpace(req.Name),
		Percentage: req.Percentage,
		StartDate:  start,
		EndDate:    end,
		Enabled:    active,
	}, ""
}

func (h *AdminHandler) ListDiscounts(c echo.Context) error {
	list, err := h.Discounts.List(c.Request().Context())
	if err != nil {
		return h.repoError(c, err)
	}
	out := make([]discountDTO, 0, len(list))
	for _, d := range list {
		out = append(out, toDiscount(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

func (h *AdminHandler) GetDiscount(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid discount id")
	}
	d, err := h.Discounts.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusOK, toDiscount(*d))
}

func (h *AdminHandler) CreateDiscount(c echo.Context) error {
	var req discountReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	d, msg := discountFromReq(req)
	if msg != "" {
		return badRequest(c, msg)
	}
	if err := h.Discounts.Create(c.Request().Context(), &d); err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusCreated, toDiscount(d))
}

func (h *AdminHandler) UpdateDiscount(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid discount id")
	}
	var req discountReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	d, msg := discountFromReq(req)
	if msg != "" {
		return badRequest(c, msg)
	}
	d.ID = id
	if err := h.Discounts.Update(c.Request().Context(), &d); err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusOK, toDiscount(d))
}

// DeleteDiscount detaches the discount from accommodations and removes it.
func (h *AdminHandler) DeleteDiscount(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid discount id")
	}
	if err := h.Discounts.Delete(c.Request().Context(), id); err != nil {
		return h.repoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- accommodations -----

type accommodationReq struct {
	Title              string          `json:"title" validate:"required,max=200"`
	City               string          `json:"city" validate:"required,max=100"`
	PricePerMonth      decimal.Decimal `json:"price_per_month"`
	Address            string          `json:"address" validate:"max=255"`
	Description        string          `json:"description"`
	OwnerID            *uint64         `json:"owner_id"`
	FestivalDiscountID *uint64         `json:"festival_discount_id"`
}

type adminAccommodationDTO struct {
	ID                 uint64       `json:"id"`
	Title              string       `json:"title"`
	City               string       `json:"city"`
	PricePerMonth      string       `json:"price_per_month"`
	Address            string       `json:"address"`
	Description        string       `json:"description"`
	ImageURL           *string      `json:"image_url"`
	OwnerID            *uint64      `json:"owner_id"`
	FestivalDiscountID *uint64      `json:"festival_discount_id"`
	Discount           *discountDTO `json:"discount,omitempty"`
	Amenities          []amenityDTO `json:"amenities,omitempty"`
}

func toAdminAccommodation(a model.Accommodation) adminAccommodationDTO {
	d := adminAccommodationDTO{
		ID:                 a.ID,
		Title:              a.Title,
		City:               a.City,
		PricePerMonth:      a.PricePerMonth.StringFixed(2),
		Address:            a.Address,
		Description:        a.Description,
		ImageURL:           a.ImageURL,
		OwnerID:            a.OwnerID,
		FestivalDiscountID: a.FestivalDiscountID,
	}
	if a.Discount != nil {
		dd := toDiscount(*a.Discount)
		d.Discount = &dd
	}
	for _, m := range a.Amenities {
		d.Amenities = append(d.Amenities, amenityDTO{ID: m.ID, Name: m.Name})
	}
	return d
}

func accommodationFromReq(req accommodationReq) (model.Accommodation, string) {
	if !req.PricePerMonth.IsPositive() {
		return model.Accommodation{}, "price_per_month must be greater than 0"
	}
	return model.Accommodation{
		Title:              strings.TrimSpace(req.Title),
		City:               strings.TrimSpace(req.City),
		PricePerMonth:      req.PricePerMonth.Round(2),
		Address:            strings.TrimSpace(req.Address),
		Description:        req.Description,
		OwnerID:            req.OwnerID,
		FestivalDiscountID: req.FestivalDiscountID,
	}, ""
}

func (h *AdminHandler) ListAccommodations(c echo.Context) error {
	list, err := h.Accommodations.List(c.Request().Context())
	if err != nil {
		return h.repoError(c, err)
	}
	out := make([]adminAccommodationDTO, 0, len(list))
	for _, a := range list {
		out = append(out, toAdminAccommodation(a))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

func (h *AdminHandler) GetAccommodation(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid accommodation id")
	}
	a, err := h.Accommodations.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusOK, toAdminAccommodation(*a))
}

// CreateAccommodation inserts a listing.  Without owner_id the listing is
// attached to an owner record for the calling admin's email.
func (h *AdminHandler) CreateAccommodation(c echo.Context) error {
	var req accommodationReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	a, msg := accommodationFromReq(req)
	if msg != "" {
		return badRequest(c, msg)
	}
	ctx := c.Request().Context()
	if a.OwnerID == nil {
		email, _ := c.Get(middleware.CtxEmail).(string)
		if email == "" {
			return badRequest(c, "owner_id is required")
		}
		o, err := h.Owners.GetOrCreateByEmail(ctx, email)
		if err != nil {
			return h.repoError(c, err)
		}
		a.OwnerID = &o.ID
	}
	if err := h.Accommodations.Create(ctx, &a); err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusCreated, toAdminAccommodation(a))
}

func (h *AdminHandler) UpdateAccommodation(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid accommodation id")
	}
	var req accommodationReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	a, msg := accommodationFromReq(req)
	if msg != "" {
		return badRequest(c, msg)
	}
	a.ID = id
	ctx := c.Request().Context()
	if err := h.Accommodations.Update(ctx, &a); err != nil {
		return h.repoError(c, err)
	}
	fresh, err := h.Accommodations.GetByID(ctx, id)
	if err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusOK, toAdminAccommodation(*fresh))
}

// DeleteAccommodation removes the listing, its rooms and their bookings.
func (h *AdminHandler) DeleteAccommodation(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid accommodation id")
	}
	if err := h.Accommodations.Delete(c.Request().Context(), id); err != nil {
		return h.repoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) AttachAmenity(c echo.Context) error {
	id, ok := pathID(c, "id")
	amenityID, ok2 := pathID(c, "amenityID")
	if !ok || !ok2 {
		return badRequest(c, "invalid id")
	}
	if err := h.Accommodations.AttachAmenity(c.Request().Context(), id, amenityID); err != nil {
		return h.repoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) DetachAmenity(c echo.Context) error {
	id, ok := pathID(c, "id")
	amenityID, ok2 := pathID(c, "amenityID")
	if !ok || !ok2 {
		return badRequest(c, "invalid id")
	}
	if err := h.Accommodations.DetachAmenity(c.Request().Context(), id, amenityID); err != nil {
		return h.repoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage handles POST /v1/admin/accommodations/:id/image with a
// multipart "image" field.
func (h *AdminHandler) UploadImage(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid accommodation id")
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "image file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "cannot read image")
	}
	defer f.Close()

	ctx := c.Request().Context()
	if _, err := h.Accommodations.GetByID(ctx, id); err != nil {
		return h.repoError(c, err)
	}
	url, err := h.Images.UploadAccommodationImage(ctx, id, f)
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		return c.JSON(http.StatusUnsupportedMediaType, echo.Map{"error": err.Error()})
	case errors.Is(err, storage.ErrTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": err.Error()})
	case errors.Is(err, storage.ErrDisabled):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
	case err != nil:
		return serverError(c, h.Log, err, "image upload failed")
	}
	if err := h.Accommodations.SetImageURL(ctx, id, url); err != nil {
		return h.repoError(c, err)
	}
	h.Log.WithFields(logrus.Fields{"accommodation_id": id, "url": url}).Info("accommodation image uploaded")
	return c.JSON(http.StatusOK, echo.Map{"image_url": url})
}

// ----- rooms -----

type roomReq struct {
	AccommodationID uint64 `json:"accommodation_id"`
	RoomNumber      string `json:"room_number" validate:"required,max=20"`
	Status          string `json:"status" validate:"omitempty,oneof=Available Booked"`
}

// ListAccommodationRooms handles GET /v1/admin/accommodations/:id/rooms.
func (h *AdminHandler) ListAccommodationRooms(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid accommodation id")
	}
	list, err := h.Rooms.ListByAccommodation(c.Request().Context(), id)
	if err != nil {
		return h.repoError(c, err)
	}
	out := make([]roomDTO, 0, len(list))
	for _, r := range list {
		out = append(out, toRoom(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

func (h *AdminHandler) GetRoom(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	r, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusOK, toRoom(*r))
}

func (h *AdminHandler) CreateRoom(c echo.Context) error {
	var req roomReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	if req.AccommodationID == 0 {
		return badRequest(c, "accommodation_id is required")
	}
	r := model.Room{AccommodationID: req.AccommodationID, RoomNumber: strings.TrimSpace(req.RoomNumber), Status: req.Status}
	if err := h.Rooms.Create(c.Request().Context(), &r); err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusCreated, toRoom(r))
}

// UpdateRoom renames a room or forces its status.
func (h *AdminHandler) UpdateRoom(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	var req roomReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx := c.Request().Context()
	cur, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		return h.repoError(c, err)
	}
	cur.RoomNumber = strings.TrimSpace(req.RoomNumber)
	if req.Status != "" {
		cur.Status = req.Status
	}
	if err := h.Rooms.Update(ctx, cur); err != nil {
		return h.repoError(c, err)
	}
	return c.JSON(http.StatusOK, toRoom(*cur))
}

func (h *AdminHandler) DeleteRoom(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	if err := h.Rooms.Delete(c.Request().Context(), id); err != nil {
		return h.repoError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
