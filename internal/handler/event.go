package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/blobstore"
	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/repository"
)

// EventHandler serves the event CRUD surface plus the image upload. Reads are
// public, writes require the owning organizer and an owned location.
type EventHandler struct {
	Events    *repository.EventRepo
	Locations *repository.LocationRepo
	Blobs     blobstore.Store
}

func NewEventHandler(e *repository.EventRepo, l *repository.LocationRepo, b blobstore.Store) *EventHandler {
	if e == nil || l == nil || b == nil {
		panic("nil dependency passed to NewEventHandler")
	}
	return &EventHandler{Events: e, Locations: l, Blobs: b}
}

type eventReq struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	EndsAt      time.Time `json:"ends_at" validate:"required"`
	Type        string    `json:"type" validate:"required"`
	Capacity    uint32    `json:"capacity" validate:"required,min=1"`
	LocationID  uint64    `json:"location_id" validate:"required"`
}

type eventView struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Type        string    `json:"type"`
	Capacity    uint32    `json:"capacity"`
	Img         string    `json:"img,omitempty"`
	OwnerID     uint64    `json:"owner_id"`
	LocationID  uint64    `json:"location_id"`
}

func newEventView(e model.Event) eventView {
	return eventView{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		Type:        string(e.Type),
		Capacity:    e.Capacity,
		Img:         e.Img,
		OwnerID:     e.OwnerID,
		LocationID:  e.LocationID,
	}
}

// validateEventReq checks the parts the struct tags cannot express.
func (h *EventHandler) validateEventReq(c echo.Context, req eventReq, ownerID uint64) (model.EventType, int, string) {
	typ, ok := model.ParseEventType(req.Type)
	if !ok {
		return "", http.StatusBadRequest, "type must be public or private"
	}
	if req.EndsAt.Before(req.StartsAt) {
		return "", http.StatusBadRequest, "ends_at must not precede starts_at"
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if _, err := h.Locations.GetByIDAndOwner(ctx, req.LocationID, ownerID); err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return "", http.StatusBadRequest, "location does not exist or is not yours"
		}
		return "", http.StatusInternalServerError, "query failed"
	}
	return typ, 0, ""
}

// Create handles POST /v1/events.
func (h *EventHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request", "detail": err.Error()})
	}
	typ, code, msg := h.validateEventReq(c, req, ownerID)
	if code != 0 {
		return c.JSON(code, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e := model.Event{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Type:        typ,
		Capacity:    req.Capacity,
		OwnerID:     ownerID,
		LocationID:  req.LocationID,
	}
	if _, err := h.Events.Create(ctx, &e); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "title already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": newEventView(e)})
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"result": newEventView(e)})
}

// List handles GET /v1/events with ?page pagination.
func (h *EventHandler) List(c echo.Context) error {
	page, err := pageParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	events, hasNext, err := h.Events.List(ctx, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]eventView, 0, len(events))
	for _, e := range events {
		out = append(out, newEventView(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"result": out, "page": page, "has_next": hasNext})
}

// Update handles PUT /v1/events/:id. Only the owner may update.
func (h *EventHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request", "detail": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if e.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the owner"})
	}
	typ, code, msg := h.validateEventReq(c, req, ownerID)
	if code != 0 {
		return c.JSON(code, echo.Map{"error": msg})
	}

	e.Title = req.Title
	e.Description = req.Description
	e.Category = req.Category
	e.StartsAt = req.StartsAt
	e.EndsAt = req.EndsAt
	e.Type = typ
	e.Capacity = req.Capacity
	e.LocationID = req.LocationID
	if err := h.Events.Update(ctx, &e); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "title already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": newEventView(e)})
}

// Delete handles DELETE /v1/events/:id. The delete cascades to the event's
// reservations.
func (h *EventHandler) Delete(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	switch err := h.Events.DeleteByIDAndOwner(ctx, id, ownerID); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "event deleted"})
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the owner"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}

// UploadImage handles POST /v1/events/:id/image. The multipart field name is
// "image"; only png and jpeg files are accepted.
func (h *EventHandler) UploadImage(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file required"})
	}
	if !blobstore.AllowedImage(fh.Filename) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only png and jpeg images are accepted"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if e.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the owner"})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
	}
	defer src.Close()

	stored, err := h.Blobs.Save(fh.Filename, src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store image failed"})
	}
	e.Img = stored
	if err := h.Events.Update(ctx, &e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": newEventView(e)})
}
