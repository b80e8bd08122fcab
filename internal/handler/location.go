package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/repository"
)

// LocationHandler serves the location CRUD surface. Reads are public, writes
// require the owning organizer.
type LocationHandler struct {
	Locations *repository.LocationRepo
}

func NewLocationHandler(l *repository.LocationRepo) *LocationHandler {
	if l == nil {
		panic("nil repository passed to NewLocationHandler")
	}
	return &LocationHandler{Locations: l}
}

type locationReq struct {
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address" validate:"required"`
	Capacity uint32 `json:"capacity" validate:"required,min=1"`
}

type locationView struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Capacity uint32 `json:"capacity"`
	OwnerID  uint64 `json:"owner_id"`
}

func newLocationView(l model.Location) locationView {
	return locationView{ID: l.ID, Name: l.Name, Address: l.Address, Capacity: l.Capacity, OwnerID: l.OwnerID}
}

// Create handles POST /v1/locations.
func (h *LocationHandler) Create(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request", "detail": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	l := model.Location{Name: req.Name, Address: req.Address, Capacity: req.Capacity, OwnerID: ownerID}
	if _, err := h.Locations.Create(ctx, &l); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "address already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create location failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": newLocationView(l)})
}

// Get handles GET /v1/locations/:id.
func (h *LocationHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Locations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"result": newLocationView(l)})
}

// List handles GET /v1/locations with ?page pagination.
func (h *LocationHandler) List(c echo.Context) error {
	page, err := pageParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	locs, hasNext, err := h.Locations.List(ctx, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]locationView, 0, len(locs))
	for _, l := range locs {
		out = append(out, newLocationView(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"result": out, "page": page, "has_next": hasNext})
}

// Update handles PUT /v1/locations/:id. Only the owner may update.
func (h *LocationHandler) Update(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request", "detail": err.Error()})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Locations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if l.OwnerID != ownerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the owner"})
	}

	l.Name = req.Name
	l.Address = req.Address
	l.Capacity = req.Capacity
	if err := h.Locations.Update(ctx, &l); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "address already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": newLocationView(l)})
}

// Delete handles DELETE /v1/locations/:id. The delete cascades through the
// location's events to their reservations.
func (h *LocationHandler) Delete(c echo.Context) error {
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

	switch err := h.Locations.DeleteByIDAndOwner(ctx, id, ownerID); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"message": "location deleted"})
	case errors.Is(err, repository.ErrLocationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not the owner"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}
