package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/repository"
)

// BrowseHandler serves the public organizer directory: the organizer list,
// single profiles, and each organizer's locations and public events. Private
// events never appear here.
type BrowseHandler struct {
	Organizers *repository.OrganizerRepo
	Locations  *repository.LocationRepo
	Events     *repository.EventRepo
}

func NewBrowseHandler(o *repository.OrganizerRepo, l *repository.LocationRepo, e *repository.EventRepo) *BrowseHandler {
	if o == nil || l == nil || e == nil {
		panic("nil repository passed to NewBrowseHandler")
	}
	return &BrowseHandler{Organizers: o, Locations: l, Events: e}
}

// ListOrganizers handles GET /v1/organizers with ?page pagination.
func (h *BrowseHandler) ListOrganizers(c echo.Context) error {
	page, err := pageParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	orgs, hasNext, err := h.Organizers.List(ctx, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]userView, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, organizerView(o))
	}
	return c.JSON(http.StatusOK, echo.Map{"result": out, "page": page, "has_next": hasNext})
}

// GetOrganizer handles GET /v1/organizers/:id.
func (h *BrowseHandler) GetOrganizer(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Organizers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organizer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"result": organizerView(o)})
}

// ListOrganizerLocations handles GET /v1/organizers/:id/locations.
func (h *BrowseHandler) ListOrganizerLocations(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	page, err := pageParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Organizers.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrOrganizerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organizer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	locs, hasNext, err := h.Locations.ListByOwner(ctx, id, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]locationView, 0, len(locs))
	for _, l := range locs {
		out = append(out, newLocationView(l))
	}
	return c.JSON(http.StatusOK, echo.Map{"result": out, "page": page, "has_next": hasNext})
}

// ListOrganizerEvents handles GET /v1/organizers/:id/events. Only the
// organizer's public events are listed.
func (h *BrowseHandler) ListOrganizerEvents(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	page, err := pageParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid page"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Organizers.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrOrganizerNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organizer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	events, hasNext, err := h.Events.ListPublicByOwner(ctx, id, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]eventView, 0, len(events))
	for _, e := range events {
		out = append(out, newEventView(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"result": out, "page": page, "has_next": hasNext})
}
