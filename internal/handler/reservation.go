package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/blobstore"
	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/repository"
	"github.com/iliyamo/event-booking/internal/service"
)

// ReservationHandler exposes the admission operations: booking a public
// event, bulk-inviting to a private one, confirming a pending invitation,
// cancelling and listing. All capacity decisions live in the admission
// service; this layer only translates errors into status codes.
type ReservationHandler struct {
	Admission *service.AdmissionService
	Blobs     blobstore.Store
}

func NewReservationHandler(s *service.AdmissionService, b blobstore.Store) *ReservationHandler {
	if s == nil || b == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Admission: s, Blobs: b}
}

type reservationView struct {
	ID         uint64 `json:"id"`
	EventID    uint64 `json:"event_id"`
	AttendeeID uint64 `json:"attendee_id"`
	Status     string `json:"status"`
}

func newReservationView(r model.Reservation) reservationView {
	return reservationView{ID: r.ID, EventID: r.EventID, AttendeeID: r.AttendeeID, Status: string(r.Status)}
}

// admissionReason maps an admission service error to the message exposed to
// clients. Unknown errors collapse into a generic internal failure so raw
// database errors never leak.
func admissionReason(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrEventNotFound):
		return http.StatusNotFound, "event not found"
	case errors.Is(err, repository.ErrReservationNotFound):
		return http.StatusNotFound, "reservation not found"
	case errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrCapacityFull):
		return http.StatusConflict, "event is at capacity"
	case errors.Is(err, service.ErrQuotaExceeded):
		return http.StatusConflict, "invitation list exceeds event capacity"
	case errors.Is(err, service.ErrAlreadyReserved):
		return http.StatusConflict, "reservation already exists"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "conflicting reservation state"
	case errors.Is(err, service.ErrEventEnded):
		return http.StatusBadRequest, "event has ended"
	case errors.Is(err, service.ErrNotPublic):
		return http.StatusBadRequest, "event is not public"
	case errors.Is(err, service.ErrNotPrivate):
		return http.StatusBadRequest, "event is not private"
	default:
		return http.StatusInternalServerError, "admission failed"
	}
}

// admissionStatus renders an admission service error as its mapped HTTP
// response.
func admissionStatus(c echo.Context, err error) error {
	code, reason := admissionReason(err)
	return c.JSON(code, echo.Map{"error": reason})
}

// Book handles POST /v1/events/:id/reservations for attendees.
func (h *ReservationHandler) Book(c echo.Context) error {
	attendeeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Admission.Book(ctx, eventID, attendeeID)
	if err != nil {
		return admissionStatus(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": newReservationView(res)})
}

// BulkInvite handles POST /v1/events/:id/invitations for the owning
// organizer. The multipart field "csv_file" carries one email per line; the
// raw upload is archived in the blob store before parsing. Rows commit
// independently, so a mid-batch failure reports the reservations already
// processed alongside the error.
func (h *ReservationHandler) BulkInvite(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	fh, err := c.FormFile("csv_file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "csv_file required"})
	}
	if !blobstore.AllowedCSV(fh.Filename) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only csv files are accepted"})
	}
	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
	}
	defer src.Close()
	raw, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot read upload"})
	}
	if _, err := h.Blobs.Save(fh.Filename, bytes.NewReader(raw)); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store upload failed"})
	}

	emails := service.ParseInviteList(string(raw))
	if len(emails) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no email addresses in file"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	processed, err := h.Admission.BulkInvite(ctx, eventID, organizerID, emails)
	out := make([]reservationView, 0, len(processed))
	for _, r := range processed {
		out = append(out, newReservationView(r))
	}
	if err != nil {
		if len(processed) > 0 {
			_, reason := admissionReason(err)
			return c.JSON(http.StatusMultiStatus, echo.Map{
				"data":  out,
				"error": "invitation batch failed partway: " + reason,
			})
		}
		return admissionStatus(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": out})
}

// Confirm handles POST /v1/reservations/:event_id/confirm for attendees.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	attendeeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "event_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Admission.Confirm(ctx, eventID, attendeeID); err != nil {
		return admissionStatus(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation confirmed"})
}

// Cancel handles DELETE /v1/events/:id/reservations for attendees.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	attendeeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Admission.Cancel(ctx, eventID, attendeeID); err != nil {
		return admissionStatus(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation cancelled"})
}

type reservationEntryView struct {
	ID       uint64 `json:"id"`
	Status   string `json:"status"`
	Attendee struct {
		ID        uint64 `json:"id"`
		FirstName string `json:"firstname"`
		LastName  string `json:"lastname"`
		Email     string `json:"email"`
	} `json:"attendee"`
}

// ListByEvent handles GET /v1/events/:id/reservations. Organizers may always
// list; attendees may list a private event's reservations only when they hold
// one themselves.
func (h *ReservationHandler) ListByEvent(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role, err := getRole(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	entries, err := h.Admission.ListReservations(ctx, eventID, role, callerID)
	if err != nil {
		return admissionStatus(c, err)
	}
	out := make([]reservationEntryView, 0, len(entries))
	for _, e := range entries {
		var v reservationEntryView
		v.ID = e.Reservation.ID
		v.Status = string(e.Reservation.Status)
		v.Attendee.ID = e.Attendee.ID
		v.Attendee.FirstName = e.Attendee.FirstName
		v.Attendee.LastName = e.Attendee.LastName
		v.Attendee.Email = e.Attendee.Email
		out = append(out, v)
	}
	return c.JSON(http.StatusOK, echo.Map{"result": out})
}
