package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/handler"
	"github.com/iliyamo/event-booking/internal/middleware"
	"github.com/iliyamo/event-booking/internal/model"
)

// Handlers bundles every handler the API mounts. Router functions receive
// this instead of a long parameter list so main stays readable.
type Handlers struct {
	Auth        *handler.AuthHandler
	Browse      *handler.BrowseHandler
	Location    *handler.LocationHandler
	Event       *handler.EventHandler
	Reservation *handler.ReservationHandler
}

// Register mounts the whole HTTP surface on the provided Echo instance.
// jwtSecret signs and verifies access tokens; rateLimit is applied to every
// /v1 group and may be a pass-through when Redis is disabled.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	// Health check for load balancers and monitoring. Not rate limited.
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.Use(rateLimit)

	registerAuth(v1, h.Auth, jwtSecret)
	registerBrowse(v1, h.Browse, h.Location, h.Event)
	registerOrganizerWrites(v1, h.Location, h.Event, h.Reservation, jwtSecret)
	registerAttendee(v1, h.Reservation, jwtSecret)
}

// registerAuth mounts registration, login and the profile endpoints of both
// principal kinds. Register and login are open; profiles require a token
// carrying the matching role.
func registerAuth(v1 *echo.Group, a *handler.AuthHandler, jwtSecret string) {
	v1.POST("/organizers/register", a.RegisterOrganizer)
	v1.POST("/organizers/login", a.LoginOrganizer)
	v1.POST("/attendees/register", a.RegisterAttendee)
	v1.POST("/attendees/login", a.LoginAttendee)

	org := v1.Group("/organizers/profile",
		middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleOrganizer))
	org.GET("", a.OrganizerProfile)
	org.PUT("", a.UpdateOrganizerProfile)

	att := v1.Group("/attendees/profile",
		middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAttendee))
	att.GET("", a.AttendeeProfile)
	att.PUT("", a.UpdateAttendeeProfile)
}

// registerBrowse mounts the unauthenticated read surface: organizer
// directory, locations and events. Private events are filtered out by the
// queries themselves.
func registerBrowse(v1 *echo.Group, b *handler.BrowseHandler, l *handler.LocationHandler, ev *handler.EventHandler) {
	v1.GET("/organizers", b.ListOrganizers)
	v1.GET("/organizers/:id", b.GetOrganizer)
	v1.GET("/organizers/:id/locations", b.ListOrganizerLocations)
	v1.GET("/organizers/:id/events", b.ListOrganizerEvents)

	v1.GET("/locations", l.List)
	v1.GET("/locations/:id", l.Get)

	v1.GET("/events", ev.List)
	v1.GET("/events/:id", ev.Get)
}

// registerOrganizerWrites mounts every endpoint that requires the ORGANIZER
// role: location and event management plus the CSV invitation batch.
func registerOrganizerWrites(v1 *echo.Group, l *handler.LocationHandler, ev *handler.EventHandler, r *handler.ReservationHandler, jwtSecret string) {
	org := v1.Group("",
		middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleOrganizer))

	org.POST("/locations", l.Create)
	org.PUT("/locations/:id", l.Update)
	org.DELETE("/locations/:id", l.Delete)

	org.POST("/events", ev.Create)
	org.PUT("/events/:id", ev.Update)
	org.DELETE("/events/:id", ev.Delete)
	org.POST("/events/:id/image", ev.UploadImage)

	org.POST("/events/:id/invitations", r.BulkInvite)
}

// registerAttendee mounts the admission endpoints driven by attendees:
// booking, confirming, cancelling, and the reservation listing (the listing
// is open to both roles, with the private-event participation check applied
// in the service).
func registerAttendee(v1 *echo.Group, r *handler.ReservationHandler, jwtSecret string) {
	authed := v1.Group("", middleware.JWTAuth(jwtSecret))
	authed.GET("/events/:id/reservations", r.ListByEvent)

	att := v1.Group("",
		middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAttendee))
	att.POST("/events/:id/reservations", r.Book)
	att.DELETE("/events/:id/reservations", r.Cancel)
	att.POST("/reservations/:event_id/confirm", r.Confirm)
}
