package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/config"
	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/repository"
	"github.com/iliyamo/event-booking/internal/utils"
)

// AuthHandler bundles dependencies for registration, login and profile
// endpoints of both principal kinds. Organizers and attendees live in
// separate tables, so each role has its own register/login pair issuing a
// JWT bound to the matching role tag.
type AuthHandler struct {
	Cfg        config.Config
	Organizers *repository.OrganizerRepo
	Attendees  *repository.AttendeeRepo
}

func NewAuthHandler(cfg config.Config, o *repository.OrganizerRepo, a *repository.AttendeeRepo) *AuthHandler {
	if o == nil || a == nil {
		panic("nil repository passed to NewAuthHandler")
	}
	return &AuthHandler{Cfg: cfg, Organizers: o, Attendees: a}
}

// ----- DTOs -----

type signupReq struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	FirstName  string `json:"firstname" validate:"required"`
	LastName   string `json:"lastname" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	SignupCode string `json:"signup_code"` // attendee invitation claim only
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileUpdateReq struct {
	Email     string `json:"email" validate:"omitempty,email"`
	Password  string `json:"password"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Phone     string `json:"phone"`
}

type userView struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

func organizerView(o model.Organizer) userView {
	return userView{ID: o.ID, FirstName: o.FirstName, LastName: o.LastName, Email: o.Email, Phone: o.Phone}
}

func attendeeView(a model.Attendee) userView {
	return userView{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName, Email: a.Email, Phone: a.Phone}
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// ----- Organizer endpoints -----

// RegisterOrganizer handles POST /v1/organizers/register. It creates the
// organizer and returns its profile together with an access token.
func (h *AuthHandler) RegisterOrganizer(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request", "detail": err.Error()})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	o := model.Organizer{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Organizers.Create(ctx, &o); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create organizer failed"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, o.ID, model.RoleOrganizer, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"data":   organizerView(o),
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// LoginOrganizer handles POST /v1/organizers/login.
func (h *AuthHandler) LoginOrganizer(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Organizers.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizerNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(o.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, o.ID, model.RoleOrganizer, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"access": tokenPart{Token: access.Token, Expires: access.Exp}})
}

// OrganizerProfile handles GET /v1/organizers/profile for the authenticated
// organizer. A valid token whose subject row no longer exists yields 401.
func (h *AuthHandler) OrganizerProfile(c echo.Context) error {
	id, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Organizers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizerNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"result": organizerView(o)})
}

// UpdateOrganizerProfile handles PUT /v1/organizers/profile.
func (h *AuthHandler) UpdateOrganizerProfile(c echo.Context) error {
	id, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Organizers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizerNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	applyProfile(&o.FirstName, &o.LastName, &o.Email, &o.Phone, req)
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
		}
		o.PasswordHash = hash
	}
	if err := h.Organizers.Update(ctx, &o); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": organizerView(o)})
}

// ----- Attendee endpoints -----

// RegisterAttendee handles POST /v1/attendees/register. With a signup_code
// the request claims an account pre-provisioned by a private-event
// invitation: the email and code must match, and the code is cleared once
// consumed. Without one it is a plain registration.
func (h *AuthHandler) RegisterAttendee(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request", "detail": err.Error()})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	a := model.Attendee{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if code := strings.TrimSpace(req.SignupCode); code != "" {
		claimed, err := h.Attendees.ClaimSignup(ctx, req.Email, code, &a)
		if err != nil {
			if errors.Is(err, repository.ErrAttendeeNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "email not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "signup failed"})
		}
		a = claimed
	} else {
		if _, err := h.Attendees.Create(ctx, &a); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create attendee failed"})
		}
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, model.RoleAttendee, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"data":   attendeeView(a),
		"access": tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// LoginAttendee handles POST /v1/attendees/login. Accounts provisioned by an
// invitation have no password yet and cannot log in until claimed.
func (h *AuthHandler) LoginAttendee(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Attendees.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrAttendeeNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if a.Provisioned() || !utils.VerifyPassword(a.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, a.ID, model.RoleAttendee, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"access": tokenPart{Token: access.Token, Expires: access.Exp}})
}

// AttendeeProfile handles GET /v1/attendees/profile.
func (h *AuthHandler) AttendeeProfile(c echo.Context) error {
	id, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Attendees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAttendeeNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"result": attendeeView(a)})
}

// UpdateAttendeeProfile handles PUT /v1/attendees/profile.
func (h *AuthHandler) UpdateAttendeeProfile(c echo.Context) error {
	id, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Attendees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAttendeeNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	applyProfile(&a.FirstName, &a.LastName, &a.Email, &a.Phone, req)
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
		}
		a.PasswordHash = hash
	}
	if err := h.Attendees.Update(ctx, &a); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": attendeeView(a)})
}

// applyProfile copies the non-empty update fields onto a profile.
func applyProfile(first, last, email, phone *string, req profileUpdateReq) {
	if req.FirstName != "" {
		*first = req.FirstName
	}
	if req.LastName != "" {
		*last = req.LastName
	}
	if req.Email != "" {
		*email = req.Email
	}
	if req.Phone != "" {
		*phone = req.Phone
	}
}
