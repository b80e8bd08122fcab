package handler // handler defines the HTTP handlers of the API

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-booking/internal/middleware"
	"github.com/iliyamo/event-booking/internal/model"
)

// perPage is the fixed page size of every paginated listing.
const perPage = 15

// getUserID extracts the authenticated subject id from the context. The
// JWTAuth middleware stores it as uint64; anything else means the request
// did not pass authentication.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := c.Get(middleware.CtxUserID).(uint64); ok && id != 0 {
		return id, nil
	}
	return 0, errors.New("no authenticated user in context")
}

// getRole extracts the authenticated role from the context.
func getRole(c echo.Context) (model.Role, error) {
	if r, ok := c.Get(middleware.CtxRole).(model.Role); ok {
		return r, nil
	}
	return "", errors.New("no authenticated role in context")
}

// pageParam parses the optional ?page query parameter, defaulting to the
// first page. Values below 1 are rejected.
func pageParam(c echo.Context) (int, error) {
	raw := c.QueryParam("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, errors.New("invalid page")
	}
	return page, nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// Validator adapts go-playground/validator to echo's Validator interface so
// handlers can call c.Validate on bound request bodies.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds the request validator used by the whole API.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate implements echo.Validator.
func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}
