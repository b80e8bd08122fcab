package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/utils"
)

const testSecret = "test-secret"

func runProtected(t *testing.T, authHeader string, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	require.NoError(t, h(c))
	return rec, c
}

func bearer(t *testing.T, secret string, id uint64, role model.Role) string {
	t.Helper()
	access, err := utils.NewAccessToken(secret, id, role, 5)
	require.NoError(t, err)
	return "Bearer " + access.Token
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	rec, c := runProtected(t, bearer(t, testSecret, 42, model.RoleAttendee), JWTAuth(testSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), c.Get(CtxUserID))
	assert.Equal(t, model.RoleAttendee, c.Get(CtxRole))
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	rec, _ := runProtected(t, "", JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsMalformedToken(t *testing.T) {
	rec, _ := runProtected(t, "Bearer not-a-jwt", JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	rec, _ := runProtected(t, bearer(t, "other-secret", 42, model.RoleAttendee), JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleMatch(t *testing.T) {
	rec, _ := runProtected(t, bearer(t, testSecret, 7, model.RoleOrganizer),
		JWTAuth(testSecret), RequireRole(model.RoleOrganizer))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleMismatchIsUnauthorized(t *testing.T) {
	rec, _ := runProtected(t, bearer(t, testSecret, 7, model.RoleAttendee),
		JWTAuth(testSecret), RequireRole(model.RoleOrganizer))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleWithoutAuthContext(t *testing.T) {
	rec, _ := runProtected(t, "", RequireRole(model.RoleOrganizer))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
