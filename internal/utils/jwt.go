package utils // package utils provides helpers for token issuing and hashing

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/event-booking/internal/model"
)

// AccessToken is a signed HS256 JWT together with its expiry. The token is
// the only credential the API accepts; it carries the subject id and role and
// is presented as a Bearer token on protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a principal. Claims are
// the standard set: subject (sub), role, expiration (exp) and issued at (iat).
// The role claim is one of the closed model.Role values so that the
// middleware can match it exhaustively on the way back in.
func NewAccessToken(secret string, subjectID uint64, role model.Role, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  subjectID,
		"role": string(role),
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
