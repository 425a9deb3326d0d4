package stub

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Spok95/eduhere-client/internal/models"
)

type Claims struct {
	UserID int64       `json:"user_id"`
	Role   models.Role `json:"role"`
	Epoch  int64       `json:"epoch"`
	jwt.RegisteredClaims
}

var errStaleToken = errors.New("token issued before the last expiry")

func newAccessToken(secret []byte, ttl time.Duration, u *user, epoch int64) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: u.ID,
		Role:   u.Role,
		Epoch:  epoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			Issuer:    "eduhere-stub",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, tok string, epoch int64) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tok, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Epoch < epoch {
		return nil, errStaleToken
	}
	return claims, nil
}
