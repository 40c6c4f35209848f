package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"liyu1981.xyz/glucose-watch-service/pkg/models"
)

const (
	issuer   = "glucose-watch"
	audience = "glucose-watch-api"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the credential payload: who the caller is and in which role.
type Claims struct {
	jwt.RegisteredClaims
	UserID uint        `json:"id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

type Signer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewSigner(secret string, expiry time.Duration) *Signer {
	return &Signer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Expiry is how long issued tokens stay valid.
func (s *Signer) Expiry() time.Duration {
	return s.expiry
}

func (s *Signer) Issue(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Signer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
