package jwt

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const TokenTypeAccess = "access"

var (
	ErrMissingEmployeeID = errors.New("token has no employee_id claim")
	ErrWrongTokenType    = errors.New("token is not an access token")
)

// Identity is what an access token says about its bearer.
type Identity struct {
	EmployeeID string
	Capability string
}

type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	GenerateAccessToken(id Identity, ttl time.Duration) (token string, expiresAt int64, err error)
	IdentityFromClaims(claims map[string]any) (Identity, error)
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// GenerateAccessToken signs an access token. Tokens are normally issued by the identity
// provider; this is used by tooling and tests.
func (j *JWTService) GenerateAccessToken(id Identity, ttl time.Duration) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(ttl).Unix()

	claims := map[string]interface{}{
		"employee_id": id.EmployeeID,
		"capability":  id.Capability,
		"type":        TokenTypeAccess,
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// IdentityFromClaims reads the bearer identity out of verified claims.
func (j *JWTService) IdentityFromClaims(claims map[string]any) (Identity, error) {
	if tokenType, _ := claims["type"].(string); tokenType != TokenTypeAccess {
		return Identity{}, ErrWrongTokenType
	}

	employeeID, _ := claims["employee_id"].(string)
	if employeeID == "" {
		return Identity{}, ErrMissingEmployeeID
	}

	capability, _ := claims["capability"].(string)
	return Identity{EmployeeID: employeeID, Capability: capability}, nil
}
