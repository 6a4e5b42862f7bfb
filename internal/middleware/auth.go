package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/eaglebank/purchase-service/internal/apperror"
	"github.com/eaglebank/purchase-service/internal/security"
)

type Claims struct {
	AccountID   int64    `json:"accountId"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Authenticate attaches a security.Credential for requests carrying a valid
// bearer token. Requests without an Authorization header pass through with no
// credential; a present but invalid token is rejected here.
func Authenticate(secret []byte, issuer string) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header format", apperror.CodeUnauthenticated)
			return
		}

		claims := &Claims{}
		token, err := parser.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil || !token.Valid {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token", apperror.CodeUnauthenticated)
			return
		}

		cred, err := claims.Credential()
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, "Invalid token claims", apperror.CodeUnauthenticated)
			return
		}

		security.WithCredential(c, cred)
		c.Next()
	}
}

// Credential converts verified claims into the request credential.
func (c *Claims) Credential() (security.Credential, error) {
	if c.AccountID <= 0 {
		return security.Credential{}, errors.New("missing accountId")
	}
	perms, err := security.ParsePermissionSet(c.Permissions)
	if err != nil {
		return security.Credential{}, err
	}
	return security.Credential{AccountID: c.AccountID, Permissions: perms}, nil
}

// IssueToken signs an HS256 token for accountID with the given grants.
func IssueToken(secret []byte, issuer string, accountID int64, grants []security.Grant, ttl time.Duration, now time.Time) (string, error) {
	perms := make([]string, len(grants))
	for i, g := range grants {
		perms[i] = g.String()
	}
	claims := Claims{
		AccountID:   accountID,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
