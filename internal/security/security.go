// Package security holds the caller credential and the permission check that
// guards every purchase operation.
package security

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eaglebank/purchase-service/internal/apperror"
)

const credentialKey = "credential"

// Securables.
const (
	Purchase = "PURCHASE"
)

// Permissions.
const (
	Create = "CREATE"
	Read   = "READ"
	Update = "UPDATE"
	Delete = "DELETE"
)

// Grant is a single (securable, permission) pair.
type Grant struct {
	Securable  string
	Permission string
}

func (g Grant) String() string { return g.Securable + ":" + g.Permission }

// ParseGrant reads the "SECURABLE:PERMISSION" form used in token claims.
func ParseGrant(s string) (Grant, error) {
	securable, permission, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || securable == "" || permission == "" {
		return Grant{}, fmt.Errorf("invalid grant %q", s)
	}
	return Grant{Securable: securable, Permission: permission}, nil
}

// PermissionSet is a flat set of grants checked by exact membership.
type PermissionSet map[Grant]struct{}

func NewPermissionSet(grants ...Grant) PermissionSet {
	set := make(PermissionSet, len(grants))
	for _, g := range grants {
		set[g] = struct{}{}
	}
	return set
}

// ParsePermissionSet builds a set from claim strings, rejecting malformed entries.
func ParsePermissionSet(values []string) (PermissionSet, error) {
	set := make(PermissionSet, len(values))
	for _, v := range values {
		g, err := ParseGrant(v)
		if err != nil {
			return nil, err
		}
		set[g] = struct{}{}
	}
	return set, nil
}

func (s PermissionSet) Has(g Grant) bool {
	_, ok := s[g]
	return ok
}

// Credential is the resolved caller for one request. It is never mutated
// after being attached to the context.
type Credential struct {
	AccountID   int64
	Permissions PermissionSet
}

// WithCredential attaches cred to the request context.
func WithCredential(c *gin.Context, cred Credential) {
	c.Set(credentialKey, cred)
}

// CredentialFromContext resolves the credential attached upstream.
func CredentialFromContext(c *gin.Context) (Credential, *apperror.Error) {
	v, exists := c.Get(credentialKey)
	if !exists {
		return Credential{}, apperror.Unauthenticated("")
	}
	cred, ok := v.(Credential)
	if !ok {
		return Credential{}, apperror.Unauthenticated("")
	}
	return cred, nil
}

// Authorize fails with Forbidden unless cred holds every required grant.
func Authorize(cred Credential, required ...Grant) *apperror.Error {
	for _, g := range required {
		if !cred.Permissions.Has(g) {
			return apperror.Forbidden("")
		}
	}
	return nil
}
