package backend

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"

	"github.com/rongsox/dashboard/internal/domain"
)

const (
	opLogin            = "auth.login"
	opRegisterAdmin    = "auth.register_admin"
	opRegisterCustomer = "auth.register_customer"
)

// Claims are the fields the dashboard reads from a backend token.
type Claims struct {
	jwt.RegisteredClaims
	Roles   []string `json:"roles,omitempty"`
	Role    string   `json:"role,omitempty"`
	AdminID string   `json:"adminId,omitempty"`
	Email   string   `json:"email,omitempty"`
	Name    string   `json:"name,omitempty"`
}

// loginData is the data object of a successful login. The backend may repeat
// the claims next to the token; those fields win over the token's.
type loginData struct {
	Token   string   `json:"token"`
	Roles   []string `json:"roles"`
	AdminID string   `json:"adminId"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
}

// Login exchanges credentials for a backend token and the identity it carries.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (string, domain.Identity, error) {
	r, err := jsonRequest(http.MethodPost, creds, "auth", "login")
	if err != nil {
		return "", domain.Identity{}, domain.Internal(err, opLogin, failureMessage(opLogin))
	}

	var out envelope[loginData]
	if err := c.do(ctx, opLogin, r, &out); err != nil {
		return "", domain.Identity{}, err
	}
	if out.Data.Token == "" {
		return "", domain.Identity{}, domain.Internal(eris.New("login response has no token"), opLogin, failureMessage(opLogin))
	}

	identity, err := ParseIdentity(out.Data.Token)
	if err != nil {
		c.logger.Error("backend token unreadable", "error", err)
		return "", domain.Identity{}, domain.Internal(err, opLogin, failureMessage(opLogin))
	}
	if len(out.Data.Roles) > 0 {
		identity.Roles = out.Data.Roles
	}
	if out.Data.AdminID != "" {
		identity.AdminID = out.Data.AdminID
	}
	if out.Data.Email != "" {
		identity.Email = out.Data.Email
	}
	if out.Data.Name != "" {
		identity.Name = out.Data.Name
	}
	if identity.Email == "" {
		identity.Email = creds.Email
	}
	return out.Data.Token, identity, nil
}

// ParseIdentity reads the identity out of a backend token without verifying
// its signature. The backend checks the token on every call.
func ParseIdentity(token string) (domain.Identity, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return domain.Identity{}, eris.Wrap(err, "parse token claims")
	}

	roles := claims.Roles
	if len(roles) == 0 && claims.Role != "" {
		roles = strings.Split(claims.Role, ",")
	}
	for i := range roles {
		roles[i] = strings.TrimSpace(roles[i])
	}

	identity := domain.Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Roles:   roles,
		AdminID: claims.AdminID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}

// RegisterAdmin creates a staff account. The backend only accepts this from a
// super admin token.
func (c *Client) RegisterAdmin(ctx context.Context, in domain.AdminInput) error {
	r, err := jsonRequest(http.MethodPost, in, "auth", "register", "admin")
	if err != nil {
		return domain.Internal(err, opRegisterAdmin, failureMessage(opRegisterAdmin))
	}
	return c.do(ctx, opRegisterAdmin, r, nil)
}

// RegisterCustomer creates a customer account.
func (c *Client) RegisterCustomer(ctx context.Context, in domain.CustomerInput) error {
	r, err := jsonRequest(http.MethodPost, in, "auth", "register", "customer")
	if err != nil {
		return domain.Internal(err, opRegisterCustomer, failureMessage(opRegisterCustomer))
	}
	return c.do(ctx, opRegisterCustomer, r, nil)
}
