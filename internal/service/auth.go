package service

import (
	"errors"
	"time"

	"github.com/folio/site-server-go/internal/session"
	"github.com/folio/site-server-go/internal/util"
)

var (
	ErrAdminNotConfigured = errors.New("admin password not configured")
	ErrInvalidPassword    = errors.New("invalid password")
)

// AdminAuthService checks the shared admin password and mints session tokens.
// There are no accounts: one password gates all admin access.
type AdminAuthService struct {
	codec        *session.Codec
	password     string
	passwordHash string
	now          func() time.Time
}

func NewAdminAuthService(codec *session.Codec, password, passwordHash string) *AdminAuthService {
	return &AdminAuthService{
		codec:        codec,
		password:     password,
		passwordHash: passwordHash,
		now:          time.Now,
	}
}

// Login returns a fresh session token when password matches. A plain
// ADMIN_PASSWORD must match exactly; the bcrypt hash is only consulted when
// no plain password is configured.
func (s *AdminAuthService) Login(password string) (string, error) {
	switch {
	case s.password != "":
		if !util.ConstantTimeEqual(password, s.password) {
			return "", ErrInvalidPassword
		}
	case s.passwordHash != "":
		if !util.CheckPasswordHash(password, s.passwordHash) {
			return "", ErrInvalidPassword
		}
	default:
		return "", ErrAdminNotConfigured
	}

	return s.codec.Issue(s.now().Unix()), nil
}
