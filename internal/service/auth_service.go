// FILE: internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"time"

	"ml-segregation-be/internal/config"
	"ml-segregation-be/internal/dto"
	"ml-segregation-be/internal/pkg/serverutils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// IAuthService authenticates the single configured analyst account. The
// review surface is operator tooling, not a multi-tenant product, so there
// is no registration flow.
type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	cfg config.AuthConfig
}

func NewAuthService(cfg config.AuthConfig) IAuthService {
	return &authService{cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if s.cfg.AnalystPasswordHash == "" {
		return nil, errors.New("analyst account is not configured")
	}
	if req.Email != s.cfg.AnalystEmail {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AnalystPasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessTokenExpiry := time.Hour * 24

	claims := jwt.MapClaims{
		"sub":  req.Email,
		"role": "analyst",
		"exp":  time.Now().Add(accessTokenExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(serverutils.JwtSecret())
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken: signedToken,
		ExpiresIn:   int64(accessTokenExpiry.Seconds()),
	}, nil
}
