package service

import (
	"context"
	"errors"

	"team_messaging/internal/config"
	"team_messaging/internal/domain"
	apperrors "team_messaging/pkg/errors"
	"team_messaging/pkg/jwt"
	"team_messaging/pkg/logger"
)

// AuthService проверяет access-токены, выпущенные внешним auth-сервисом.
// Учетными данными и выпуском токенов эта подсистема не занимается.
type AuthService interface {
	ValidateToken(ctx context.Context, tokenString string) (*domain.Identity, error)
}

type authService struct {
	jwtCfg config.JWTConfig
	log    logger.Logger
}

func NewAuthService(jwtCfg config.JWTConfig, log logger.Logger) AuthService {
	return &authService{
		jwtCfg: jwtCfg,
		log:    log,
	}
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*domain.Identity, error) {
	if tokenString == "" {
		return nil, apperrors.ErrInvalidToken
	}

	claims, err := jwt.ValidateToken(tokenString, s.jwtCfg.AccessSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	return &domain.Identity{
		UserID:      claims.UserID,
		DisplayName: claims.DisplayName,
		Role:        claims.Role,
	}, nil
}
