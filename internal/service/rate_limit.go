package service

import (
	"context"

	"team_messaging/internal/config"
	"team_messaging/internal/repository"
	"team_messaging/pkg/logger"
)

type RateLimitService interface {
	Allow(ctx context.Context, key string) (bool, int, error)
	Limit() int
}

type rateLimitService struct {
	rateLimitRepo repository.RateLimitRepository
	cfg           config.RateLimitConfig
	log           logger.Logger
}

func NewRateLimitService(rateLimitRepo repository.RateLimitRepository, cfg config.RateLimitConfig, log logger.Logger) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		cfg:           cfg,
		log:           log,
	}
}

func (s *rateLimitService) Allow(ctx context.Context, key string) (bool, int, error) {
	return s.rateLimitRepo.Allow(ctx, key, s.cfg.Requests, s.cfg.Window)
}

func (s *rateLimitService) Limit() int {
	return s.cfg.Requests
}
