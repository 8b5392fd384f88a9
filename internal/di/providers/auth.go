package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/librarian/internal/auth"
	"github.com/listenupapp/librarian/internal/config"
	"github.com/listenupapp/librarian/internal/logger"
	"github.com/listenupapp/librarian/internal/ratelimit"
)

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	tokens, err := auth.NewTokenService(cfg.Auth.TokenSecret, cfg.Auth.TokenDuration)
	if err != nil {
		return nil, err
	}

	log.Info("Token service ready", "token_duration", cfg.Auth.TokenDuration)

	return tokens, nil
}

// LoginLimiterHandle wraps the per-email login limiter with shutdown capability.
type LoginLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *LoginLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideLoginLimiter provides the login rate limiter.
func ProvideLoginLimiter(i do.Injector) (*LoginLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	limiter := ratelimit.PerMinute(cfg.Auth.LoginAttemptsPerMinute)
	return &LoginLimiterHandle{KeyedRateLimiter: limiter}, nil
}
