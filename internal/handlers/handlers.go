package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"blockon/api/internal/config"
	"blockon/api/internal/mail"
	"blockon/api/internal/middleware"
	"blockon/api/internal/security"
	"blockon/api/internal/service"
)

// Dependencies are the collaborators the HTTP layer is built from. DB and
// Cache are only used for health reporting and may be nil; a nil Objects
// disables profile uploads.
type Dependencies struct {
	Accounts   service.AccountStore
	EmailAuths service.EmailAuthStore
	Mailer     mail.Mailer
	Throttle   service.Throttle
	Objects    service.ObjectPutter
	Tokens     *security.TokenIssuer
	DB         *pgxpool.Pool
	Cache      *redis.Client
}

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	auth         *service.AuthService
	verification *service.VerificationService
	profiles     *service.ProfileService
	accounts     service.AccountStore
	tokens       *security.TokenIssuer
	db           *pgxpool.Pool
	cache        *redis.Client
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Dependencies) HandlerSet {
	h := HandlerSet{
		log:          log,
		cfg:          cfg,
		auth:         service.NewAuthService(deps.Accounts, deps.Tokens, cfg, log),
		verification: service.NewVerificationService(deps.EmailAuths, deps.Mailer, deps.Throttle, cfg, log),
		accounts:     deps.Accounts,
		tokens:       deps.Tokens,
		db:           deps.DB,
		cache:        deps.Cache,
	}
	if deps.Objects != nil {
		h.profiles = service.NewProfileService(deps.Objects, cfg, log)
	}
	return h
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	auth := router.Group("/auth")
	auth.Use(middleware.RateLimit(h.cfg.Security.AuthRateLimit, h.cfg.Security.AuthRateWindow))
	{
		auth.POST("/sendAuthEmail", h.SendAuthEmail)
		auth.GET("/authEmail", h.AuthEmail)
		auth.POST("/register", h.RegisterAccount)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		if h.profiles != nil {
			auth.POST("/profile", h.UploadProfile)
		}
		auth.GET("/check", middleware.Auth(h.tokens), h.Check)
	}

	admin := router.Group("/admin")
	admin.Use(
		middleware.Auth(h.tokens),
		middleware.RequireAdmin(),
	)
	admin.GET("/accounts", h.AdminListAccounts)
}

// callContext bounds a store or mailer call by the configured request timeout.
func (h HandlerSet) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if h.cfg.HTTP.RequestTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, h.cfg.HTTP.RequestTimeout)
}
