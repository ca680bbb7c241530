package brainstub

import (
	"github.com/go-playground/validator/v10"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"fundbridge/pkg/config"
)

type requestValidator struct {
	validator *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// NewServer assembles the stub Brain: routes, auth, rate limiting. Callers
// own starting and shutting it down.
func NewServer(cfg *config.Config, clock clockwork.Clock) *echo.Echo {
	store := NewStore(clock)
	h := NewHandler(store, cfg.JWTSecret, cfg.JWTExpiry, cfg.MaxAttachmentSize)

	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validator: validator.New()}
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(RateLimit(rate.Limit(50), 100))

	e.GET("/health", h.Health)
	e.HEAD("/health", h.Health)
	e.POST("/v1/dev/token", h.DevToken)

	v1 := e.Group("/v1", JWTAuth(cfg.JWTSecret))
	v1.POST("/messages", h.SendMessage)
	v1.GET("/messages", h.GetMessages)
	v1.GET("/threads", h.GetThreads)
	v1.PUT("/threads/:id/read", h.MarkThreadRead)
	v1.POST("/typing", h.UpdateTyping)
	v1.GET("/typing/:other_user_id", h.GetTyping)
	v1.POST("/attachments", h.UploadAttachment)
	v1.GET("/admin/analytics", h.GetAnalytics)
	v1.GET("/users/:user_id/features/:feature", h.GetFeatureAccess)

	return e
}
