package newsbot

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/health"
	numbercreate "github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/number/create"
	numberlist "github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/number/list"
	numberremove "github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/number/remove"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/number/verify"
	schedulecreate "github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/schedule/create"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/schedule/deactivate"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/schedule/deliveries"
	schedulelist "github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/schedule/list"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/schedule/trigger"
	topiccreate "github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/topic/create"
	topiclist "github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/topic/list"
	topicremove "github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/topic/remove"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/user/me"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/handlers/user/tier"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/http/middlewarectx"
	"github.com/magabrotheeeer/whatsapp-news-bot/internal/metrics"
	authservice "github.com/magabrotheeeer/whatsapp-news-bot/internal/services/auth"
	numberservice "github.com/magabrotheeeer/whatsapp-news-bot/internal/services/numbers"
	scheduleservice "github.com/magabrotheeeer/whatsapp-news-bot/internal/services/schedules"
	topicservice "github.com/magabrotheeeer/whatsapp-news-bot/internal/services/topics"
)

// Ограничение запросов на один IP для защищенных маршрутов.
const (
	rateLimitRPS   rate.Limit = 1
	rateLimitBurst            = 3
)

// Services сервисы, которые обслуживают маршруты API.
type Services struct {
	Auth      *authservice.AuthService
	Numbers   *numberservice.NumberService
	Topics    *topicservice.TopicService
	Schedules *scheduleservice.ScheduleService
	Health    health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	// Открытые конечные точки
	r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
	r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
	r.Get("/health", health.New(logger, s.Health).ServeHTTP)

	// Группа с JWT аутентификацией
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
		r.Use(middlewarectx.RateLimitMiddleware(logger, rateLimitRPS, rateLimitBurst))

		r.Get("/users/me", me.New(logger, s.Auth).ServeHTTP)
		r.Put("/users/subscription", tier.New(logger, s.Auth).ServeHTTP)

		r.Get("/whatsapp-numbers", numberlist.New(logger, s.Numbers).ServeHTTP)
		r.Post("/whatsapp-numbers", numbercreate.New(logger, s.Numbers).ServeHTTP)
		r.Post("/whatsapp-numbers/verify/{id}", verify.New(logger, s.Numbers).ServeHTTP)
		r.Delete("/whatsapp-numbers/{id}", numberremove.New(logger, s.Numbers).ServeHTTP)

		r.Post("/topics", topiccreate.New(logger, s.Topics).ServeHTTP)
		r.Get("/topics", topiclist.New(logger, s.Topics).ServeHTTP)
		r.Delete("/topics/{id}", topicremove.New(logger, s.Topics).ServeHTTP)

		r.Post("/schedules", schedulecreate.New(logger, s.Schedules).ServeHTTP)
		r.Get("/schedules", schedulelist.New(logger, s.Schedules).ServeHTTP)
		r.Post("/schedules/{id}/deactivate", deactivate.New(logger, s.Schedules).ServeHTTP)
		r.Get("/schedules/{id}/deliveries", deliveries.New(logger, s.Schedules).ServeHTTP)

		r.Post("/trigger-update/{schedule_id}", trigger.New(logger, s.Schedules).ServeHTTP)
	})

	r.Handle("/metrics", metrics.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
