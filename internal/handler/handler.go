package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/planner"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/repository"
)

// MailPublisher 是 *amqp.Channel 中用于发送邮件消息的部分
type MailPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	planner     *planner.Planner
	translator  ut.Translator
	mailChannel MailPublisher
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, p *planner.Planner, mailCh MailPublisher, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		planner:     p,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	if h.config.Metrics.Enabled {
		h.Mux.Method("GET", h.config.Metrics.Path, promhttp.Handler())
	}

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	counselorOnly := h.RequiredRole([]domain.Role{domain.RoleCounselor})
	studentOnly := h.RequiredRole([]domain.Role{domain.RoleStudent})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Route("/update-email", func(r chi.Router) {
				r.Post("/require", h.RequireUpdateEmail)
				r.Post("/confirm", h.ConfirmUpdateEmail)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(counselorOnly) // 学生之间不能互相查看信息
			r.Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).Delete("/", h.DeleteUser)
				r.Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/scholarships", func(r chi.Router) {
			r.With(counselorOnly).Post("/", h.CreateScholarship)
			r.Get("/", h.GetAllScholarships)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.scholarship)
				r.Get("/", h.GetScholarship)
				r.With(counselorOnly).Patch("/", h.UpdateScholarship)
				r.With(counselorOnly).Delete("/", h.DeleteScholarship)
			})
		})

		r.Route("/my-applications", func(r chi.Router) {
			r.Use(studentOnly)
			r.Use(h.myInfo)
			r.With(h.preventInactiveStudent).Post("/", h.CommitApplication)
			r.Get("/", h.GetMyApplications)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.myApplication)
				r.Get("/", h.GetMyApplication)
				r.Patch("/", h.UpdateMyApplication)
				r.Route("/schedule", func(r chi.Router) {
					r.Get("/", h.GetSchedule)
					r.Group(func(r chi.Router) {
						r.Use(h.preventTerminalApplication)
						r.Post("/recalculate", h.RecalculateSchedule)
						r.Post("/defer", h.DeferSchedule)
					})
				})
			})
		})

		r.Route("/my-workload", func(r chi.Router) {
			r.Use(studentOnly)
			r.Use(h.myInfo)
			r.Get("/weeks", h.GetWeeklyWorkload)
			r.Get("/conflicts", h.GetConflictReport)
			r.Get("/capacity", h.GetCapacityAdvice)
			r.Get("/overlap", h.GetOverlap)
		})
	})
}
