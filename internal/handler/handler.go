package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-fanout/backend/internal/fanout"
)

// CoordinatorDirectory 提供调度员账号的查询，登录时使用
type CoordinatorDirectory interface {
	GetCoordinatorByUsername(username string) (*domain.Coordinator, error)
}

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	directory     fanout.Directory
	coordinators  CoordinatorDirectory
	fanoutService *fanout.Service
	translator    ut.Translator
	redisClient   *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, directory fanout.Directory, coordinators CoordinatorDirectory, fanoutService *fanout.Service, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:      validate,
		config:        cfg,
		directory:     directory,
		coordinators:  coordinators,
		fanoutService: fanoutService,
		translator:    trans,
		redisClient:   rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/health", h.Health)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 短信网关的入站回调，不走登录态
	h.Mux.Post("/messages/inbound", h.HandleInboundMessage)

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/shifts/{shiftID}", func(r chi.Router) {
			r.Use(h.shiftInfo)
			r.Post("/fanout", h.InitiateShiftFanout)
			r.Get("/fanout", h.GetShiftFanout)
		})
	})
}
