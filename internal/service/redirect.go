package service

import (
	"context"
	nethttp "net/http"

	"linkshrink/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

const (
	OperationRedirectServiceRedirect = "/linkshrink.redirect.v1.RedirectService/Redirect"
	OperationRedirectServiceHealth   = "/linkshrink.redirect.v1.RedirectService/Health"
)

// HealthReply is the body of GET /health.
type HealthReply struct {
	Status         string `json:"status"`
	CacheConnected bool   `json:"cacheConnected"`
}

type RedirectService struct {
	uc  *biz.RedirectUsecase
	log *log.Helper
}

func NewRedirectService(uc *biz.RedirectUsecase, logger log.Logger) *RedirectService {
	return &RedirectService{
		uc:  uc,
		log: log.NewHelper(log.With(logger, "module", "service/redirect")),
	}
}

// Redirect resolves a short code to its target URL.
func (s *RedirectService) Redirect(ctx context.Context, shortCode string) (string, error) {
	s.log.WithContext(ctx).Infof("redirect request received for %s", shortCode)
	return s.uc.Resolve(ctx, shortCode)
}

// Health never fails; a dead cache only flips CacheConnected.
func (s *RedirectService) Health(ctx context.Context) *HealthReply {
	return &HealthReply{
		Status:         "ok",
		CacheConnected: s.uc.CacheConnected(ctx),
	}
}

// RegisterRedirectHTTPServer mounts GET /health and GET /{short_code}.
// /health must be registered first so it is not taken for a short code.
func RegisterRedirectHTTPServer(s *http.Server, srv *RedirectService) {
	r := s.Route("/")
	r.GET("/health", _RedirectService_Health_HTTP_Handler(srv))
	r.GET("/{short_code}", _RedirectService_Redirect_HTTP_Handler(srv))
}

func _RedirectService_Redirect_HTTP_Handler(srv *RedirectService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		shortCode := ctx.Vars().Get("short_code")
		http.SetOperation(ctx, OperationRedirectServiceRedirect)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Redirect(ctx, req.(string))
		})
		out, err := h(ctx, shortCode)
		if err != nil {
			return err
		}
		// The target is sent verbatim; nethttp.Redirect would rewrite relative ones.
		w := ctx.Response()
		w.Header().Set("Location", out.(string))
		w.WriteHeader(nethttp.StatusTemporaryRedirect)
		return nil
	}
}

func _RedirectService_Health_HTTP_Handler(srv *RedirectService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		http.SetOperation(ctx, OperationRedirectServiceHealth)
		h := ctx.Middleware(func(ctx context.Context, _ interface{}) (interface{}, error) {
			return srv.Health(ctx), nil
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.JSON(nethttp.StatusOK, out)
	}
}
