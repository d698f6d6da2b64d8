package server

import (
	"linkshrink/internal/conf"
	"linkshrink/internal/service"
	"linkshrink/pkg/problemdetails"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, redirect *service.RedirectService, logger log.Logger) *http.Server {
	opts := append(httpOptions(c.HTTP, logger), http.ErrorEncoder(problemdetails.ErrorEncoder))
	srv := http.NewServer(opts...)
	service.RegisterRedirectHTTPServer(srv, redirect)
	return srv
}

// MetricsServer serves /metrics on its own listener so that every path of
// the public server stays available to short codes.
type MetricsServer struct {
	*http.Server
}

func NewMetricsServer(c *conf.Server, logger log.Logger) *MetricsServer {
	srv := http.NewServer(httpOptions(c.Metrics, logger)...)
	srv.Handle("/metrics", promhttp.Handler())
	return &MetricsServer{Server: srv}
}

func httpOptions(c *conf.Server_HTTP, logger log.Logger) []http.ServerOption {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	}
	if c == nil {
		return opts
	}
	if c.Network != "" {
		opts = append(opts, http.Network(c.Network))
	}
	if c.Addr != "" {
		opts = append(opts, http.Address(c.Addr))
	}
	if c.Timeout > 0 {
		opts = append(opts, http.Timeout(c.Timeout.Std()))
	}
	return opts
}
