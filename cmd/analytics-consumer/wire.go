//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"linkshrink/internal/biz"
	"linkshrink/internal/conf"
	"linkshrink/internal/data"
	"linkshrink/internal/server"
	"linkshrink/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		server.ProviderSet,
		data.ProviderSet,
		biz.ProviderSet,
		service.ProviderSet,
		wire.Bind(new(server.SubscriberDialer), new(*data.ClickSubscriber)),
		newApp,
	))
}
