package data

import (
	"context"
	"time"

	"linkshrink/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewLinkCache,
	NewLinkRegistry,
	NewBrokerPublisher,
	NewClickPublisher,
	NewClickSubscriber,
	NewClickCounter,
	NewWatermillLogger,
)

const startupPingTimeout = 2 * time.Second

// Data .
type Data struct {
	rdb *redis.Client
}

// NewData creates the shared Redis client.
//
// An unreachable Redis at startup is logged, not fatal: the redirect path
// falls back to the link registry until the cache comes back.
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	log := log.NewHelper(log.With(logger, "module", "data"))

	rdb := redis.NewClient(&redis.Options{
		Addr:         c.Redis.Addr,
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		DialTimeout:  c.Redis.DialTimeout.Std(),
		ReadTimeout:  c.Redis.ReadTimeout.Std(),
		WriteTimeout: c.Redis.WriteTimeout.Std(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Errorf("could not connect to redis at %s: %v", c.Redis.Addr, err)
	} else {
		log.Infof("connected to redis at %s", c.Redis.Addr)
	}

	d := &Data{
		rdb: rdb,
	}

	cleanup := func() {
		log.Info("message", "closing the data resources")
		if err := d.rdb.Close(); err != nil {
			log.Error(err)
		}
	}

	return d, cleanup, nil
}
