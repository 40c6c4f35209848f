package main

import (
	"context"
	"fmt"
	"sync"

	"liyu1981.xyz/glucose-watch-service/pkg/cgm"
	"liyu1981.xyz/glucose-watch-service/pkg/config"
	"liyu1981.xyz/glucose-watch-service/pkg/db"
	"liyu1981.xyz/glucose-watch-service/pkg/events"
	"liyu1981.xyz/glucose-watch-service/pkg/monitor"
)

func openDB(c *config.Config) (*db.DB, error) {
	switch c.DB.Type {
	case "file":
		return db.Open(db.UseSqliteDialector(c.DB.Path))
	case "memory":
		return db.Open(db.UseMemorySqliteDialector())
	case "postgres":
		return db.Open(db.UsePostgresDialector(c.DB.PostgresDSN))
	default:
		return nil, fmt.Errorf("unknown database type %q", c.DB.Type)
	}
}

func withDB(fn func(*db.DB) error) error {
	dbInstance, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer dbInstance.Close()
	return fn(dbInstance)
}

func newMonitor(c *config.Config, dbInstance *db.DB, bus *events.Bus) *monitor.Monitor {
	return monitor.New(*dbInstance, bus, monitor.Thresholds{Low: c.GlucoseLow, High: c.GlucoseHigh})
}

// newPoller wires the provider client, token store and cycle lock. The
// returned cleanup closes the redis client when one was opened.
func newPoller(ctx context.Context, c *config.Config, dbInstance *db.DB, m *monitor.Monitor) (*cgm.Poller, func(), error) {
	provider := cgm.NewDexcomClient(cgm.ClientOptions{
		BaseURL:      c.CGM.BaseURL,
		ClientID:     c.CGM.ClientID,
		ClientSecret: c.CGM.ClientSecret,
		RedirectURL:  c.CGM.RedirectURL,
	})

	poller := cgm.NewPoller(provider, cgm.NewTokenStore(*dbInstance), m.Reading, m.User)
	poller.Interval = c.CGM.PollInterval
	poller.Backfill = c.CGM.Backfill

	cleanup := func() {}
	if c.Redis.Addr != "" {
		client, err := cgm.NewRedisClient(ctx, c.Redis.Addr, c.Redis.Password)
		if err != nil {
			return nil, nil, err
		}
		poller.Lock = &cgm.RedisLock{Client: client}
		poller.States = &cgm.RedisStateStore{Client: client}
		cleanup = func() { _ = client.Close() }
	}

	return poller, cleanup, nil
}

// goWithCancel runs fn on its own goroutine. The returned stop cancels fn's
// context and blocks until fn has returned. It is safe to call more than once.
func goWithCancel(parent context.Context, fn func(context.Context)) (stop func()) {
	ctx, cancel := context.WithCancel(parent)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn(ctx)
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}
