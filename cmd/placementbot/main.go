package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/m3rciful/placementbot/core/bootstrap"
	corecmd "github.com/m3rciful/placementbot/core/cmd"
	"github.com/m3rciful/placementbot/internal/app"
)

const appName = "placementbot"

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.LoadConfig(path)
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			cfg := carrier.(*app.Config)
			var started atomic.Pointer[app.App]
			boot, err := bootstrap.Run(bootstrap.Options{
				Config:  &cfg.Config,
				AppName: appName,
				Health: func(ctx context.Context) error {
					a := started.Load()
					if a == nil {
						return errors.New("starting")
					}
					return a.Health(ctx)
				},
			})
			if err != nil {
				return nil, err
			}
			a, err := app.New(cfg)
			if err != nil {
				boot.Close()
				return nil, err
			}
			a.OnStop(boot.Close)
			started.Store(a)
			return a, nil
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
