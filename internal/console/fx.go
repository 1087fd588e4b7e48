package console

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("console",
	fx.Provide(New),
	fx.Invoke(RunStdio),
)

// RunStdio attaches the console to stdin and stdout and stops the app when
// the operator quits.
func RunStdio(lc fx.Lifecycle, shutdowner fx.Shutdowner, c *Console, log *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := c.Run(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
					log.Error("console stopped", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
