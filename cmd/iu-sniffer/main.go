// iu-sniffer joins a unit network, mirrors the units of the given categories and logs
// every event it observes.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/spacemeshos/go-iusync/buffer"
	"github.com/spacemeshos/go-iusync/cmd"
	"github.com/spacemeshos/go-iusync/config"
	"github.com/spacemeshos/go-iusync/iu"
	"github.com/spacemeshos/go-iusync/log"
	"github.com/spacemeshos/go-iusync/metrics"
	"github.com/spacemeshos/go-iusync/p2p"
)

var (
	version string
	commit  string
	branch  string
)

const defaultComponentName = "sniffer"

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Branch = branch
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	c := &cobra.Command{
		Use:     "iu-sniffer [categories...]",
		Short:   "log every unit event seen on the given categories",
		Version: fmt.Sprintf("%s+%s+%s", cmd.Version, cmd.Branch, cmd.Commit),
		RunE: func(c *cobra.Command, args []string) error {
			conf, err := cmd.LoadConfig(c.Flags())
			if err != nil {
				return err
			}
			conf.Buffer.CategoryInterests = append(conf.Buffer.CategoryInterests, args...)
			if conf.Buffer.OwningComponentName == "" {
				conf.Buffer.OwningComponentName = defaultComponentName
			}
			ctx, cancel := cmd.Context()
			defer cancel()
			return run(ctx, conf)
		},
	}
	cmd.AddFlags(c.PersistentFlags())
	c.AddCommand(newIdentityCommand())
	return c
}

func run(ctx context.Context, conf *config.Config) (err error) {
	logger, err := log.New(defaultComponentName, conf.LOGGING)
	if err != nil {
		return log.ErrBadFlags(err)
	}
	defer logger.Sync()
	p2pLogger, err := log.Module(logger, conf.LOGGING, "p2p")
	if err != nil {
		return log.ErrMalformedConfig(err)
	}
	bufferLogger, err := log.Module(logger, conf.LOGGING, "buffer")
	if err != nil {
		return log.ErrMalformedConfig(err)
	}

	if conf.Metrics.Enabled {
		metrics.StartMetricsServer(ctx, logger, conf.Metrics.Address)
	}

	host, err := p2p.New(ctx, p2pLogger, conf.P2P)
	if err != nil {
		return fmt.Errorf("start p2p host: %w", err)
	}
	defer func() {
		err = multierr.Append(err, host.Stop())
	}()

	b, err := buffer.New(host.Transport(), conf.Buffer, buffer.WithLogger(bufferLogger))
	if err != nil {
		return fmt.Errorf("create input buffer: %w", err)
	}
	defer func() {
		err = multierr.Append(err, b.Close())
	}()
	if conf.Metrics.PushURL != "" {
		metrics.StartPushingMetrics(ctx, logger, conf.Metrics.PushURL, conf.Metrics.PushHeader,
			conf.Metrics.PushPeriod, b.UniqueShortName())
	}

	b.RegisterHandler(func(ctx context.Context, ev buffer.Event) {
		logger.Info("unit event",
			log.ZContext(ctx),
			zap.Stringer("event", ev.Type),
			zap.String("uid", ev.UID),
			zap.String("category", ev.Category),
			zap.Object("unit", ev.Unit),
		)
	}, iu.AllEvents)

	logger.Info("sniffing",
		zap.Stringer("identity", host.ID()),
		zap.Stringers("listen", host.Addrs()),
		zap.String("name", b.UniqueName()),
		zap.Strings("categories", b.CategoryInterests()),
	)
	<-ctx.Done()
	logger.Info("stopping")
	return nil
}
