package cmd

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/spacemeshos/go-iusync/config"
	"github.com/spacemeshos/go-iusync/config/presets"
	"github.com/spacemeshos/go-iusync/log"
)

// flagKeys maps a flag to the config key it overrides.
var flagKeys = map[string]string{
	"log-encoder": "logging.log-encoder",
	"log-level":   "logging.log-level",

	"component-name":      "buffer.owning-component-name",
	"categories":          "buffer.category-interests",
	"channel":             "buffer.channel",
	"resend-active":       "buffer.resend-active",
	"remote-call-timeout": "buffer.remote-call-timeout",

	"data-dir":          "p2p.data-dir",
	"p2p-log-level":     "p2p.log-level",
	"network-cookie":    "p2p.network-cookie",
	"listen":            "p2p.listen",
	"bootnodes":         "p2p.bootnodes",
	"low-peers":         "p2p.low-peers",
	"high-peers":        "p2p.high-peers",
	"flood":             "p2p.flood",
	"disable-reuseport": "p2p.disable-reuseport",
	"request-timeout":   "p2p.request-timeout",
	"p2p-metrics":       "p2p.p2p-metrics",

	"metrics":             "metrics.metrics",
	"metrics-address":     "metrics.metrics-address",
	"metrics-push":        "metrics.metrics-push",
	"metrics-push-period": "metrics.metrics-push-period",
}

// AddFlags adds the flags shared by all executables. Defaults are only shown in the
// help text, a flag overrides the preset and the config file only when it is set.
func AddFlags(flagSet *pflag.FlagSet) {
	cfg := config.DefaultConfig()
	flagSet.StringP("preset", "p", "",
		fmt.Sprintf("preset overwrites default values of the config. options %+s", presets.Options()))
	flagSet.StringP("config", "c", "", "load configuration from file")

	/** ======================== Logging Flags ========================== **/

	flagSet.String("log-encoder", cfg.LOGGING.Encoder,
		fmt.Sprintf("log encoding, %s or %s", log.ConsoleEncoder, log.JSONEncoder))
	flagSet.String("log-level", cfg.LOGGING.Level, "log level of the application")

	/** ======================== Buffer Flags ========================== **/

	flagSet.String("component-name", cfg.Buffer.OwningComponentName,
		"name of the owning component, prefix of the generated buffer names")
	flagSet.StringSlice("categories", cfg.Buffer.CategoryInterests, "categories to subscribe to")
	flagSet.String("channel", cfg.Buffer.Channel, "channel that scopes every category")
	flagSet.Bool("resend-active", cfg.Buffer.ResendActive,
		"ask the owner to resend units that were never announced to this buffer")
	flagSet.Duration("remote-call-timeout", cfg.Buffer.RemoteCallTimeout, "timeout of a single resend request")

	/** ======================== P2P Flags ========================== **/

	flagSet.String("data-dir", cfg.P2P.DataDir, "directory for the p2p identity, ephemeral identity if empty")
	flagSet.String("p2p-log-level", cfg.P2P.LogLevel, "log level of libp2p")
	flagSet.String("network-cookie", cfg.P2P.NetworkCookie,
		"hosts with different network cookies can't connect to each other")
	flagSet.StringSlice("listen", cfg.P2P.Listen, "addresses for listening")
	flagSet.StringSlice("bootnodes", cfg.P2P.Bootnodes, "entrypoints into the network")
	flagSet.Int("low-peers", cfg.P2P.LowPeers, "low watermark for the number of connections")
	flagSet.Int("high-peers", cfg.P2P.HighPeers,
		"high watermark for the number of connections; once reached, connections are pruned until low watermark remains")
	flagSet.Bool("flood", cfg.P2P.Flood, "flood created messages to all peers")
	flagSet.Bool("disable-reuseport", cfg.P2P.DisableReusePort, "disable SO_REUSEPORT for tcp sockets")
	flagSet.Duration("request-timeout", cfg.P2P.RequestTimeout, "timeout of a request to a remote server")
	flagSet.Bool("p2p-metrics", cfg.P2P.Metrics, "collect p2p metrics")

	/** ======================== Metrics Flags ========================== **/

	flagSet.Bool("metrics", cfg.Metrics.Enabled, "serve metrics")
	flagSet.String("metrics-address", cfg.Metrics.Address, "address of the metrics server")
	flagSet.String("metrics-push", cfg.Metrics.PushURL, "push metrics to url")
	flagSet.Duration("metrics-push-period", cfg.Metrics.PushPeriod, "push period")
}

// LoadConfig builds the config from the preset, the config file and the flags that are set,
// in that order.
func LoadConfig(flagSet *pflag.FlagSet) (*config.Config, error) {
	conf := config.DefaultConfig()
	if name, _ := flagSet.GetString("preset"); name != "" {
		preset, err := presets.Get(name)
		if err != nil {
			return nil, log.ErrBadFlags(err)
		}
		conf = preset
	}
	vip := viper.New()
	path, _ := flagSet.GetString("config")
	if err := config.LoadConfig(path, vip); err != nil {
		return nil, log.ErrMalformedConfig(err)
	}
	var bindErr error
	flagSet.Visit(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = vip.BindPFlag(key, f)
	})
	if bindErr != nil {
		return nil, log.ErrBadFlags(bindErr)
	}
	if err := config.Unmarshal(vip, &conf); err != nil {
		return nil, log.ErrMalformedConfig(err)
	}
	conf.ConfigFile = path
	return &conf, nil
}
