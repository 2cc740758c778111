package presets

import (
	"time"

	"github.com/spacemeshos/go-iusync/config"
)

func init() {
	register("lab", lab())
}

// lab joins a shared network of components on a LAN.
func lab() config.Config {
	conf := config.DefaultConfig()
	conf.P2P.NetworkCookie = "iusync-lab"
	conf.P2P.Listen = []string{"/ip4/0.0.0.0/tcp/7513", "/ip6/::/tcp/7513"}
	conf.P2P.RequestTimeout = 5 * time.Second
	conf.Buffer.ResendActive = true
	conf.Buffer.RemoteCallTimeout = 5 * time.Second
	conf.Metrics.Enabled = true
	return conf
}
