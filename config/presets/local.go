package presets

import (
	"time"

	"github.com/spacemeshos/go-iusync/config"
)

func init() {
	register("local", local())
}

// local runs a single process on the loopback interface with an ephemeral identity.
func local() config.Config {
	conf := config.DefaultConfig()
	conf.P2P.DataDir = ""
	conf.P2P.Listen = []string{"/ip4/127.0.0.1/tcp/0"}
	conf.P2P.LowPeers = 2
	conf.P2P.HighPeers = 10
	conf.P2P.GracePeersShutdown = time.Second
	conf.LOGGING.Level = "debug"
	conf.Buffer.ResendActive = true
	return conf
}
