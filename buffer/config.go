package buffer

import (
	"time"

	"github.com/spacemeshos/go-iusync/transport"
)

// Config of an input buffer.
type Config struct {
	// OwningComponentName prefixes the generated unique names of the buffer.
	OwningComponentName string `mapstructure:"owning-component-name"`
	// CategoryInterests are subscribed when the buffer is created.
	CategoryInterests []string `mapstructure:"category-interests"`
	// Channel is the root of every category scope.
	Channel string `mapstructure:"channel"`
	// ResendActive enables resend requests for mutations of unknown units.
	ResendActive bool `mapstructure:"resend-active"`
	// RemoteCallTimeout bounds a single resend request.
	RemoteCallTimeout time.Duration `mapstructure:"remote-call-timeout"`
}

func DefaultConfig() Config {
	return Config{
		Channel:           transport.DefaultChannel,
		RemoteCallTimeout: 2 * time.Second,
	}
}
