package presets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresets(t *testing.T) {
	require.Equal(t, []string{"lab", "local"}, Options())
	for _, name := range Options() {
		t.Run(name, func(t *testing.T) {
			conf, err := Get(name)
			require.NoError(t, err)
			require.Equal(t, name, conf.Preset)
			require.True(t, conf.Buffer.ResendActive)
			require.NotEmpty(t, conf.P2P.Listen)
		})
	}
	_, err := Get("mainnet")
	require.ErrorContains(t, err, "doesn't exist")
}

func TestPresetIsCopy(t *testing.T) {
	conf, err := Get("lab")
	require.NoError(t, err)
	conf.P2P.Listen[0] = "/ip4/10.0.0.1/tcp/1"
	conf.Buffer.CategoryInterests = append(conf.Buffer.CategoryInterests, "changed")

	again, err := Get("lab")
	require.NoError(t, err)
	require.Empty(t, again.Buffer.CategoryInterests)
	require.Equal(t, "/ip4/0.0.0.0/tcp/7513", again.P2P.Listen[0])
}
