package codec

import (
	"bytes"
	"testing"

	"github.com/spacemeshos/go-scale"
	"github.com/stretchr/testify/require"
)

type names struct {
	Values []string
}

func (n *names) EncodeScale(enc *scale.Encoder) (int, error) {
	return EncodeStringSlice(enc, n.Values, 4, 8)
}

func (n *names) DecodeScale(dec *scale.Decoder) (int, error) {
	v, total, err := DecodeStringSlice(dec, 4, 8)
	n.Values = v
	return total, err
}

func TestStringSlice(t *testing.T) {
	buf, err := Encode(&names{Values: []string{"a", "bb", ""}})
	require.NoError(t, err)

	var got names
	require.NoError(t, Decode(buf, &got))
	require.Equal(t, []string{"a", "bb", ""}, got.Values)

	buf, err = Encode(&names{})
	require.NoError(t, err)
	require.NoError(t, Decode(buf, &got))
	require.Empty(t, got.Values)
}

func TestStringSliceLimits(t *testing.T) {
	_, err := Encode(&names{Values: []string{"a", "b", "c", "d", "e"}})
	require.ErrorIs(t, err, ErrTooManyElements)

	_, err = Encode(&names{Values: []string{"way too long"}})
	require.Error(t, err)

	var b bytes.Buffer
	_, err = scale.EncodeCompact32(scale.NewEncoder(&b), 100)
	require.NoError(t, err)
	var got names
	require.ErrorIs(t, Decode(b.Bytes(), &got), ErrTooManyElements)
}

func TestDecodeTrailingBytes(t *testing.T) {
	buf := MustEncode(&names{Values: []string{"x"}})
	var got names
	require.ErrorIs(t, Decode(append(buf, 0), &got), ErrTrailingBytes)
}
