// Package codec wraps go-scale encoding with buffer pooling and length limits.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spacemeshos/go-scale"
)

var (
	// ErrTrailingBytes is returned by Decode if the buffer holds more bytes than the value consumed.
	ErrTrailingBytes = errors.New("trailing bytes after decoded value")
	// ErrTooManyElements is returned when a collection exceeds its element limit.
	ErrTooManyElements = errors.New("too many elements in collection")
)

// Encodable is an interface that must be implemented by a struct to be encoded.
type Encodable = scale.Encodable

// Decodable is an interface that must be implemented by a struct to be decoded.
type Decodable = scale.Decodable

// EncodeTo encodes value to a writer stream.
func EncodeTo(w io.Writer, value Encodable) (int, error) {
	n, err := value.EncodeScale(scale.NewEncoder(w))
	if err != nil {
		return n, fmt.Errorf("encode scale: %w", err)
	}
	return n, nil
}

// DecodeFrom decodes a value using data from a reader stream.
func DecodeFrom(r io.Reader, value Decodable) (int, error) {
	n, err := value.DecodeScale(scale.NewDecoder(r))
	if err != nil {
		return n, fmt.Errorf("decode scale: %w", err)
	}
	return n, nil
}

var encoderPool = sync.Pool{
	New: func() any {
		b := new(bytes.Buffer)
		b.Grow(64)
		return b
	},
}

func getEncoderBuffer() *bytes.Buffer {
	return encoderPool.Get().(*bytes.Buffer)
}

func putEncoderBuffer(b *bytes.Buffer) {
	b.Reset()
	encoderPool.Put(b)
}

// Encode value to a byte buffer.
func Encode(value Encodable) ([]byte, error) {
	b := getEncoderBuffer()
	defer putEncoderBuffer(b)
	if _, err := EncodeTo(b, value); err != nil {
		return nil, err
	}
	buf := make([]byte, b.Len())
	copy(buf, b.Bytes())
	return buf, nil
}

// MustEncode encodes value and panics on failure. Use only for values whose
// encoding cannot fail (no limits can be exceeded).
func MustEncode(value Encodable) []byte {
	buf, err := Encode(value)
	if err != nil {
		panic(err)
	}
	return buf
}

// Decode value from a byte buffer. The whole buffer has to be consumed.
func Decode(buf []byte, value Decodable) error {
	n, err := DecodeFrom(bytes.NewReader(buf), value)
	if err != nil {
		return fmt.Errorf("decode from buffer: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: %d of %d", ErrTrailingBytes, n, len(buf))
	}
	return nil
}

// EncodeStringSlice encodes a length prefixed list of strings, each bounded by limit bytes.
func EncodeStringSlice(enc *scale.Encoder, value []string, maxElements, limit uint32) (int, error) {
	if uint32(len(value)) > maxElements {
		return 0, fmt.Errorf("%w: %d > %d", ErrTooManyElements, len(value), maxElements)
	}
	total, err := scale.EncodeCompact32(enc, uint32(len(value)))
	if err != nil {
		return total, err
	}
	for _, s := range value {
		n, err := scale.EncodeStringWithLimit(enc, s, limit)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// DecodeStringSlice is the counterpart of EncodeStringSlice.
func DecodeStringSlice(dec *scale.Decoder, maxElements, limit uint32) ([]string, int, error) {
	length, total, err := scale.DecodeCompact32(dec)
	if err != nil {
		return nil, total, err
	}
	if length > maxElements {
		return nil, total, fmt.Errorf("%w: %d > %d", ErrTooManyElements, length, maxElements)
	}
	if length == 0 {
		return nil, total, nil
	}
	value := make([]string, 0, length)
	for range length {
		s, n, err := scale.DecodeStringWithLimit(dec, limit)
		if err != nil {
			return nil, total, err
		}
		total += n
		value = append(value, s)
	}
	return value, total, nil
}
