package strpack

import (
	"bytes"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/strpack/compress"
	"github.com/arloliu/strpack/errs"
	"github.com/arloliu/strpack/format"
	"github.com/arloliu/strpack/internal/serial"
	"github.com/arloliu/strpack/value"
)

func compressedForm(t *testing.T, rec *value.Record) string {
	t.Helper()

	s, err := serial.EncodePrefixed(format.CompressedPrefix, rec)
	require.NoError(t, err)

	return s
}

func blockOf(t *testing.T, data string) *value.Buffer {
	t.Helper()

	out, err := compress.NewBlockCodec().Compress([]byte(data))
	require.NoError(t, err)

	return value.BufferOf(out)
}

func TestPolicy_Threshold(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	random := make([]byte, 2048)
	for i := range random {
		random[i] = byte(rng.IntN(256))
	}

	tests := []struct {
		name           string
		in             any
		wantCompressed bool
	}{
		{name: "tiny value", in: int64(1), wantCompressed: false},
		{name: "short string", in: "hello", wantCompressed: false},
		{name: "random bytes", in: random, wantCompressed: false},
		{name: "repetitive text", in: strings.Repeat("the same words again ", 500), wantCompressed: true},
		{
			name:           "repeated records",
			in:             NewList(repeatRecords(200)...),
			wantCompressed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plain, err := Serialize(tt.in)
			require.NoError(t, err)
			out, err := Serialize(tt.in, WithCompression())
			require.NoError(t, err)

			require.Equal(t, tt.wantCompressed, format.IsCompressed(out))
			if format.IsCompressed(out) {
				require.LessOrEqual(t, len(out)*20, len(plain)*17)
			} else {
				require.Equal(t, plain, out)
			}

			back, err := Deserialize(out)
			require.NoError(t, err)
			again, err := Serialize(back)
			require.NoError(t, err)
			require.Equal(t, plain, again)
		})
	}
}

func repeatRecords(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = NewRecord().Set("id", int64(i%7)).Set("status", "active").Set("region", "eu-west")
	}

	return out
}

func TestPolicy_CompressionFailureFallsBack(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	in := strings.Repeat("abc", 1000)

	// A nil codec panics inside Compress.
	out, err := serialize(nil, logger, in, true)
	require.NoError(t, err)
	require.True(t, format.IsPlain(out))
	require.Contains(t, logs.String(), "compression failed")

	back, err := deserialize(compress.NewBlockCodec(), out, DefaultMaxDecodedSize)
	require.NoError(t, err)
	require.Equal(t, in, back)
}

func TestPolicy_CorruptCompressedForms(t *testing.T) {
	plain, err := Serialize(strings.Repeat("z", 500))
	require.NoError(t, err)
	good := blockOf(t, plain)

	tests := []struct {
		name string
		in   string
	}{
		{name: "not a record", in: compressedForm(t, nil)},
		{
			name: "missing data",
			in:   compressedForm(t, value.NewRecord().Set("size", int64(len(plain))).Set("other", good)),
		},
		{
			name: "size of wrong type",
			in:   compressedForm(t, value.NewRecord().Set("size", "500").Set("data", good)),
		},
		{
			name: "negative size",
			in:   compressedForm(t, value.NewRecord().Set("size", int64(-1)).Set("data", good)),
		},
		{
			name: "size too large",
			in:   compressedForm(t, value.NewRecord().Set("size", int64(len(plain)+1)).Set("data", good)),
		},
		{
			name: "size too small",
			in:   compressedForm(t, value.NewRecord().Set("size", int64(len(plain)-1)).Set("data", good)),
		},
		{
			name: "impossible expansion",
			in:   compressedForm(t, value.NewRecord().Set("size", int64(1)<<40).Set("data", good)),
		},
		{
			name: "data of wrong type",
			in:   compressedForm(t, value.NewRecord().Set("size", int64(3)).Set("data", "abc")),
		},
		{
			name: "extra key",
			in: compressedForm(t, value.NewRecord().
				Set("size", int64(len(plain))).Set("data", good).Set("x", true)),
		},
		{
			name: "content without plain prefix",
			in:   compressedForm(t, value.NewRecord().Set("size", int64(11)).Set("data", blockOf(t, "hello world"))),
		},
		{
			name: "nested compressed form",
			in: compressedForm(t, value.NewRecord().
				Set("size", int64(len(format.CompressedPrefix)+1)).
				Set("data", blockOf(t, format.CompressedPrefix+"0"))),
		},
		{
			name: "corrupt block",
			in:   compressedForm(t, value.NewRecord().Set("size", int64(100)).Set("data", value.BufferOf([]byte{0xF0, 1, 2}))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Deserialize(tt.in)
			require.ErrorIs(t, err, errs.ErrMalformedPayload)
			require.Nil(t, v)
		})
	}

	t.Run("valid form", func(t *testing.T) {
		s := compressedForm(t, value.NewRecord().Set("size", int64(len(plain))).Set("data", good))
		v, err := Deserialize(s)
		require.NoError(t, err)
		require.Equal(t, strings.Repeat("z", 500), v)
	})
}
