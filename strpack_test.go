package strpack

import (
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/strpack/encoding"
	"github.com/arloliu/strpack/errs"
	"github.com/arloliu/strpack/format"
	"github.com/arloliu/strpack/value"
)

func TestSerialize_Zero(t *testing.T) {
	s, err := Serialize(0)
	require.NoError(t, err)
	require.Equal(t, format.PlainPrefix+"0", s)

	v, err := Deserialize(s)
	require.NoError(t, err)
	require.Equal(t, int64(0), v)
}

func TestSerialize_SharedRecordInList(t *testing.T) {
	inner := NewRecord().Set("a", 1)
	s, err := Serialize(NewList(inner, inner))
	require.NoError(t, err)

	v, err := Deserialize(s)
	require.NoError(t, err)

	list, ok := v.(*List)
	require.True(t, ok)
	require.Len(t, list.Items, 2)
	require.Same(t, list.Items[0], list.Items[1])

	rec, ok := list.Items[0].(*Record)
	require.True(t, ok)
	a, _ := rec.Get("a")
	require.Equal(t, int64(1), a)
}

func TestSerialize_RepetitiveStringCompresses(t *testing.T) {
	str := strings.Repeat("x", 65536)

	plain, err := Serialize(str)
	require.NoError(t, err)
	packed, err := Serialize(str, WithCompression())
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(packed, format.CompressedPrefix))
	require.Less(t, len(packed), len(plain))
	require.LessOrEqual(t, float64(len(packed)), CompressionThreshold*float64(len(plain)))

	v, err := Deserialize(packed)
	require.NoError(t, err)
	require.Equal(t, str, v)
}

func TestSerialize_ZeroBuffer(t *testing.T) {
	s, err := Serialize(make([]byte, 16))
	require.NoError(t, err)

	v, err := Deserialize(s)
	require.NoError(t, err)

	buf, ok := v.(*Buffer)
	require.True(t, ok)
	require.Equal(t, make([]byte, 16), buf.Data)
}

// nested builds a value of the given depth that mixes every composite kind
// and shares one leaf record between branches.
func nested(depth int, shared *Record) any {
	if depth == 0 {
		return shared
	}

	buf := BufferOf([]byte{1, 2, 3, 4, 0, 0, 0, 0, byte(depth)})
	view, _ := NewView(value.Uint8, buf, 1, 4)

	return NewRecord().
		Set("depth", depth).
		Set("name", strings.Repeat("n", depth)).
		Set("ratio", float64(depth)+0.25).
		Set("flags", NewSet("x", int64(depth), true)).
		Set("when", &Date{UnixMilli: int64(depth) * 1000}).
		Set("re", NewRegExp("^a+$", "gi")).
		Set("view", view).
		Set("buf", buf).
		Set("left", nested(depth-1, shared)).
		Set("right", NewList(nested(depth-1, shared), nil, Undefined))
}

func TestRoundTrip_DeepSharedStructure(t *testing.T) {
	shared := NewRecord().Set("leaf", "shared")
	root := nested(5, shared)

	for _, opts := range [][]CallOption{nil, {WithCompression()}} {
		s, err := Serialize(root, opts...)
		require.NoError(t, err)

		v, err := Deserialize(s)
		require.NoError(t, err)

		leaves := map[*Record]bool{}
		var walk func(v any)
		walk = func(v any) {
			rec, ok := v.(*Record)
			if !ok {
				return
			}
			if _, ok := rec.Get("leaf"); ok {
				leaves[rec] = true
				return
			}
			left, _ := rec.Get("left")
			walk(left)
			right, _ := rec.Get("right")
			walk(right.(*List).Items[0])

			view, _ := rec.Get("view")
			buf, _ := rec.Get("buf")
			require.Same(t, buf, view.(*View).Buffer)
		}
		walk(v)
		require.Len(t, leaves, 1, "shared leaf decoded more than once")
	}
}

func TestRoundTrip_SelfCycle(t *testing.T) {
	rec := NewRecord().Set("name", "loop")
	list := NewList(rec)
	rec.Set("self", rec).Set("list", list)
	list.Append(list)

	s, err := Serialize(rec)
	require.NoError(t, err)

	v, err := Deserialize(s)
	require.NoError(t, err)

	got := v.(*Record)
	self, _ := got.Get("self")
	require.Same(t, got, self)

	l, _ := got.Get("list")
	gotList := l.(*List)
	require.Same(t, got, gotList.Items[0])
	require.Same(t, gotList, gotList.Items[1])
}

func TestRoundTrip_Primitives(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "undefined", in: Undefined, want: Undefined},
		{name: "true", in: true, want: true},
		{name: "false", in: false, want: false},
		{name: "small int", in: 7, want: int64(7)},
		{name: "negative int", in: -300, want: int64(-300)},
		{name: "integral float", in: 1e15, want: int64(1e15)},
		{name: "fraction", in: -2.5, want: -2.5},
		{name: "empty string", in: "", want: ""},
		{name: "unicode string", in: "héllo, <world> & \"quotes\"", want: "héllo, <world> & \"quotes\""},
		{name: "time", in: time.UnixMilli(1700000000123), want: &Date{UnixMilli: 1700000000123}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Serialize(tt.in)
			require.NoError(t, err)
			require.True(t, CanDeserialize(s))

			v, err := Deserialize(s)
			require.NoError(t, err)
			require.Equal(t, tt.want, v)
		})
	}
}

func TestSerialize_PrintableOutput(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	in := NewList(
		BufferOf(data),
		BufferOf([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0, 1}),
		int64(-1)<<62, uint64(1)<<63, 3.25, -1e300,
		&Date{UnixMilli: -5}, NewSet(int64(1), int64(2)), NewMap().Set(int64(1), nil),
	)

	for _, opts := range [][]CallOption{nil, {WithCompression()}} {
		s, err := Serialize(in, opts...)
		require.NoError(t, err)

		for i := 0; i < len(s); i++ {
			require.True(t, format.IsDigit(s[i]) || s[i] == format.Separator, "byte %q at %d", s[i], i)
		}
	}
}

func TestCanDeserialize(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{in: "", want: false},
		{in: "$", want: false},
		{in: "$s", want: false},
		{in: "$sp", want: false},
		{in: "$sp#", want: false},
		{in: "$sp#,", want: true},
		{in: "$sp#,0", want: true},
		{in: "$lz#,", want: true},
		{in: "$lz#", want: false},
		{in: "$sp$,0", want: false},
		{in: "$xx#,0", want: false},
		{in: " $sp#,0", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, CanDeserialize(tt.in))
		})
	}
}

func TestDeserialize_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{name: "empty", in: "", want: errs.ErrUnrecognizedFormat},
		{name: "wrong magic", in: "hello", want: errs.ErrUnrecognizedFormat},
		{name: "wrong version", in: "$sp$,0", want: errs.ErrUnrecognizedFormat},
		{name: "no payload", in: "$sp#,", want: errs.ErrMalformedPayload},
		{name: "unknown tag", in: "$sp#,~", want: errs.ErrMalformedPayload},
		{name: "dangling back-reference", in: "$sp#,a#@$,", want: errs.ErrMalformedPayload},
		{name: "truncated string", in: "$sp#,s%ab", want: errs.ErrMalformedPayload},
		{name: "trailing data", in: "$sp#,00", want: errs.ErrMalformedPayload},
		{name: "compressed non-record", in: "$lz#,0", want: errs.ErrMalformedPayload},
		{
			name: "buffer declaring 4GiB",
			in:   "$sp#,b!" + encoding.EncodeNumeral(math.MaxUint32) + "!,",
			want: errs.ErrMalformedPayload,
		},
		{
			name: "list of oversized buffers",
			in:   "$sp#,a." + strings.Repeat("b!"+encoding.EncodeNumeral(math.MaxUint32)+"!,", 10),
			want: errs.ErrMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Deserialize(tt.in)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, v)
		})
	}
}

func TestDeserialize_TruncatedInputs(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(rng.IntN(256))
	}
	in := NewRecord().
		Set("list", NewList(1, "two", 3.5, NewSet("a", "b"))).
		Set("buf", BufferOf(data)).
		Set("text", strings.Repeat("abc", 200))

	for _, opts := range [][]CallOption{nil, {WithCompression()}} {
		s, err := Serialize(in, opts...)
		require.NoError(t, err)

		for n := range len(s) {
			_, err := Deserialize(s[:n])
			require.Error(t, err, "prefix of length %d", n)
			require.True(t, errors.Is(err, errs.ErrMalformedPayload) || errors.Is(err, errs.ErrUnrecognizedFormat))
		}
	}
}

func TestSerialize_UnsupportedType(t *testing.T) {
	_, err := Serialize(NewList(make(chan int)))
	require.ErrorIs(t, err, errs.ErrUnsupportedType)

	_, err = Serialize(func() {}, WithCompression())
	require.ErrorIs(t, err, errs.ErrUnsupportedType)
}
