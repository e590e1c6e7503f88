package serial

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/strpack/encoding"
	"github.com/arloliu/strpack/errs"
	"github.com/arloliu/strpack/format"
	"github.com/arloliu/strpack/value"
)

func roundTrip(t *testing.T, v any) any {
	t.Helper()

	s, err := Encode(v)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(s, format.PlainPrefix))

	out, err := Decode(s)
	require.NoError(t, err)

	return out
}

func TestEncode_Exact(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{name: "zero", in: 0, want: "0"},
		{name: "negative zero", in: math.Copysign(0, -1), want: "0"},
		{name: "null", in: nil, want: "n"},
		{name: "undefined", in: value.Undefined, want: "u"},
		{name: "true", in: true, want: "t"},
		{name: "false", in: false, want: "f"},
		{name: "one", in: 1, want: "i#"},
		{name: "minus one", in: -1, want: "j#"},
		{name: "largest short", in: 87, want: "i~"},
		{name: "smallest long", in: 88, want: "I!#,"},
		{name: "negative long", in: int64(-88), want: "J!#,"},
		{name: "integral float", in: 3.0, want: "i%"},
		{name: "fraction", in: 1.5, want: "d%,1.5"},
		{name: "empty string", in: "", want: "s!"},
		{name: "short string", in: "ab", want: "s$ab"},
		{name: "record", in: value.NewRecord().Set("a", 1), want: "o#s#ai#"},
		{name: "list", in: value.NewList(true, nil), want: "a$tn"},
		{name: "set", in: value.NewSet("x"), want: "e#s#x"},
		{name: "map", in: value.NewMap().Set(1, "y"), want: "m#i#s#y"},
		{name: "regexp", in: value.NewRegExp("a+", "g"), want: "rs$a+s#g"},
		{name: "date", in: &value.Date{UnixMilli: 5}, want: "Di("},
		{name: "buffer", in: value.NewBuffer(16), want: "b!4,!,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Encode(tt.in)
			require.NoError(t, err)
			require.Equal(t, format.PlainPrefix+tt.want, s)
		})
	}
}

func TestRoundTrip_Primitives(t *testing.T) {
	long := strings.Repeat("é", 500)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "zero", in: 0, want: int64(0)},
		{name: "null", in: nil, want: nil},
		{name: "undefined", in: value.Undefined, want: value.Undefined},
		{name: "true", in: true, want: true},
		{name: "int8", in: int8(-100), want: int64(-100)},
		{name: "uint16", in: uint16(65535), want: int64(65535)},
		{name: "max int64", in: int64(math.MaxInt64), want: int64(math.MaxInt64)},
		{name: "min int64", in: int64(math.MinInt64), want: int64(math.MinInt64)},
		{name: "max uint64", in: uint64(math.MaxUint64), want: uint64(math.MaxUint64)},
		{name: "float", in: -2.25, want: -2.25},
		{name: "float32", in: float32(0.5), want: 0.5},
		{name: "tiny", in: 1.5e-300, want: 1.5e-300},
		{name: "huge", in: 1e300, want: 1e300},
		{name: "past safe integer", in: float64(1 << 60), want: float64(1 << 60)},
		{name: "infinity", in: math.Inf(-1), want: math.Inf(-1)},
		{name: "string 87", in: strings.Repeat("x", 87), want: strings.Repeat("x", 87)},
		{name: "string 88", in: strings.Repeat("x", 88), want: strings.Repeat("x", 88)},
		{name: "multibyte", in: long, want: long},
		{name: "separator and quotes", in: `a,b"c<d>&\`, want: `a,b"c<d>&\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, roundTrip(t, tt.in))
		})
	}
}

func TestRoundTrip_NaN(t *testing.T) {
	out := roundTrip(t, math.NaN())
	f, ok := out.(float64)
	require.True(t, ok)
	require.True(t, math.IsNaN(f))
}

func TestRoundTrip_Composites(t *testing.T) {
	buf := value.BufferOf([]byte{1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0})
	view, err := value.NewView(value.Uint16, buf, 2, 3)
	require.NoError(t, err)

	in := value.NewRecord().
		Set("name", "strpack").
		Set("count", int64(3)).
		Set("ratio", 0.85).
		Set("tags", value.NewList("a", "b", value.NewList(int64(1), int64(-200)))).
		Set("pattern", value.NewRegExp(`^\d+$`, "im")).
		Set("when", &value.Date{UnixMilli: 1700000000123}).
		Set("raw", buf).
		Set("view", view).
		Set("set", value.NewSet(int64(1), "two", nil)).
		Set("empty", value.NewRecord()).
		Set("none", value.NewList())

	out := roundTrip(t, in)
	require.Equal(t, in, out)

	rec := out.(*value.Record)
	raw, _ := rec.Get("raw")
	v, _ := rec.Get("view")
	require.Same(t, raw, v.(*value.View).Buffer, "view and buffer share one decoded buffer")
}

func TestRoundTrip_DeepNesting(t *testing.T) {
	shared := value.NewRecord().Set("leaf", "shared")

	var build func(depth int) any
	build = func(depth int) any {
		if depth == 0 {
			return shared
		}

		return value.NewRecord().
			Set("depth", int64(depth)).
			Set("left", build(depth-1)).
			Set("right", value.NewList(build(depth-1)))
	}

	in := build(6)
	out := roundTrip(t, in)
	require.Equal(t, in, out)

	// Follow two different paths down to the shared leaf.
	var left, right any = out, out
	for range 6 {
		l, _ := left.(*value.Record).Get("left")
		left = l
		r, _ := right.(*value.Record).Get("right")
		right = r.(*value.List).Items[0]
	}
	require.Same(t, left, right)
}

func TestRoundTrip_SharedReference(t *testing.T) {
	obj := value.NewRecord().Set("a", 1)
	in := value.NewList(obj, obj)

	s, err := Encode(in)
	require.NoError(t, err)
	require.Equal(t, format.PlainPrefix+"a$o#s#ai#@#,", s)

	out, err := Decode(s)
	require.NoError(t, err)

	items := out.(*value.List).Items
	require.Len(t, items, 2)
	require.Same(t, items[0], items[1])
}

func TestRoundTrip_Cycles(t *testing.T) {
	t.Run("record", func(t *testing.T) {
		r := value.NewRecord()
		r.Set("self", r)

		out := roundTrip(t, r).(*value.Record)
		self, ok := out.Get("self")
		require.True(t, ok)
		require.Same(t, out, self)
	})

	t.Run("list", func(t *testing.T) {
		l := value.NewList(int64(1))
		l.Append(l)

		out := roundTrip(t, l).(*value.List)
		require.Len(t, out.Items, 2)
		require.Same(t, out, out.Items[1])
	})

	t.Run("set", func(t *testing.T) {
		s := value.NewSet()
		s.Add(s)

		out := roundTrip(t, s).(*value.Set)
		require.True(t, out.Has(out))
	})

	t.Run("map", func(t *testing.T) {
		m := value.NewMap()
		m.Set(m, "self-key")

		out := roundTrip(t, m).(*value.Map)
		v, ok := out.Get(out)
		require.True(t, ok)
		require.Equal(t, "self-key", v)
	})

	t.Run("mutual", func(t *testing.T) {
		a := value.NewRecord()
		b := value.NewRecord().Set("a", a)
		a.Set("b", b)

		out := roundTrip(t, value.NewList(a, b)).(*value.List)
		outA := out.Items[0].(*value.Record)
		outB := out.Items[1].(*value.Record)
		gotB, _ := outA.Get("b")
		gotA, _ := outB.Get("a")
		require.Same(t, outB, gotB)
		require.Same(t, outA, gotA)
	})
}

func TestRoundTrip_SetAndMapOfComposites(t *testing.T) {
	k1 := value.NewRecord().Set("id", int64(1))
	k2 := value.NewList("x")

	in := value.NewMap().Set(k1, k2).Set(k2, k1).Set("plain", int64(7))

	out := roundTrip(t, in).(*value.Map)
	require.Equal(t, 3, out.Len())

	keys := out.Keys()
	outK1 := keys[0].(*value.Record)
	outK2 := keys[1].(*value.List)
	require.Equal(t, k1, outK1)
	require.Equal(t, k2, outK2)

	v, _ := out.Get(outK1)
	require.Same(t, outK2, v)
	v, _ = out.Get(outK2)
	require.Same(t, outK1, v)
	v, _ = out.Get("plain")
	require.Equal(t, int64(7), v)
}

type label string

type level int

func TestEncode_NativeValues(t *testing.T) {
	shared := map[string]any{"k": "v"}
	when := time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.UTC)

	in := []any{
		map[string]any{"b": 1, "a": []any{"x"}},
		shared,
		shared,
		[]byte{1, 2, 3},
		when,
		[]string{"p", "q"},
		[2]int{4, 5},
		map[string]int{"n": 9},
		label("named"),
		level(-3),
		[]any{},
	}

	out := roundTrip(t, in).(*value.List)
	require.Len(t, out.Items, len(in))

	first := out.Items[0].(*value.Record)
	require.Equal(t, []string{"a", "b"}, first.Keys(), "native map keys are sorted")
	a, _ := first.Get("a")
	require.Equal(t, value.NewList("x"), a)

	require.Same(t, out.Items[1], out.Items[2])
	require.Equal(t, []byte{1, 2, 3}, out.Items[3].(*value.Buffer).Data)
	require.Equal(t, when.UnixMilli(), out.Items[4].(*value.Date).UnixMilli)
	require.Equal(t, value.NewList("p", "q"), out.Items[5])
	require.Equal(t, value.NewList(int64(4), int64(5)), out.Items[6])
	require.Equal(t, value.NewRecord().Set("n", int64(9)), out.Items[7])
	require.Equal(t, "named", out.Items[8])
	require.Equal(t, int64(-3), out.Items[9])
	require.Equal(t, &value.List{}, out.Items[10])
}

func TestEncode_FreshIDsKeepNumbering(t *testing.T) {
	rec := value.NewRecord()
	in := value.NewList([]byte{1}, time.UnixMilli(0), rec, rec)

	s, err := Encode(in)
	require.NoError(t, err)
	// list=0, bytes=1, time=2, rec=3
	require.True(t, strings.HasSuffix(s, "@"+encoding.EncodeNumeral(3)), s)

	out, err := Decode(s)
	require.NoError(t, err)
	items := out.(*value.List).Items
	require.Same(t, items[2], items[3])
}

func TestEncode_TypedNilPointers(t *testing.T) {
	var rec *value.Record
	var list *value.List
	var m map[string]any
	var s []any

	out := roundTrip(t, value.NewList(rec, list, m, s))
	require.Equal(t, value.NewList(nil, nil, nil, nil), out)
}

func TestEncode_Unsupported(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		wantErr error
	}{
		{name: "channel", in: make(chan int), wantErr: errs.ErrUnsupportedType},
		{name: "func", in: func() {}, wantErr: errs.ErrUnsupportedType},
		{name: "struct", in: struct{ A int }{1}, wantErr: errs.ErrUnsupportedType},
		{name: "nested struct", in: value.NewList(struct{}{}), wantErr: errs.ErrUnsupportedType},
		{name: "int keyed native map", in: map[int]string{1: "a"}, wantErr: errs.ErrUnsupportedType},
		{name: "invalid view", in: &value.View{Kind: value.Int32, Buffer: value.NewBuffer(4), Offset: 0, Length: 2}, wantErr: errs.ErrInvalidView},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.in)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEncode_TooDeep(t *testing.T) {
	var v any = int64(1)
	for range MaxDepth + 1 {
		v = value.NewList(v)
	}

	_, err := Encode(v)
	require.ErrorIs(t, err, errs.ErrUnsupportedType)
}

func TestDecode_Malformed(t *testing.T) {
	p := format.PlainPrefix

	tests := []struct {
		name    string
		in      string
		wantErr error
	}{
		{name: "empty", in: "", wantErr: errs.ErrUnrecognizedFormat},
		{name: "foreign", in: `{"a":1}`, wantErr: errs.ErrUnrecognizedFormat},
		{name: "other version", in: "$sp$,0", wantErr: errs.ErrUnrecognizedFormat},
		{name: "compressed prefix", in: format.CompressedPrefix + "0", wantErr: errs.ErrUnrecognizedFormat},
		{name: "no payload", in: p, wantErr: errs.ErrMalformedPayload},
		{name: "unknown tag", in: p + "Z", wantErr: errs.ErrMalformedPayload},
		{name: "dangling back-reference", in: p + "@!,", wantErr: errs.ErrMalformedPayload},
		{name: "forward back-reference", in: p + "a#@#,", wantErr: errs.ErrMalformedPayload},
		{name: "truncated string", in: p + "s%ab", wantErr: errs.ErrMalformedPayload},
		{name: "missing list item", in: p + "a$0", wantErr: errs.ErrMalformedPayload},
		{name: "trailing bytes", in: p + "00", wantErr: errs.ErrMalformedPayload},
		{name: "oversize count", in: p + "A~~~~~~,", wantErr: errs.ErrMalformedPayload},
		{name: "record key not string", in: p + "o#i#i#", wantErr: errs.ErrMalformedPayload},
		{name: "date of string", in: p + "Ds!", wantErr: errs.ErrMalformedPayload},
		{name: "regexp of number", in: p + "r0s!", wantErr: errs.ErrMalformedPayload},
		{name: "bad float", in: p + "d$,xx", wantErr: errs.ErrMalformedPayload},
		{name: "view past buffer", in: p + "2!,%,b!$,!,", wantErr: errs.ErrInvalidView},
		{name: "view over non-buffer", in: p + "2!,!,0", wantErr: errs.ErrMalformedPayload},
		{name: "bad digit", in: p + "i ", wantErr: errs.ErrMalformedPayload},
		{name: "too deep", in: p + strings.Repeat("a#", MaxDepth+1) + "0", wantErr: errs.ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decode(tt.in)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, v)
		})
	}
}

func TestDecode_ViewPastBufferIsMalformed(t *testing.T) {
	_, err := Decode(format.PlainPrefix + "2!,%,b!$,!,")
	require.ErrorIs(t, err, errs.ErrMalformedPayload)
	require.ErrorIs(t, err, errs.ErrInvalidView)
}

func TestDecode_EveryTruncationFails(t *testing.T) {
	buf := value.BufferOf([]byte{9, 0, 0, 0, 1, 2})
	view, err := value.NewView(value.Uint8, buf, 1, 4)
	require.NoError(t, err)

	shared := value.NewRecord().Set("k", "v")
	in := value.NewList(
		shared, shared, int64(123456), -0.5, "text", value.NewSet(int64(1)),
		value.NewMap().Set("m", true), value.NewRegExp("x", ""), &value.Date{UnixMilli: -1},
		view, value.Undefined,
	)

	s, err := Encode(in)
	require.NoError(t, err)

	for n := 0; n < len(s); n++ {
		require.NotPanics(t, func() {
			v, err := Decode(s[:n])
			require.Error(t, err, "prefix of length %d", n)
			require.Nil(t, v)
		})
	}
}

func TestEncodePrefixed(t *testing.T) {
	s, err := EncodePrefixed(format.CompressedPrefix, int64(1))
	require.NoError(t, err)
	require.Equal(t, format.CompressedPrefix+"i#", s)

	v, err := DecodePrefixed(format.CompressedPrefix, s)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)

	_, err = Decode(s)
	require.ErrorIs(t, err, errs.ErrUnrecognizedFormat)
}

func TestDecode_BufferSizeLimit(t *testing.T) {
	// 15 bytes declaring a 4GiB buffer.
	huge := format.PlainPrefix + "b!" + encoding.EncodeNumeral(math.MaxUint32) + "!,"
	v, err := Decode(huge)
	require.ErrorIs(t, err, errs.ErrMalformedPayload)
	require.Nil(t, v)

	items := make([]any, 10)
	for i := range items {
		items[i] = value.BufferOf(make([]byte, 100))
	}
	s, err := Encode(value.NewList(items...))
	require.NoError(t, err)

	tests := []struct {
		name    string
		limit   int
		wantErr bool
	}{
		{name: "total above limit", limit: 999, wantErr: true},
		{name: "total at limit", limit: 1000},
		{name: "default limit", limit: DefaultMaxDecodedSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DecodeWithLimit(format.PlainPrefix, s, tt.limit)
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrMalformedPayload)
				require.Nil(t, v)

				return
			}
			require.NoError(t, err)
			require.Len(t, v.(*value.List).Items, 10)
		})
	}
}
