// Package strpack converts structured values into a single printable string
// and back.
//
// Supported values are nil, Undefined, booleans, numbers, strings, ordered
// records, lists, sets, maps, byte buffers and typed views over them, dates
// and regular-expression patterns. Shared sub-values keep their identity
// through a round trip and cycles are allowed.
//
// # Wire Format
//
// A serialized string starts with a magic and version prefix, "$sp#," for
// the plain form and "$lz#," for the compressed form, followed by one tagged
// payload drawn from an 88 character printable alphabet. The output contains
// no quotes, ampersands, commas other than separators, angle brackets or
// backslashes, so it can be stored in text columns and markup attributes
// without escaping.
//
// # Basic Usage
//
//	rec := strpack.NewRecord().Set("name", "disk").Set("sizes", strpack.NewList(int64(1), int64(2)))
//	s, err := strpack.Serialize(rec)
//	if err != nil {
//	    return err
//	}
//
//	v, err := strpack.Deserialize(s)
//	back := v.(*strpack.Record)
//
// # Compression
//
// WithCompression compresses the plain form with an LZ4 block compressor and
// keeps the result only when it is at most 85% of the plain length:
//
//	s, err := strpack.Serialize(v, strpack.WithCompression())
//
// # Background Execution
//
// The async operations return a Future. With InBackground the work runs on
// a bounded pool of goroutines that start on demand and stop after being
// idle for the configured TTL:
//
//	f := strpack.SerializeAsync(v, strpack.InBackground(), strpack.WithCompression())
//	s, err := f.Wait(ctx)
//
// Package-level functions use a shared default Codec. Create a Codec with
// New for separate configuration or logging.
package strpack

import (
	"sync"

	"github.com/arloliu/strpack/value"
)

// Value types accepted and produced by the codec.
type (
	Record   = value.Record
	List     = value.List
	Set      = value.Set
	Map      = value.Map
	RegExp   = value.RegExp
	Date     = value.Date
	Buffer   = value.Buffer
	View     = value.View
	ViewKind = value.ViewKind
)

// Undefined is the value distinct from nil that stands for an absent value.
var Undefined = value.Undefined

// Constructors of the value types.
var (
	NewRecord = value.NewRecord
	NewList   = value.NewList
	NewSet    = value.NewSet
	NewMap    = value.NewMap
	NewRegExp = value.NewRegExp
	NewDate   = value.NewDate
	NewBuffer = value.NewBuffer
	BufferOf  = value.BufferOf
	NewView   = value.NewView
)

var (
	defaultOnce  sync.Once
	defaultCodec *Codec
)

// Default returns the shared Codec used by the package-level functions.
func Default() *Codec {
	defaultOnce.Do(func() {
		// The default options are always valid.
		defaultCodec, _ = New()
	})

	return defaultCodec
}

// Serialize encodes v with the default Codec.
func Serialize(v any, opts ...CallOption) (string, error) {
	return Default().Serialize(v, opts...)
}

// Deserialize decodes s with the default Codec.
func Deserialize(s string) (any, error) {
	return Default().Deserialize(s)
}

// SerializeAsync encodes v with the default Codec.
func SerializeAsync(v any, opts ...CallOption) *Future[string] {
	return Default().SerializeAsync(v, opts...)
}

// DeserializeAsync decodes s with the default Codec.
func DeserializeAsync(s string, opts ...CallOption) *Future[any] {
	return Default().DeserializeAsync(s, opts...)
}

// GetConfig returns the configuration of the default Codec.
func GetConfig() Config {
	return Default().GetConfig()
}

// SetConfig updates the configuration of the default Codec. See
// Codec.SetConfig.
func SetConfig(partial map[string]any) {
	Default().SetConfig(partial)
}
