package strpack

import (
	"log/slog"

	"github.com/arloliu/strpack/compress"
	"github.com/arloliu/strpack/format"
	"github.com/arloliu/strpack/internal/clock"
	"github.com/arloliu/strpack/internal/options"
	"github.com/arloliu/strpack/internal/workers"
)

type operation uint8

const (
	opSerialize operation = iota
	opDeserialize
)

// request is a job sent to a worker.
type request struct {
	op       operation
	value    any
	text     string
	compress bool
}

// response is a worker's answer to a request.
type response struct {
	text  string
	value any
}

// Codec serializes and deserializes values and owns the pool of background
// workers used by the async operations.
//
// A Codec is safe for concurrent use. Close it to stop its workers.
type Codec struct {
	logger     *slog.Logger
	pool       *workers.Pool[request, response]
	maxDecoded int
}

// New creates a Codec.
//
// Parameters:
//   - opts: Optional configuration (WithMaxThreadCount, WithThreadTTL,
//     WithMaxDecodedSize, WithLogger, WithClock)
//
// Returns:
//   - *Codec: The codec; no worker starts until the first background call
//   - error: errs.ErrInvalidConfig when an option carries an invalid value
//
// Example:
//
//	codec, err := strpack.New(strpack.WithMaxThreadCount(4))
//	if err != nil {
//	    return err
//	}
//	defer codec.Close()
//
//	s, err := codec.Serialize(v, strpack.WithCompression())
func New(opts ...Option) (*Codec, error) {
	s := &codecSettings{
		config:     DefaultConfig(),
		logger:     slog.New(slog.DiscardHandler),
		clock:      clock.Real{},
		maxDecoded: DefaultMaxDecodedSize,
	}
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}
	if err := s.config.validate(); err != nil {
		return nil, err
	}

	c := &Codec{logger: s.logger, maxDecoded: s.maxDecoded}
	c.pool = workers.New(s.config.pool(), c.workerFactory(), c.runLocal, s.clock, s.logger)

	return c, nil
}

// workerFactory returns the handshake of a new worker. Each worker owns one
// BlockCodec, so no compressor instance is used by two jobs at once.
func (c *Codec) workerFactory() workers.Factory[request, response] {
	return func(workers.Config) (workers.Handler[request, response], error) {
		block := compress.NewBlockCodec()

		return func(req request) (response, error) {
			return c.run(block, req)
		}, nil
	}
}

// runLocal executes a job on the calling goroutine with a pooled BlockCodec.
func (c *Codec) runLocal(req request) (response, error) {
	block := compress.AcquireBlockCodec()
	defer compress.ReleaseBlockCodec(block)

	return c.run(block, req)
}

func (c *Codec) run(block *compress.BlockCodec, req request) (response, error) {
	switch req.op {
	case opSerialize:
		s, err := serialize(block, c.logger, req.value, req.compress)
		return response{text: s}, err
	default:
		v, err := deserialize(block, req.text, c.maxDecoded)
		return response{value: v}, err
	}
}

// Close stops the background workers after they finish their queued jobs.
// Async calls made after Close run on the calling goroutine.
func (c *Codec) Close() {
	c.pool.Close()
}

// Serialize encodes v into a printable string.
//
// With WithCompression the compressed form is returned when it is at most
// CompressionThreshold times the plain length; any compression failure falls
// back to the plain form.
//
// Returns:
//   - string: The serialized value
//   - error: errs.ErrUnsupportedType when v holds a value without a wire
//     representation
func (c *Codec) Serialize(v any, opts ...CallOption) (string, error) {
	s := applyCallOptions(opts)
	resp, err := c.runLocal(request{op: opSerialize, value: v, compress: s.compress})

	return resp.text, err
}

// Deserialize decodes a string produced by Serialize.
//
// Returns:
//   - any: The decoded value
//   - error: errs.ErrUnrecognizedFormat when s does not start with a known
//     prefix, errs.ErrMalformedPayload when its content is corrupt
func (c *Codec) Deserialize(s string) (any, error) {
	resp, err := c.runLocal(request{op: opDeserialize, text: s})

	return resp.value, err
}

// CanDeserialize reports whether s starts with a known prefix. It does not
// decode the content.
func (c *Codec) CanDeserialize(s string) bool {
	return CanDeserialize(s)
}

// SerializeAsync is the asynchronous form of Serialize. With InBackground
// the work runs on a pool worker; otherwise, or when no worker is available,
// it runs before SerializeAsync returns.
func (c *Codec) SerializeAsync(v any, opts ...CallOption) *Future[string] {
	s := applyCallOptions(opts)
	req := request{op: opSerialize, value: v, compress: s.compress}
	if !s.background {
		resp, err := c.runLocal(req)
		return resolved(resp.text, err)
	}

	return awaitResult(c.pool.Submit(req), func(r response) string { return r.text })
}

// DeserializeAsync is the asynchronous form of Deserialize.
func (c *Codec) DeserializeAsync(s string, opts ...CallOption) *Future[any] {
	settings := applyCallOptions(opts)
	req := request{op: opDeserialize, text: s}
	if !settings.background {
		resp, err := c.runLocal(req)
		return resolved(resp.value, err)
	}

	return awaitResult(c.pool.Submit(req), func(r response) any { return r.value })
}

// CanDeserialize reports whether s starts with exactly one of the plain or
// compressed prefixes.
func CanDeserialize(s string) bool {
	return format.IsPlain(s) || format.IsCompressed(s)
}
