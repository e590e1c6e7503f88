package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/strpack/errs"
)

// Block format constants. The layout is the standard LZ4 block format, so the
// output decodes with any LZ4 block decoder.
const (
	blockHashLog       = 16
	blockHashTableSize = 1 << blockHashLog
	blockHashPrime     = 2654435761
	blockMinMatch      = 4
	// blockMFLimit is the distance from the end of input inside which no match may start.
	blockMFLimit = 12
	// blockLastLiterals is the number of trailing bytes always emitted as literals.
	blockLastLiterals = 5
	blockMaxOffset    = 65535
	blockSkipShift    = 6
	blockMaxInputSize = 0x7E000000

	// blockMaxDecodeSize bounds the adaptive buffer of Decompress.
	blockMaxDecodeSize = 128 * 1024 * 1024
)

// errShortBuffer reports that the destination is too small for the decoded
// block. Decompress grows its buffer on it; DecompressSize treats it as corruption.
var errShortBuffer = errors.New("block: destination too short")

// BlockCompressBound returns the largest compressed size of an n byte input.
func BlockCompressBound(n int) int {
	return n + n/255 + 16
}

// BlockCodec compresses byte sequences into LZ4 blocks.
//
// A BlockCodec owns a 64K entry position table that is reused across calls,
// so it must not be used by more than one goroutine at a time. Use
// BlockCompressor when a shareable Codec is needed.
type BlockCodec struct {
	// table holds position+1 of the last occurrence of each hash; 0 means empty.
	table []int32
}

var _ Codec = (*BlockCodec)(nil)

// NewBlockCodec creates a block codec with its own position table.
func NewBlockCodec() *BlockCodec {
	return &BlockCodec{table: make([]int32, blockHashTableSize)}
}

func blockHash(seq uint32) uint32 {
	return (seq * blockHashPrime) >> (32 - blockHashLog)
}

func load32(b []byte, i int) uint32 {
	_ = b[i+3]
	return uint32(b[i]) | uint32(b[i+1])<<8 | uint32(b[i+2])<<16 | uint32(b[i+3])<<24
}

// Compress encodes data as a single LZ4 block.
//
// An empty input produces the one byte block 0x00. Matches are found through
// the position table and extended forward, and backward into pending
// literals. The literal scan step grows with the length of the current
// literal run, which keeps incompressible input fast.
//
// Parameters:
//   - data: Input bytes (not modified)
//
// Returns:
//   - []byte: Newly allocated block
//   - error: Input larger than the block format allows
func (c *BlockCodec) Compress(data []byte) ([]byte, error) {
	n := len(data)
	if n == 0 {
		return []byte{0x00}, nil
	}
	if n > blockMaxInputSize {
		return nil, fmt.Errorf("block: input too large (%d bytes, max %d)", n, blockMaxInputSize)
	}

	clear(c.table)

	dst := make([]byte, 0, BlockCompressBound(n))
	anchor := 0
	mfLimit := n - blockMFLimit
	matchLimit := n - blockLastLiterals

	pos := 0
	for pos < mfLimit {
		seq := load32(data, pos)
		h := blockHash(seq)
		ref := int(c.table[h]) - 1
		c.table[h] = int32(pos + 1) //nolint:gosec

		if ref < 0 || pos-ref > blockMaxOffset || load32(data, ref) != seq {
			pos += 1 + (pos-anchor)>>blockSkipShift
			continue
		}

		for pos > anchor && ref > 0 && data[pos-1] == data[ref-1] {
			pos--
			ref--
		}

		matchLen := blockMinMatch
		for pos+matchLen < matchLimit && data[pos+matchLen] == data[ref+matchLen] {
			matchLen++
		}

		dst = appendSequence(dst, data[anchor:pos], pos-ref, matchLen)
		pos += matchLen
		anchor = pos

		// Index the position just before the next scan point; it often starts
		// the following match.
		if pos-2 < mfLimit {
			c.table[blockHash(load32(data, pos-2))] = int32(pos - 1) //nolint:gosec
		}
	}

	return appendLastLiterals(dst, data[anchor:]), nil
}

func appendLength(dst []byte, n int) []byte {
	for n >= 255 {
		dst = append(dst, 255)
		n -= 255
	}

	return append(dst, byte(n))
}

func appendSequence(dst, literals []byte, offset, matchLen int) []byte {
	litLen := len(literals)
	ml := matchLen - blockMinMatch

	token := byte(min(litLen, 15))<<4 | byte(min(ml, 15))
	dst = append(dst, token)
	if litLen >= 15 {
		dst = appendLength(dst, litLen-15)
	}
	dst = append(dst, literals...)
	dst = append(dst, byte(offset), byte(offset>>8))
	if ml >= 15 {
		dst = appendLength(dst, ml-15)
	}

	return dst
}

func appendLastLiterals(dst, literals []byte) []byte {
	litLen := len(literals)
	dst = append(dst, byte(min(litLen, 15))<<4)
	if litLen >= 15 {
		dst = appendLength(dst, litLen-15)
	}

	return append(dst, literals...)
}

// Decompress decodes a block whose decoded size is unknown.
//
// It uses the same adaptive sizing as LZ4Compressor.Decompress: start at four
// times the block size and double on a short buffer, up to 128MB.
//
// Returns:
//   - []byte: Decoded bytes
//   - error: errs.ErrInvalidOffset or errs.ErrCorruptBlock
func (c *BlockCodec) Decompress(data []byte) ([]byte, error) {
	return decompressBlock(data)
}

// DecompressSize decodes a block that must expand to exactly size bytes.
func (c *BlockCodec) DecompressSize(data []byte, size int) ([]byte, error) {
	return decompressBlockSize(data, size)
}

func decompressBlock(data []byte) ([]byte, error) {
	bufSize := max(len(data)*4, 64)
	for {
		buf := make([]byte, bufSize)
		n, err := decodeBlock(buf, data)
		switch {
		case err == nil:
			return buf[:n], nil
		case !errors.Is(err, errShortBuffer):
			return nil, err
		case bufSize >= blockMaxDecodeSize:
			return nil, fmt.Errorf("%w: decoded size exceeds %d bytes", errs.ErrCorruptBlock, blockMaxDecodeSize)
		}
		bufSize = min(bufSize*2, blockMaxDecodeSize)
	}
}

func decompressBlockSize(data []byte, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", errs.ErrCorruptBlock, size)
	}

	buf := make([]byte, size)
	n, err := decodeBlock(buf, data)
	if errors.Is(err, errShortBuffer) {
		return nil, fmt.Errorf("%w: decodes past %d bytes", errs.ErrCorruptBlock, size)
	}
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, fmt.Errorf("%w: decoded %d bytes, want %d", errs.ErrCorruptBlock, n, size)
	}

	return buf, nil
}

// readLength adds the 255-continued length extension starting at src[si] to n.
func readLength(src []byte, si, n int) (int, int, error) {
	for {
		if si >= len(src) {
			return 0, 0, fmt.Errorf("%w: truncated length at %d", errs.ErrCorruptBlock, si)
		}
		b := src[si]
		si++
		n += int(b)
		if b != 255 {
			return n, si, nil
		}
	}
}

// decodeBlock decodes src into dst and returns the number of bytes written.
func decodeBlock(dst, src []byte) (int, error) {
	si, di := 0, 0
	for {
		if si >= len(src) {
			return 0, fmt.Errorf("%w: truncated block at %d", errs.ErrCorruptBlock, si)
		}
		token := src[si]
		si++

		litLen := int(token >> 4)
		if litLen == 15 {
			var err error
			if litLen, si, err = readLength(src, si, litLen); err != nil {
				return 0, err
			}
		}
		if litLen > len(src)-si {
			return 0, fmt.Errorf("%w: literal run of %d exceeds input", errs.ErrCorruptBlock, litLen)
		}
		if litLen > len(dst)-di {
			return 0, errShortBuffer
		}
		copy(dst[di:], src[si:si+litLen])
		si += litLen
		di += litLen

		if si == len(src) {
			return di, nil
		}

		if si+2 > len(src) {
			return 0, fmt.Errorf("%w: truncated offset at %d", errs.ErrCorruptBlock, si)
		}
		offset := int(src[si]) | int(src[si+1])<<8
		si += 2
		if offset == 0 || offset > di {
			return 0, fmt.Errorf("%w: offset %d at output %d", errs.ErrInvalidOffset, offset, di)
		}

		matchLen := int(token & 0x0F)
		if matchLen == 15 {
			var err error
			if matchLen, si, err = readLength(src, si, matchLen); err != nil {
				return 0, err
			}
		}
		matchLen += blockMinMatch
		if matchLen > len(dst)-di {
			return 0, errShortBuffer
		}

		ref := di - offset
		if offset >= matchLen {
			copy(dst[di:di+matchLen], dst[ref:ref+matchLen])
		} else {
			for i := range matchLen {
				dst[di+i] = dst[ref+i]
			}
		}
		di += matchLen
	}
}

// blockCodecPool pools BlockCodec instances so their position tables are reused.
var blockCodecPool = sync.Pool{
	New: func() any {
		return NewBlockCodec()
	},
}

// AcquireBlockCodec borrows a BlockCodec from the shared pool.
func AcquireBlockCodec() *BlockCodec {
	c, _ := blockCodecPool.Get().(*BlockCodec)
	return c
}

// ReleaseBlockCodec returns c to the shared pool.
func ReleaseBlockCodec(c *BlockCodec) {
	if c != nil {
		blockCodecPool.Put(c)
	}
}

// BlockCompressor is a stateless Codec over pooled BlockCodec instances,
// safe for concurrent use.
type BlockCompressor struct{}

var _ Codec = (*BlockCompressor)(nil)

// NewBlockCompressor creates a new block compressor.
func NewBlockCompressor() BlockCompressor {
	return BlockCompressor{}
}

// Compress compresses data with a pooled BlockCodec.
func (BlockCompressor) Compress(data []byte) ([]byte, error) {
	c := AcquireBlockCodec()
	defer ReleaseBlockCodec(c)

	return c.Compress(data)
}

// Decompress decodes a block of unknown decoded size.
func (BlockCompressor) Decompress(data []byte) ([]byte, error) {
	return decompressBlock(data)
}

// DecompressSize decodes a block that must expand to exactly size bytes.
func (BlockCompressor) DecompressSize(data []byte, size int) ([]byte, error) {
	return decompressBlockSize(data, size)
}
