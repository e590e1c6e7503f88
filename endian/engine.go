// Package endian provides the byte order engine strpack uses to view byte
// buffers as 32-bit words.
//
// The buffer sub-codec reads and writes words through an EndianEngine so that
// the wire format does not depend on the host byte order:
//
//	engine := endian.GetLittleEndianEngine()
//	word := engine.Uint32(data[i:])
//	out = engine.AppendUint32(out, word)
//
// All functions and methods in this package are safe for concurrent use.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
// It is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine, the wire byte order
// for buffer words and block offsets.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
