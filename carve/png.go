package carve

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	PngSignature      = "\x89PNG\r\n\x1a\n"
	SignatureLength   = len(PngSignature)
	ChunkHeaderLength = 8 // 4 byte big endian length + 4 byte type
	ChunkCrcLength    = 4
	IhdrLength        = 13

	DefaultStride    = 4096 // Probe stride; a miss skips Stride - SignatureLength bytes
	DefaultBlockSize = 4096 // Payload is moved in blocks of at most this size
)

type ChunkClass int

const (
	ChunkUnrecognized ChunkClass = iota
	ChunkStructural
	ChunkPalette
	ChunkData
	ChunkTransparency
	ChunkTerminal
)

var chunkClasses = map[string]ChunkClass{
	"IHDR": ChunkStructural,
	"PLTE": ChunkPalette,
	"IDAT": ChunkData,
	"tRNS": ChunkTransparency,
	"IEND": ChunkTerminal,
}

func (c ChunkClass) String() string {
	switch c {
	case ChunkStructural:
		return "structural"
	case ChunkPalette:
		return "palette"
	case ChunkData:
		return "data"
	case ChunkTransparency:
		return "transparency"
	case ChunkTerminal:
		return "terminal"
	default:
		return "unrecognized"
	}
}

// Whether chunks of this class are copied into the output image
func (c ChunkClass) Carried() bool {
	return c != ChunkUnrecognized
}

// Figure out what kind of chunk this is from the type code alone. Anything we
// don't know about is unrecognized, including perfectly valid ancillary chunks.
func ClassifyChunk(ctype [4]byte) ChunkClass {
	return chunkClasses[string(ctype[:])]
}

// The 8 bytes before every chunk payload
type ChunkHeader struct {
	Length uint32
	Type   [4]byte
}

func (h ChunkHeader) TypeString() string {
	return string(h.Type[:])
}

// Type codes are supposed to be ASCII letters. We only reject anything
// that isn't ASCII at all; odd but ASCII codes are just unrecognized.
func (h ChunkHeader) ValidType() bool {
	for _, b := range h.Type {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// Produce the raw 8 bytes for this header
func (h ChunkHeader) Bytes() []byte {
	result := make([]byte, ChunkHeaderLength)
	binary.BigEndian.PutUint32(result[:4], h.Length)
	copy(result[4:], h.Type[:])
	return result
}

func ParseChunkHeader(data []byte) (ChunkHeader, error) {
	var result ChunkHeader
	if len(data) < ChunkHeaderLength {
		return result, &NotEnoughDataError{Expected: ChunkHeaderLength, Found: len(data)}
	}
	result.Length = binary.BigEndian.Uint32(data[:4])
	copy(result.Type[:], data[4:8])
	return result, nil
}

// Only the fields from IHDR. Parsed purely for reporting, never validated
type ImageHeader struct {
	Width       uint32
	Height      uint32
	BitDepth    uint8
	ColorType   uint8
	Compression uint8
	Filter      uint8
	Interlace   uint8
}

func ParseImageHeader(data []byte) (*ImageHeader, error) {
	if len(data) != IhdrLength {
		return nil, &NotEnoughDataError{Expected: IhdrLength, Found: len(data)}
	}
	return &ImageHeader{
		Width:       binary.BigEndian.Uint32(data[0:4]),
		Height:      binary.BigEndian.Uint32(data[4:8]),
		BitDepth:    data[8],
		ColorType:   data[9],
		Compression: data[10],
		Filter:      data[11],
		Interlace:   data[12],
	}, nil
}

// **********************************
// *            ERRORS              *
// **********************************

type NotEnoughDataError struct {
	Expected int
	Found    int
}

func (m *NotEnoughDataError) Error() string {
	return fmt.Sprintf("Not enough data: expected %d, found %d", m.Expected, m.Found)
}

// A chunk type code with bytes that aren't even ASCII. Probably means the
// signature we found was a coincidence, or the image is corrupt
type MalformedChunkTypeError struct {
	Offset int64 // Source offset of the chunk header
	Type   [4]byte
}

func (m *MalformedChunkTypeError) Error() string {
	return fmt.Sprintf("Malformed chunk type % x at offset %d", m.Type[:], m.Offset)
}

func (m *MalformedChunkTypeError) ImageError() {}

// The source ran out in the middle of a chunk
type TruncatedChunkError struct {
	Offset   int64  // Source offset of the chunk header
	Type     string // May be empty if the header itself was cut short
	Declared uint32
	Missing  int64
}

func (m *TruncatedChunkError) Error() string {
	if m.Type == "" {
		return fmt.Sprintf("Truncated chunk header at offset %d", m.Offset)
	}
	return fmt.Sprintf("Truncated %s chunk at offset %d: declared %d bytes, missing %d",
		m.Type, m.Offset, m.Declared, m.Missing)
}

func (m *TruncatedChunkError) ImageError() {}

type imageError interface {
	error
	ImageError()
}

// Image errors only ruin the current image; anything else (real IO problems)
// should stop the whole scan
func IsImageError(err error) bool {
	var ie imageError
	return errors.As(err, &ie)
}
