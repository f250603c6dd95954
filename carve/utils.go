package carve

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

// Round width up to the next multiple of align
func AlignWidth(width uint, align uint) uint {
	return (width + align - 1) / align * align
}

// Filler bytes which can never start a signature (0x89)
func MakePadding(length int) []byte {
	return bytes.Repeat([]byte{0xFF}, length)
}

// Build one full chunk: length, type, payload, crc. The crc here is real,
// even though nothing in carving ever checks it
func MakeChunk(ctype string, payload []byte) []byte {
	result := make([]byte, ChunkHeaderLength, ChunkHeaderLength+len(payload)+ChunkCrcLength)
	binary.BigEndian.PutUint32(result[:4], uint32(len(payload)))
	copy(result[4:8], ctype)
	result = append(result, payload...)
	crc := crc32.ChecksumIEEE(result[4:])
	return binary.BigEndian.AppendUint32(result, crc)
}

// Build a PNG stream from the given chunks (each one from MakeChunk)
func MakePng(chunks ...[]byte) []byte {
	result := []byte(PngSignature)
	for _, c := range chunks {
		result = append(result, c...)
	}
	return result
}

// An IHDR payload for a simple 8 bit grayscale image
func MakeIhdr(width uint32, height uint32) []byte {
	result := make([]byte, IhdrLength)
	binary.BigEndian.PutUint32(result[0:4], width)
	binary.BigEndian.PutUint32(result[4:8], height)
	result[8] = 8 // bit depth; color type, compression, filter, interlace all 0
	return result
}
