package carve

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"log"
)

// Everything we learned while pulling one image out of the source
type CarvedImage struct {
	ID           uint32
	Filename     string       `json:",omitempty"`
	Offset       int64        // Source offset of the signature
	SourceLength int64        // Bytes consumed from the source, signature included
	Written      int64        // Bytes written to the output
	Chunks       []string     // Carried chunk types, in order
	Complete     bool         // Ended on IEND
	Stopped      string       `json:",omitempty"` // Unrecognized type that ended extraction
	Header       *ImageHeader `json:",omitempty"`
	MD5          string       // Of the output bytes
	Error        string       `json:",omitempty"`
}

// Copy one PNG out of src into dst. src must be positioned just after a
// signature (which the caller already consumed); offset is where that signature
// started. Recognized chunks are copied verbatim, CRC and all, until IEND. The
// first unrecognized chunk is skipped in the source and ends the image without
// being written. dst is never closed here.
//
// The returned image is always filled in as far as carving got, even on error.
func CarveImage(src io.ReadSeeker, dst io.Writer, offset int64, blockSize int) (*CarvedImage, error) {
	if blockSize < 1 {
		blockSize = DefaultBlockSize
	}
	result := &CarvedImage{
		Offset: offset,
		Chunks: make([]string, 0),
	}
	hash := md5.New()
	rwep := NewReadWriteErrorPass(src, io.MultiWriter(dst, hash))
	var skipped int64

	defer func() {
		result.SourceLength = int64(SignatureLength) + rwep.BytesRead() + skipped
		result.Written = rwep.BytesWritten()
		result.MD5 = hex.EncodeToString(hash.Sum(nil))
	}()

	rwep.WritePass([]byte(PngSignature))

	buf := make([]byte, blockSize)
	var rawheader [ChunkHeaderLength]byte
	var crc [ChunkCrcLength]byte

	for {
		chunkOffset := offset + int64(SignatureLength) + rwep.BytesRead() + skipped
		got, err := rwep.Read(rawheader[:])
		if err == io.EOF {
			// Source ended right on a chunk boundary. Nothing to complain about,
			// the image just never got its IEND
			log.Printf("Source ended before IEND for image at offset %d\n", offset)
			return result, nil
		} else if err == io.ErrUnexpectedEOF {
			return result, &TruncatedChunkError{Offset: chunkOffset, Missing: int64(ChunkHeaderLength - got)}
		} else if err != nil {
			return result, err
		}

		header, _ := ParseChunkHeader(rawheader[:])
		if !header.ValidType() {
			return result, &MalformedChunkTypeError{Offset: chunkOffset, Type: header.Type}
		}

		class := ClassifyChunk(header.Type)
		if !class.Carried() {
			// Don't copy, just hop over the payload. The CRC is left for the scanner
			result.Stopped = header.TypeString()
			if _, err := src.Seek(int64(header.Length), io.SeekCurrent); err != nil {
				return result, err
			}
			skipped += int64(header.Length)
			return result, nil
		}

		bodyStart := rwep.BytesRead()
		rwep.WritePass(rawheader[:])
		if class == ChunkStructural && header.Length == IhdrLength {
			ihdr := make([]byte, IhdrLength)
			rwep.ReadPass(ihdr)
			rwep.WritePass(ihdr)
			if rwep.IsPass() == nil {
				result.Header, _ = ParseImageHeader(ihdr)
			}
		} else {
			rwep.CopyPass(int64(header.Length), buf)
		}
		rwep.ReadPass(crc[:])
		rwep.WritePass(crc[:])

		if err := rwep.IsPass(); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				expected := int64(header.Length) + ChunkCrcLength
				return result, &TruncatedChunkError{
					Offset:   chunkOffset,
					Type:     header.TypeString(),
					Declared: header.Length,
					Missing:  expected - (rwep.BytesRead() - bodyStart),
				}
			}
			return result, err
		}

		result.Chunks = append(result.Chunks, header.TypeString())
		if class == ChunkTerminal {
			result.Complete = true
			return result, nil
		}
	}
}
