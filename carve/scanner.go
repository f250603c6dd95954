package carve

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

// Walks a source looking for PNG signatures, but only at every Stride bytes
// (counted from the start, or from wherever the last image ended). Signatures
// anywhere else are missed; that's the price of not checking every byte.
type Scanner struct {
	Stride    int64 // Distance between probes. 0 means DefaultStride
	BlockSize int   // Copy block size for the carver. 0 means DefaultBlockSize
	KeepGoing bool  // Record image errors and keep scanning instead of failing
	Sink      ImageSink

	counter atomic.Uint32
}

type ScanResult struct {
	Images      []*CarvedImage
	Probes      int   // How many full probe windows were read
	FinalOffset int64 // Where the cursor ended up (may be past the end after a skip)
}

func NewScanner(sink ImageSink) *Scanner {
	return &Scanner{
		Stride:    DefaultStride,
		BlockSize: DefaultBlockSize,
		Sink:      sink,
	}
}

// How many images have been detected so far (also the next image id)
func (s *Scanner) Detected() uint32 {
	return s.counter.Load()
}

func (s *Scanner) stride() (int64, error) {
	if s.Stride == 0 {
		return DefaultStride, nil
	}
	if s.Stride < int64(SignatureLength) {
		return 0, fmt.Errorf("Stride %d too small, must be at least %d", s.Stride, SignatureLength)
	}
	return s.Stride, nil
}

func (s *Scanner) sink() ImageSink {
	if s.Sink == nil {
		return &DirectorySink{Dir: DefaultOutputDir}
	}
	return s.Sink
}

// Scan the whole source from its current position. Each signature found gets
// carved into a new image from the sink. Any IO failure stops everything; image
// errors (malformed or truncated chunks) do too, unless KeepGoing is set.
func (s *Scanner) Scan(src io.ReadSeeker) (*ScanResult, error) {
	result := &ScanResult{Images: make([]*CarvedImage, 0)}
	stride, err := s.stride()
	if err != nil {
		return result, err
	}
	position, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return result, fmt.Errorf("get starting offset: %w", err)
	}

	var window [SignatureLength]byte
	for {
		n, err := io.ReadFull(src, window[:])
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// A partial window can't be a signature, so this is the end either way
			position += int64(n)
			break
		} else if err != nil {
			return result, fmt.Errorf("read probe at offset %d: %w", position, err)
		}
		result.Probes++

		if string(window[:]) != PngSignature {
			position, err = src.Seek(stride-int64(SignatureLength), io.SeekCurrent)
			if err != nil {
				return result, fmt.Errorf("skip after probe: %w", err)
			}
			continue
		}

		image, err := s.extract(src, position)
		if image != nil {
			result.Images = append(result.Images, image)
			position = image.Offset + image.SourceLength
		}
		if err != nil {
			result.FinalOffset = position
			return result, err
		}
	}

	result.FinalOffset = position
	return result, nil
}

// Carve one image whose signature starts at offset. The sink output is always
// closed before returning; partial output stays wherever the sink put it.
func (s *Scanner) extract(src io.ReadSeeker, offset int64) (*CarvedImage, error) {
	id := s.counter.Add(1) - 1
	log.Printf("Detected PNG signature at offset %d (image %s)\n", offset, ImageFilename(id))

	out, name, err := s.sink().Create(id)
	if err != nil {
		return nil, fmt.Errorf("create output %s: %w", name, err)
	}

	image, err := CarveImage(src, out, offset, s.BlockSize)
	image.ID = id
	image.Filename = name
	closeErr := out.Close()

	if err != nil {
		if s.KeepGoing && IsImageError(err) {
			log.Printf("Abandoned image %s: %s\n", ImageFilename(id), err)
			image.Error = err.Error()
			err = nil
		} else {
			err = fmt.Errorf("carve image %s at offset %d: %w", ImageFilename(id), offset, err)
		}
	}
	if err == nil && closeErr != nil {
		err = fmt.Errorf("close output %s: %w", name, closeErr)
	}
	if err == nil && image.Error == "" {
		log.Printf("Carved %s: %d chunks, %d bytes, complete: %v\n",
			ImageFilename(id), len(image.Chunks), image.Written, image.Complete)
	}
	return image, err
}

// Open the file at path and scan all of it
func (s *Scanner) ScanFile(path string) (*ScanResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.Scan(f)
}
