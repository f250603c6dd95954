package carve

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"slices"
	"testing"
)

// Run the carver the way the scanner would: signature already consumed
func carveBytes(t *testing.T, data []byte, blocksize int) ([]byte, *CarvedImage, error) {
	if string(data[:SignatureLength]) != PngSignature {
		t.Fatalf("Test data doesn't start with a signature")
	}
	src := bytes.NewReader(data[SignatureLength:])
	var out bytes.Buffer
	image, err := CarveImage(src, &out, 0, blocksize)
	if image == nil {
		t.Fatalf("CarveImage returned no image")
	}
	return out.Bytes(), image, err
}

func TestCarveImage_RoundTrip(t *testing.T) {
	png := basicPng(17, 3, 10000)
	trailing := append(slices.Clone(png), MakePadding(100)...)
	out, image, err := carveBytes(t, trailing, DefaultBlockSize)
	if err != nil {
		t.Fatalf("Error carving: %s", err)
	}
	if !bytes.Equal(out, png) {
		t.Fatalf("Carved output not identical to embedded png (%d vs %d bytes)", len(out), len(png))
	}
	if !image.Complete || image.Stopped != "" {
		t.Fatalf("Expected complete image, got complete=%v stopped=%q", image.Complete, image.Stopped)
	}
	if !slices.Equal(image.Chunks, []string{"IHDR", "IDAT", "IEND"}) {
		t.Fatalf("Wrong chunk list: %v", image.Chunks)
	}
	if image.SourceLength != int64(len(png)) || image.Written != int64(len(png)) {
		t.Fatalf("Expected %d consumed and written, got %d and %d", len(png), image.SourceLength, image.Written)
	}
	if image.Header == nil || image.Header.Width != 17 || image.Header.Height != 3 {
		t.Fatalf("IHDR not parsed: %+v", image.Header)
	}
	hash := md5.Sum(png)
	if image.MD5 != hex.EncodeToString(hash[:]) {
		t.Fatalf("Wrong md5 %s", image.MD5)
	}
}

func TestCarveImage_BlockSizeIrrelevant(t *testing.T) {
	png := MakePng(
		fillerChunk("IHDR", MakeIhdr(1, 1)),
		fillerChunk("PLTE", incrementingBytes(48)),
		fillerChunk("tRNS", incrementingBytes(16)),
		fillerChunk("IDAT", incrementingBytes(5000)),
		fillerChunk("IDAT", incrementingBytes(4096)),
		fillerChunk("IDAT", nil),
		fillerChunk("IEND", nil),
	)
	for _, blocksize := range []int{1, 3, 4095, 4096, 4097, 100000} {
		out, image, err := carveBytes(t, png, blocksize)
		if err != nil {
			t.Fatalf("Blocksize %d: error carving: %s", blocksize, err)
		}
		if !bytes.Equal(out, png) {
			t.Fatalf("Blocksize %d: output differs", blocksize)
		}
		if len(image.Chunks) != 7 {
			t.Fatalf("Blocksize %d: expected 7 chunks, got %v", blocksize, image.Chunks)
		}
	}
}

func TestCarveImage_UnrecognizedStops(t *testing.T) {
	ihdr := fillerChunk("IHDR", MakeIhdr(2, 2))
	png := MakePng(
		ihdr,
		fillerChunk("abCd", []byte("hello")),
		fillerChunk("IDAT", incrementingBytes(30)),
		fillerChunk("IEND", nil),
	)
	out, image, err := carveBytes(t, png, DefaultBlockSize)
	if err != nil {
		t.Fatalf("Unrecognized chunk shouldn't be an error: %s", err)
	}
	expected := MakePng(ihdr)
	if !bytes.Equal(out, expected) {
		t.Fatalf("Expected only signature + IHDR, got %d bytes", len(out))
	}
	if image.Complete || image.Stopped != "abCd" {
		t.Fatalf("Expected stop on abCd, got complete=%v stopped=%q", image.Complete, image.Stopped)
	}
	// Signature, IHDR, the unknown header and its payload; not its crc
	expectedLength := int64(SignatureLength + len(ihdr) + ChunkHeaderLength + 5)
	if image.SourceLength != expectedLength {
		t.Fatalf("Expected %d consumed, got %d", expectedLength, image.SourceLength)
	}
}

func TestCarveImage_EndsAtBoundary(t *testing.T) {
	png := MakePng(fillerChunk("IHDR", MakeIhdr(5, 5)), fillerChunk("IDAT", incrementingBytes(3)))
	out, image, err := carveBytes(t, png, DefaultBlockSize)
	if err != nil {
		t.Fatalf("Clean end of data shouldn't be an error: %s", err)
	}
	if !bytes.Equal(out, png) {
		t.Fatalf("Expected everything to be carved")
	}
	if image.Complete {
		t.Fatalf("Image without IEND marked complete")
	}
}

func TestCarveImage_TruncatedPayload(t *testing.T) {
	ihdr := fillerChunk("IHDR", MakeIhdr(5, 5))
	idat := fillerChunk("IDAT", incrementingBytes(1000))
	png := MakePng(ihdr, idat[:ChunkHeaderLength+10])
	_, image, err := carveBytes(t, png, 4)
	var truncated *TruncatedChunkError
	if !errors.As(err, &truncated) {
		t.Fatalf("Expected TruncatedChunkError, got %v", err)
	}
	if truncated.Type != "IDAT" || truncated.Declared != 1000 {
		t.Fatalf("Wrong truncated info: %+v", truncated)
	}
	if truncated.Missing != 1000+ChunkCrcLength-10 {
		t.Fatalf("Expected %d missing, got %d", 1000+ChunkCrcLength-10, truncated.Missing)
	}
	if truncated.Offset != int64(SignatureLength+len(ihdr)) {
		t.Fatalf("Wrong truncated offset %d", truncated.Offset)
	}
	if image.SourceLength != int64(len(png)) {
		t.Fatalf("Expected all %d bytes consumed, got %d", len(png), image.SourceLength)
	}
}

func TestCarveImage_TruncatedHeader(t *testing.T) {
	png := MakePng(fillerChunk("IHDR", MakeIhdr(5, 5)), []byte{0, 0, 0, 1, 'I'})
	_, _, err := carveBytes(t, png, DefaultBlockSize)
	var truncated *TruncatedChunkError
	if !errors.As(err, &truncated) {
		t.Fatalf("Expected TruncatedChunkError, got %v", err)
	}
	if truncated.Type != "" || truncated.Missing != 3 {
		t.Fatalf("Wrong truncated header info: %+v", truncated)
	}
}

func TestCarveImage_MalformedType(t *testing.T) {
	ihdr := fillerChunk("IHDR", MakeIhdr(5, 5))
	png := MakePng(ihdr, fillerChunk("\xC3\x28AT", incrementingBytes(4)), fillerChunk("IEND", nil))
	out, _, err := carveBytes(t, png, DefaultBlockSize)
	var malformed *MalformedChunkTypeError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedChunkTypeError, got %v", err)
	}
	if malformed.Offset != int64(SignatureLength+len(ihdr)) {
		t.Fatalf("Wrong malformed offset %d", malformed.Offset)
	}
	if !bytes.Equal(out, MakePng(ihdr)) {
		t.Fatalf("Expected partial output of signature + IHDR")
	}
}
