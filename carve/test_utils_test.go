package carve

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// Somewhere to dump carved images. Lives under ignore/ so it's easy to poke at
// after a failed run
func newOutputDir(t *testing.T, name string) string {
	err := os.MkdirAll("ignore", 0770)
	if err != nil {
		t.Fatalf("Couldn't create ignore folder: %s", err)
	}
	dir, err := os.MkdirTemp("ignore", name+"_")
	if err != nil {
		t.Fatalf("Couldn't create output folder: %s", err)
	}
	return dir
}

func writeTestFile(t *testing.T, dir string, name string, data []byte) string {
	path := filepath.Join(dir, name)
	err := os.WriteFile(path, data, 0660)
	if err != nil {
		t.Fatalf("Couldn't write %s: %s", path, err)
	}
	return path
}

// Sorted names of everything in the folder
func listOutputs(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Couldn't list %s: %s", dir, err)
	}
	result := make([]string, 0)
	for _, e := range entries {
		result = append(result, e.Name())
	}
	slices.Sort(result)
	return result
}

func readOutput(t *testing.T, dir string, name string) []byte {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Couldn't read output %s: %s", name, err)
	}
	return data
}

// A chunk with a made up crc, since nothing checks it anyway
func fillerChunk(ctype string, payload []byte) []byte {
	chunk := MakeChunk(ctype, payload)
	copy(chunk[len(chunk)-ChunkCrcLength:], []byte{0xDE, 0xAD, 0xBE, 0xEF})
	return chunk
}

func incrementingBytes(length int) []byte {
	result := make([]byte, length)
	for i := range result {
		result[i] = byte(i & 0xFF)
	}
	return result
}

// signature + IHDR + IDAT + IEND
func basicPng(width uint32, height uint32, datalength int) []byte {
	return MakePng(
		fillerChunk("IHDR", MakeIhdr(width, height)),
		fillerChunk("IDAT", incrementingBytes(datalength)),
		fillerChunk("IEND", nil),
	)
}

// Lay out images so each one sits exactly where the scanner will probe: the
// first probe after an image is right where it ended, so gaps are counted in
// whole strides from there. Returns the blob and each image's offset
func placeImages(gaps []int, images [][]byte, stride int) ([]byte, []int) {
	data := make([]byte, 0)
	offsets := make([]int, 0)
	for i, image := range images {
		data = append(data, MakePadding(gaps[i]*stride)...)
		offsets = append(offsets, len(data))
		data = append(data, image...)
	}
	data = append(data, MakePadding(stride/2)...)
	return data, offsets
}

// Put data at an exact offset within a padded blob of the given length
func placeAt(length int, offset int, data []byte) []byte {
	blob := MakePadding(length)
	copy(blob[offset:], data)
	return blob
}
