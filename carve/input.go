package carve

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/marcinbor85/gohex"
)

// Convert an Intel HEX dump into flat binary, starting at the lowest address
// found. Gaps between segments are filled with 0xFF. Also returns that lowest
// address, so offsets into the binary can be mapped back
func HexToBin(hexreader io.Reader) ([]byte, uint32, error) {
	mem := gohex.NewMemory()
	err := mem.ParseIntelHex(hexreader)
	if err != nil {
		return nil, 0, err
	}
	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return []byte{}, 0, nil
	}
	start := segments[0].Address
	end := start
	for _, s := range segments {
		if s.Address < start {
			start = s.Address
		}
		if segend := s.Address + uint32(len(s.Data)); segend > end {
			end = segend
		}
	}
	return mem.ToBinary(start, end-start, 0xFF), start, nil
}

// Open something to scan. Raw files are scanned in place; hex files get
// converted in memory first. Always close the returned closer
func OpenSource(path string, hex bool) (io.ReadSeeker, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if !hex {
		return f, f, nil
	}
	defer f.Close()
	bin, base, err := HexToBin(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parse hex %s: %w", path, err)
	}
	log.Printf("Converted hex %s to %d bytes of binary (base address 0x%X)\n", path, len(bin), base)
	return bytes.NewReader(bin), discardCloser{}, nil
}
