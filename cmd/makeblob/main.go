package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/randomouscrap98/pngcarver/carve"
)

// Write a test blob: padding, then each given PNG file at the next offset the
// carver will actually probe. Without any PNGs given, a tiny synthetic one is used.
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: makeblob <outfile> <gap strides> [png files...]")
		return
	}

	gap, err := strconv.Atoi(os.Args[2])
	if err != nil || gap < 0 {
		fmt.Println("Error: can't parse gap: ", os.Args[2])
		os.Exit(1)
	}

	images := make([][]byte, 0)
	for _, path := range os.Args[3:] {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Println("Error reading png:", err)
			os.Exit(1)
		}
		images = append(images, data)
	}
	if len(images) == 0 {
		images = append(images, carve.MakePng(
			carve.MakeChunk("IHDR", carve.MakeIhdr(1, 1)),
			carve.MakeChunk("IDAT", []byte{0x78, 0x9c, 0x63, 0x60, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01}),
			carve.MakeChunk("IEND", nil),
		))
	}

	data := make([]byte, 0)
	for _, image := range images {
		// Probing restarts right where the last image ended, so every image
		// goes a whole number of strides after the previous one
		data = append(data, carve.MakePadding(gap*carve.DefaultStride)...)
		fmt.Printf("Placing %d byte image at offset %d\n", len(image), len(data))
		data = append(data, image...)
	}
	// Some trailing junk so the last image isn't at the very end
	data = append(data, carve.MakePadding(int(carve.AlignWidth(uint(len(data)), carve.DefaultStride))-len(data))...)

	err = os.WriteFile(os.Args[1], data, 0644)
	if err != nil {
		fmt.Println("Error writing file: ", err)
		os.Exit(1)
	}

	fmt.Println("Wrote file ", os.Args[1])
}
