package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/randomouscrap98/pngcarver/carve"
)

// Print the offset of every probe window that holds a PNG signature, using
// the same stride as the carver but without following any chunks. Handy for
// checking whether a dump has anything in it before carving for real.
func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Println("Usage: dumpsignatures <filename> [stride]")
		return
	}

	stride := carve.DefaultStride
	if len(os.Args) == 3 {
		var err error
		stride, err = strconv.Atoi(os.Args[2])
		if err != nil || stride < carve.SignatureLength {
			fmt.Println("Error: bad stride: ", os.Args[2])
			os.Exit(1)
		}
	}

	filename := os.Args[1]
	file, err := os.Open(filename)
	if err != nil {
		fmt.Println("Error opening file:", err)
		os.Exit(1)
	}
	defer file.Close()

	reader := bufio.NewReader(file)

	// Read one window per stride; the rest of each stride is thrown away
	window := make([]byte, carve.SignatureLength)
	found := 0
	offset := 0
	for {
		bytesRead, err := io.ReadFull(reader, window)
		if err != nil {
			break
		}

		if string(window) == carve.PngSignature {
			fmt.Printf("%d\t0x%X\n", offset, offset)
			found++
		}

		offset += stride
		_, err = reader.Discard(stride - bytesRead)
		if err != nil {
			break
		}
	}

	fmt.Printf("Found %d signatures at stride %d in '%s'\n", found, stride, filename)
}
