// cmd/fieldtool/main.go
//
// Renders a YAML field file into the frame stream a device accepts.
// The output is either a raw binary stream (for piping into a HID
// writer) or a hex dump for inspection.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"boardlink-go/fieldfile"
	"boardlink-go/protocol"
)

func main() {
	var (
		out  = flag.String("o", "-", "output path, - for stdout")
		dump = flag.Bool("dump", false, "hex dump frames instead of raw output")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: fieldtool [-o out] [-dump] <fields.yaml>")
		os.Exit(2)
	}

	f, err := fieldfile.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "fieldtool:", err)
		os.Exit(1)
	}
	frames, err := f.Frames()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fieldtool:", err)
		os.Exit(1)
	}

	w := os.Stdout
	if *out != "-" {
		w, err = os.Create(*out)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fieldtool:", err)
			os.Exit(1)
		}
		defer w.Close()
	}

	if *dump {
		for i, frame := range frames {
			hdr, _ := protocol.ParseHeader(frame)
			fmt.Fprintf(w, "# frame %d cmd=0x%02x size=%d chunk=%d@%d\n",
				i, hdr.Cmd, hdr.Size, hdr.ChunkSize, hdr.ChunkOffset)
			fmt.Fprintln(w, hex.EncodeToString(frame))
		}
		return
	}
	for _, frame := range frames {
		if _, err := w.Write(frame); err != nil {
			fmt.Fprintln(os.Stderr, "fieldtool:", err)
			os.Exit(1)
		}
	}
}
