//go:build !tinygo

// Command mkkeymap compiles a YAML keymap into the binary blob format the
// firmware stores in flash. The blob can be flashed with any config record
// writer or dropped into a host flash image.
package main

import (
	"flag"
	"fmt"
	"os"

	"quill/firmware/config"
)

func main() {
	var srcPath string
	var outPath string
	flag.StringVar(&srcPath, "src", "", "Keymap YAML file to compile.")
	flag.StringVar(&outPath, "out", "keymap.bin", "Output blob path.")
	flag.Parse()

	if srcPath == "" {
		fmt.Fprintln(os.Stderr, "error: -src is required")
		os.Exit(2)
	}

	if err := run(srcPath, outPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(srcPath, outPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read %q: %w", srcPath, err)
	}

	km, macros, err := config.ParseKeymap(data)
	if err != nil {
		return fmt.Errorf("parse %q: %w", srcPath, err)
	}

	blob, err := config.EncodeKeymap(km, macros)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if err := os.WriteFile(outPath, blob, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", outPath, err)
	}

	fmt.Printf("%s: %d layers, %dx%d, %d macros, %d bytes\n",
		outPath, km.Layers(), km.Rows(), km.Cols(), len(macros), len(blob))
	return nil
}
