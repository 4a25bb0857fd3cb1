// Command cleantrips copies the KML trips that start and end at a known
// anchor and never jump between samples.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jengzang/trip-hazards/internal/cleaning"
	"github.com/jengzang/trip-hazards/internal/config"
	"github.com/jengzang/trip-hazards/internal/kml"
	"github.com/jengzang/trip-hazards/internal/service"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fs := flag.NewFlagSet("cleantrips", flag.ContinueOnError)
	in := fs.String("in", "", "directory of raw .kml trips")
	out := fs.String("out", "", "directory receiving the trips that pass")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return errors.New("usage: cleantrips -in DIR -out DIR")
	}

	files, err := service.ListKMLFiles(*in)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	validator := cfg.Validator()
	kept := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		if err := check(validator, data); err != nil {
			fmt.Fprintf(stdout, "reject %s: %v\n", filepath.Base(file), err)
			continue
		}
		if err := os.WriteFile(filepath.Join(*out, filepath.Base(file)), data, 0o644); err != nil {
			return err
		}
		kept++
	}

	fmt.Fprintf(stdout, "kept %d of %d trips\n", kept, len(files))
	return nil
}

func check(validator *cleaning.Validator, data []byte) error {
	path, err := kml.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return validator.Validate(path)
}
