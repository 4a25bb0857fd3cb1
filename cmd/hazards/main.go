// Command hazards detects stops and left turns in KML trip files and
// rewrites each file in place with a marker per hazard.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jengzang/trip-hazards/internal/config"
	"github.com/jengzang/trip-hazards/internal/hazard"
	"github.com/jengzang/trip-hazards/internal/kml"
	"github.com/jengzang/trip-hazards/internal/models"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("hazards", flag.ContinueOnError)
	dryRun := fs.Bool("n", false, "print hazard counts without rewriting files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: hazards [-n] <file.kml>...")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	opts := cfg.HazardOptions()
	detect := func(path models.Path) ([]models.Hazard, error) {
		return hazard.Detect(path, opts)
	}

	for _, file := range fs.Args() {
		n, err := annotateFile(file, detect, *dryRun)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		fmt.Fprintf(stdout, "%s: %d hazards\n", file, n)
	}
	return nil
}

func annotateFile(file string, detect kml.DetectFunc, dryRun bool) (int, error) {
	info, err := os.Stat(file)
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return 0, err
	}

	var out bytes.Buffer
	n, err := kml.Annotate(bytes.NewReader(data), &out, detect, kml.DefaultStyles())
	if err != nil || dryRun {
		return n, err
	}
	return n, os.WriteFile(file, out.Bytes(), info.Mode().Perm())
}
