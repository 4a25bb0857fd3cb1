// Command gsi2kml converts a receiver's NMEA log into a KML trip.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jengzang/trip-hazards/internal/kml"
	"github.com/jengzang/trip-hazards/internal/nmea"
)

func main() {
	if len(os.Args) != 3 {
		log.Fatal("usage: gsi2kml <in.gsi> <out.kml>")
	}
	n, err := convert(os.Args[1], os.Args[2])
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %d samples to %s", n, os.Args[2])
}

func convert(in, out string) (n int, err error) {
	src, err := os.Open(in)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	path, err := nmea.DecodeRMC(src)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", in, err)
	}

	dst, err := os.Create(out)
	if err != nil {
		return 0, err
	}
	defer func() {
		err = errors.Join(err, dst.Close())
	}()

	name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	if err := kml.Write(dst, kml.NewDocument(name, path, kml.DefaultStyles())); err != nil {
		return 0, err
	}
	return len(path), nil
}
