// Command besttrip prints the name of the cheapest KML trip in a directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jengzang/trip-hazards/internal/config"
	"github.com/jengzang/trip-hazards/internal/kml"
	"github.com/jengzang/trip-hazards/internal/models"
	"github.com/jengzang/trip-hazards/internal/service"
	"github.com/jengzang/trip-hazards/internal/tripcost"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fs := flag.NewFlagSet("besttrip", flag.ContinueOnError)
	dir := fs.String("dir", ".", "directory holding candidate .kml trips")
	workers := fs.Int("workers", cfg.BestWorkers, "trips evaluated concurrently; 1 is sequential")
	verbose := fs.Bool("v", false, "also print the distance, speed and cost of the best trip")
	if err := fs.Parse(args); err != nil {
		return err
	}

	files, err := service.ListKMLFiles(*dir)
	if err != nil {
		return err
	}

	var best tripcost.Result
	if *workers > 1 {
		best, err = tripcost.SelectBestConcurrent(ctx, files, loadFile, cfg.CostParams(), *workers)
	} else {
		best, err = tripcost.SelectBest(ctx, files, loadFile, cfg.CostParams())
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, filepath.Base(best.ID))
	if *verbose {
		fmt.Fprintf(stdout, "distance=%.1fm avg_speed=%.2fm/s cost=%.1f candidates=%d\n",
			best.Score.Distance, best.Score.AvgSpeed, best.Score.Cost, len(files))
	}
	return nil
}

func loadFile(_ context.Context, file string) (models.Path, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	path, err := kml.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(file), err)
	}
	return path, nil
}
