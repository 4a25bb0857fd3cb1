// Package nmea turns GPS receiver logs into trip paths.
package nmea

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	gonmea "github.com/adrianmo/go-nmea"

	"github.com/jengzang/trip-hazards/internal/models"
)

// RMC field positions, counted after the sentence type.
const (
	fieldLat = 2
	fieldLon = 4
)

// DecodeRMC reads a receiver log and returns one sample per recommended
// minimum (RMC) sentence. Anything before the first line starting with "$"
// is a header and ignored. Other sentence types are skipped, as are RMC
// sentences that fail to parse or carry no position.
func DecodeRMC(r io.Reader) (models.Path, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var path models.Path
	inData := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inData {
			if !strings.HasPrefix(line, "$") {
				continue
			}
			inData = true
		}

		sample, ok := parseRMC(line)
		if ok {
			path = append(path, sample)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read receiver log: %w", err)
	}
	if len(path) == 0 {
		return nil, models.ErrEmptyInput
	}
	return path, nil
}

func parseRMC(line string) (models.Sample, bool) {
	if !strings.HasPrefix(line, "$") {
		return models.Sample{}, false
	}
	s, err := gonmea.Parse(line)
	if err != nil || s.DataType() != gonmea.TypeRMC {
		return models.Sample{}, false
	}
	rmc, ok := s.(gonmea.RMC)
	if !ok {
		return models.Sample{}, false
	}
	if len(rmc.Fields) <= fieldLon || rmc.Fields[fieldLat] == "" || rmc.Fields[fieldLon] == "" {
		return models.Sample{}, false
	}
	return models.Sample{
		Lon:   rmc.Longitude,
		Lat:   rmc.Latitude,
		Speed: rmc.Speed,
	}, true
}
