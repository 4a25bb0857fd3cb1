package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/golang/geo/s1"

	"github.com/jengzang/trip-hazards/internal/cleaning"
	"github.com/jengzang/trip-hazards/internal/hazard"
	"github.com/jengzang/trip-hazards/internal/spatial"
	"github.com/jengzang/trip-hazards/internal/tripcost"
)

// Config 应用配置
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string

	MaxUploadBytes int64 // 上传大小上限（字节）
	BestWorkers    int   // default concurrency when choosing the best trip of a batch

	// Per-IP request budget for the public API
	RateLimit  int
	RateWindow time.Duration

	// Detection thresholds
	StopWindow        int
	StopMaxSpeed      float64 // knots
	TurnSegmentM      float64
	TurnMinAngle      float64 // radians
	TurnMaxAngle      float64 // radians
	DedupMinDistanceM float64

	// Cost weights
	CostDistanceWeight float64
	CostSpeedRatio     float64

	// Planar frame, meters per degree. Without explicit ratios the frame is
	// derived from FRAME_REF_LAT/FRAME_REF_LON when both are set.
	FrameLatRatio float64
	FrameLonRatio float64

	CleanMaxJumpM float64
}

// Load 加载配置. Unset variables take their defaults; a variable that is set
// but malformed is an error.
func Load() (*Config, error) {
	l := loader{}

	frame := spatial.NewYorkFrame
	if ref, ok := l.getPoint("FRAME_REF_LAT", "FRAME_REF_LON"); ok {
		frame = spatial.FrameAt(ref)
	}

	cfg := &Config{
		Port:      l.getString("PORT", ":8080"),
		DBPath:    l.getString("DB_PATH", "./data/trips.db"),
		JWTSecret: l.getString("JWT_SECRET", "your-secret-key-change-in-production"),

		MaxUploadBytes: int64(l.getInt("MAX_UPLOAD_BYTES", 32<<20)),
		BestWorkers:    l.getInt("BEST_WORKERS", 4),

		RateLimit:  l.getInt("RATE_LIMIT", 120),
		RateWindow: l.getDuration("RATE_WINDOW", time.Minute),

		StopWindow:        l.getInt("STOP_WINDOW", 5),
		StopMaxSpeed:      l.getFloat("STOP_MAX_SPEED", 0.10),
		TurnSegmentM:      l.getFloat("TURN_SEGMENT_M", 35),
		TurnMinAngle:      l.getFloat("TURN_MIN_ANGLE", 1.25*math.Pi),
		TurnMaxAngle:      l.getFloat("TURN_MAX_ANGLE", 1.75*math.Pi),
		DedupMinDistanceM: l.getFloat("DEDUP_MIN_DISTANCE_M", 30),

		CostDistanceWeight: l.getFloat("COST_DISTANCE_WEIGHT", 1),
		CostSpeedRatio:     l.getFloat("COST_SPEED_RATIO", 7865.099),

		FrameLatRatio: l.getFloat("FRAME_LAT_RATIO", frame.LatMeters),
		FrameLonRatio: l.getFloat("FRAME_LON_RATIO", frame.LonMeters),

		CleanMaxJumpM: l.getFloat("CLEAN_MAX_JUMP_M", cleaning.DefaultMaxJumpM),
	}
	cfg.validate(&l)
	if l.err != nil {
		return nil, l.err
	}
	return cfg, nil
}

// validate rejects values that parse but cannot be used.
func (c *Config) validate(l *loader) {
	l.check("MAX_UPLOAD_BYTES", c.MaxUploadBytes > 0, "must be positive")
	l.check("BEST_WORKERS", c.BestWorkers >= 1, "must be at least 1")
	l.check("RATE_LIMIT", c.RateLimit >= 0, "must not be negative")
	l.check("RATE_WINDOW", c.RateWindow > 0, "must be positive")
	l.check("STOP_WINDOW", c.StopWindow >= 1, "must be at least 1")
	l.check("STOP_MAX_SPEED", c.StopMaxSpeed >= 0, "must not be negative")
	l.check("TURN_SEGMENT_M", c.TurnSegmentM >= 0, "must not be negative")
	l.check("TURN_MIN_ANGLE", c.TurnMinAngle <= c.TurnMaxAngle, "must not exceed TURN_MAX_ANGLE")
	l.check("DEDUP_MIN_DISTANCE_M", c.DedupMinDistanceM >= 0, "must not be negative")
	l.check("FRAME_LAT_RATIO", c.FrameLatRatio > 0, "must be positive")
	l.check("FRAME_LON_RATIO", c.FrameLonRatio > 0, "must be positive")
	l.check("CLEAN_MAX_JUMP_M", c.CleanMaxJumpM > 0, "must be positive")
}

// Frame returns the planar frame used by every distance computation.
func (c *Config) Frame() spatial.Frame {
	return spatial.Frame{LatMeters: c.FrameLatRatio, LonMeters: c.FrameLonRatio}
}

// HazardOptions returns the detection options described by the config.
func (c *Config) HazardOptions() hazard.Options {
	return hazard.Options{
		Frame: c.Frame(),
		Stops: hazard.StopOptions{
			Window:   c.StopWindow,
			MaxSpeed: c.StopMaxSpeed,
		},
		Turns: hazard.TurnOptions{
			SegmentMeters: c.TurnSegmentM,
			MinAngle:      s1.Angle(c.TurnMinAngle),
			MaxAngle:      s1.Angle(c.TurnMaxAngle),
		},
		MinHazardDistance: c.DedupMinDistanceM,
	}
}

// CostParams returns the cost weights described by the config.
func (c *Config) CostParams() tripcost.Params {
	return tripcost.Params{
		Frame:          c.Frame(),
		DistanceWeight: c.CostDistanceWeight,
		SpeedRatio:     c.CostSpeedRatio,
	}
}

// Validator returns the trip cleaner with the default anchors.
func (c *Config) Validator() *cleaning.Validator {
	return cleaning.NewValidator(c.Frame(), c.CleanMaxJumpM)
}

// loader keeps the first parse error so Load can read every variable in one
// expression.
type loader struct {
	err error
}

func (l *loader) getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (l *loader) getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.fail(key, err)
		return def
	}
	return n
}

func (l *loader) getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		l.fail(key, err)
		return def
	}
	return f
}

func (l *loader) getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.fail(key, err)
		return def
	}
	return d
}

// getPoint reads a reference position from a latitude and a longitude
// variable. Both or neither must be set.
func (l *loader) getPoint(latKey, lonKey string) (spatial.Point, bool) {
	if os.Getenv(latKey) == "" && os.Getenv(lonKey) == "" {
		return spatial.Point{}, false
	}
	if os.Getenv(latKey) == "" || os.Getenv(lonKey) == "" {
		l.fail(latKey, fmt.Errorf("must be set together with %s", lonKey))
		return spatial.Point{}, false
	}

	p := spatial.Point{Lat: l.getFloat(latKey, 0), Lon: l.getFloat(lonKey, 0)}
	l.check(latKey, p.Lat > -90 && p.Lat < 90, "must be between -90 and 90")
	l.check(lonKey, p.Lon >= -180 && p.Lon <= 180, "must be between -180 and 180")
	return p, l.err == nil
}

func (l *loader) check(key string, ok bool, msg string) {
	if !ok {
		l.fail(key, errors.New(msg))
	}
}

func (l *loader) fail(key string, err error) {
	if l.err == nil {
		l.err = fmt.Errorf("%s: %w", key, err)
	}
}
