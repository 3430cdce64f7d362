// Command tilefetch bulk-downloads the tiles covering a bounding box into
// a z/x/y directory tree, using the engine's loader for concurrency,
// retry and network-aware throttling.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	pb "gopkg.in/cheggaaa/pb.v1"

	"tilemap/internal/config"
	"tilemap/internal/geo"
	"tilemap/internal/loader"
	"tilemap/internal/source"
	"tilemap/pkg/logger"
)

func main() {
	var (
		bboxFlag    = pflag.String("bbox", "", "bounding box as minLon,minLat,maxLon,maxLat (required)")
		zoomMin     = pflag.Int("zoom-min", 0, "lowest zoom level to fetch")
		zoomMax     = pflag.Int("zoom-max", 12, "highest zoom level to fetch")
		sourceFlag  = pflag.String("source", "osm", "tile source: osm, satellite, or a {z}/{x}/{y} URL template")
		outDir      = pflag.String("out", "tiles", "output directory")
		concurrency = pflag.Int("concurrency", 0, "max concurrent downloads (0 = config default)")
	)
	pflag.Parse()

	if err := run(*bboxFlag, *zoomMin, *zoomMax, *sourceFlag, *outDir, *concurrency); err != nil {
		fmt.Fprintln(os.Stderr, "tilefetch:", err)
		os.Exit(1)
	}
}

func run(bboxFlag string, zoomMin, zoomMax int, sourceFlag, outDir string, concurrency int) error {
	bbox, err := parseBBox(bboxFlag)
	if err != nil {
		return err
	}
	if zoomMin < 0 || zoomMax > 22 || zoomMin > zoomMax {
		return fmt.Errorf("invalid zoom range %d..%d", zoomMin, zoomMax)
	}

	src, err := pickSource(sourceFlag)
	if err != nil {
		return err
	}

	cfg, err := config.New()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Loader.MaxConcurrent = concurrency
	}

	log, err := logger.New(cfg.Logger.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	l := loader.New(loader.Config{
		MaxConcurrent:   cfg.Loader.MaxConcurrent,
		MaxRetries:      cfg.Loader.MaxRetries,
		RetryDelay:      cfg.Loader.RetryDelay,
		QueueCapacity:   cfg.Loader.QueueCapacity,
		NetworkAdaptive: cfg.Loader.NetworkAdaptive,
	}, src, loader.NewHTTPFetcher(&http.Client{Timeout: 30 * time.Second}), log)
	defer l.Close()

	for z := zoomMin; z <= zoomMax; z++ {
		if err := fetchZoom(l, log, bbox, uint8(z), outDir); err != nil {
			return err
		}
	}
	return nil
}

// fetchZoom downloads one zoom level, waiting for the whole level before
// moving on so progress reads top-down.
func fetchZoom(l *loader.Loader, log *zap.Logger, bbox geo.LatLngBounds, zoom uint8, outDir string) error {
	coords := geo.TilesInBounds(bbox, zoom).Coords()

	bar := pb.New(len(coords)).Prefix(fmt.Sprintf("Zoom %d : ", zoom))
	bar.SetRefreshRate(time.Second)
	bar.Start()

	// The queue is bounded, so feed it as results drain.
	todo := coords
	done := 0
	failed := 0
	for done < len(coords) {
		for len(todo) > 0 {
			if !l.Enqueue(todo[0], loader.PriorityBackground) && !l.IsPending(todo[0]) {
				break // queue full, drain first
			}
			todo = todo[1:]
		}
		n := l.Drain(func(r loader.Result) {
			bar.Increment()
			done++
			if r.Err != nil {
				failed++
				log.Warn("tile failed", zap.Stringer("tile", r.Coord), zap.Error(r.Err))
				return
			}
			if err := writeTile(outDir, r.Coord, r.Data); err != nil {
				failed++
				log.Warn("tile write failed", zap.Stringer("tile", r.Coord), zap.Error(err))
			}
		})
		if n == 0 {
			time.Sleep(20 * time.Millisecond)
		}
	}

	bar.FinishPrint(fmt.Sprintf("Zoom %d finished, %d tiles, %d failed", zoom, len(coords), failed))
	return nil
}

func writeTile(outDir string, c geo.TileCoord, data []byte) error {
	dir := filepath.Join(outDir, strconv.Itoa(int(c.Z)), strconv.FormatUint(uint64(c.X), 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := filepath.Join(dir, strconv.FormatUint(uint64(c.Y), 10)+".png")
	return os.WriteFile(name, data, 0o644)
}

func parseBBox(s string) (geo.LatLngBounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.LatLngBounds{}, fmt.Errorf("bbox must be minLon,minLat,maxLon,maxLat")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.LatLngBounds{}, fmt.Errorf("bbox value %q: %w", p, err)
		}
		vals[i] = v
	}
	b := geo.NewLatLngBounds(
		geo.LatLng{Lat: vals[1], Lng: vals[0]},
		geo.LatLng{Lat: vals[3], Lng: vals[2]},
	)
	if !b.SouthWest.Valid() || !b.NorthEast.Valid() ||
		b.SouthWest.Lat >= b.NorthEast.Lat || b.SouthWest.Lng >= b.NorthEast.Lng {
		return geo.LatLngBounds{}, fmt.Errorf("bbox corners out of order or out of range")
	}
	return b, nil
}

func pickSource(name string) (source.Source, error) {
	switch name {
	case "osm":
		return source.OpenStreetMap(), nil
	case "satellite":
		return source.Satellite(), nil
	default:
		return source.XYZ("custom", name)
	}
}
