// Package tileserver exposes the engine's cache over local HTTP for
// debugging: cached tiles by coordinate, prometheus metrics and a health
// probe.
package tileserver

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tilemap/internal/cache"
	"tilemap/internal/geo"
)

// Server serves cached tiles and metrics on a loopback port.
type Server struct {
	cache *cache.Cache
	log   *zap.Logger

	url  string
	http *http.Server
}

// NewServer builds a debug server over the given cache.
func NewServer(c *cache.Cache, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cache: c, log: log.Named("tileserver")}
}

// URL returns the base URL once the server has started.
func (s *Server) URL() string { return s.url }

// Start listens on a random loopback port and serves in the background.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/tiles/", s.handleTile)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("start tile server: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	s.url = fmt.Sprintf("http://127.0.0.1:%d", port)
	s.http = &http.Server{Handler: mux}

	s.log.Info("debug tile server started", zap.String("url", s.url))
	go func() {
		if err := s.http.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Warn("tile server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Close shuts the server down.
func (s *Server) Close() error {
	if s.http == nil {
		return nil
	}
	return s.http.Close()
}

// handleTile serves /tiles/{z}/{x}/{y}.png straight from the cache.
// Misses are 404s; the server never triggers loads.
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	coord, err := parseTilePath(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, ok := s.cache.Peek(coord)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func parseTilePath(path string) (geo.TileCoord, error) {
	rest := strings.TrimPrefix(path, "/tiles/")
	rest = strings.TrimSuffix(rest, ".png")
	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return geo.TileCoord{}, fmt.Errorf("expected /tiles/{z}/{x}/{y}.png")
	}
	z, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return geo.TileCoord{}, fmt.Errorf("bad zoom %q", parts[0])
	}
	x, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return geo.TileCoord{}, fmt.Errorf("bad x %q", parts[1])
	}
	y, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return geo.TileCoord{}, fmt.Errorf("bad y %q", parts[2])
	}
	c := geo.TileCoord{X: uint32(x), Y: uint32(y), Z: uint8(z)}
	if !c.Valid() {
		return geo.TileCoord{}, fmt.Errorf("tile %s out of range", c)
	}
	return c, nil
}
