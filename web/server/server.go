package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-spatial/pkg/accel"
	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/probe"
)

// Server answers ray queries over HTTP against a loaded set of meshes
type Server struct {
	prober *probe.Prober
	port   int
	logger core.Logger
}

// NewServer creates a server for prober; a nil logger discards request logs
func NewServer(prober *probe.Prober, port int, logger core.Logger) *Server {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Server{prober: prober, port: port, logger: logger}
}

// MeshInfo describes one loaded mesh
type MeshInfo struct {
	Name        string       `json:"name"`
	Facets      int          `json:"facets"`
	Min         [3]float64   `json:"min"`
	Max         [3]float64   `json:"max"`
	Accelerator string       `json:"accelerator,omitempty"` // "kdtree", "bvh" or empty
	Stats       *accel.Stats `json:"stats,omitempty"`
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/meshes", s.handleMeshes)
	mux.HandleFunc("/api/cast", s.handleCast)
	mux.HandleFunc("/api/batch", s.handleBatch)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Printf("Starting web server on http://localhost%s\n", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMeshes lists the loaded meshes with their bounds and accelerator statistics
func (s *Server) handleMeshes(w http.ResponseWriter, r *http.Request) {
	meshes := s.prober.Meshes()
	infos := make([]MeshInfo, 0, len(meshes))
	for _, mesh := range meshes {
		bounds := mesh.AABB()
		info := MeshInfo{
			Name:   mesh.Name(),
			Facets: mesh.Len(),
			Min:    vecArray(bounds.Min),
			Max:    vecArray(bounds.Max),
		}
		switch a := mesh.Accelerator().(type) {
		case *accel.KDTree:
			stats := a.Stats()
			info.Accelerator, info.Stats = probe.AcceleratorKDTree, &stats
		case *accel.BVH:
			stats := a.Stats()
			info.Accelerator, info.Stats = probe.AcceleratorBVH, &stats
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, infos)
}

// parseVecParam reads a "x,y,z" query parameter, returning def when it is absent
func parseVecParam(r *http.Request, key string, def *[3]float64) ([3]float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		if def == nil {
			return [3]float64{}, fmt.Errorf("missing %s", key)
		}
		return *def, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return [3]float64{}, fmt.Errorf("%s needs 3 components, got %d", key, len(parts))
	}
	var v [3]float64
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return [3]float64{}, fmt.Errorf("invalid %s component %q", key, part)
		}
		v[i] = value
	}
	return v, nil
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
