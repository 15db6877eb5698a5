package server

import (
	"net/http"

	"github.com/df07/go-spatial/pkg/probe"
)

// CastResponse represents the JSON response for a single ray
type CastResponse struct {
	Name      string       `json:"name,omitempty"`
	Hit       bool         `json:"hit"`
	Mesh      string       `json:"mesh,omitempty"`
	Distance  *float64     `json:"distance,omitempty"`
	Point     *[3]float64  `json:"point,omitempty"`
	Normal    *[3]float64  `json:"normal,omitempty"`
	FrontFace bool         `json:"frontFace"`
	Vertices  [][3]float64 `json:"vertices,omitempty"` // Corners of the struck facet
}

func newCastResponse(result probe.Result) CastResponse {
	response := CastResponse{Name: result.Name, Hit: result.Hit}
	if !result.Hit {
		return response
	}

	distance := result.Distance
	point := vecArray(result.Point)
	normal := vecArray(result.Normal)
	response.Mesh = result.Mesh
	response.Distance = &distance
	response.Point = &point
	response.Normal = &normal
	response.FrontFace = result.Ray.Direction.Dot(result.Normal) < 0

	if result.Facet != nil {
		for _, v := range result.Facet.Vertices() {
			response.Vertices = append(response.Vertices, vecArray(v))
		}
	}
	return response
}

// handleCast casts one ray given as origin=x,y,z&direction=x,y,z query parameters
func (s *Server) handleCast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "use GET")
		return
	}

	origin, err := parseVecParam(r, "origin", &[3]float64{})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	direction, err := parseVecParam(r, "direction", nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	spec := probe.RaySpec{Name: r.URL.Query().Get("name"), Origin: origin, Direction: direction}
	ray, err := spec.Ray()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ray: "+err.Error())
		return
	}

	result := s.prober.Cast(ray)
	result.Name = spec.Name
	writeJSON(w, http.StatusOK, newCastResponse(result))
}
