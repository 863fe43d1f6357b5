package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "schedsim API",
		Version:     "v1",
		Description: "CPU scheduling simulator: run process sets under the built-in policies and compare the results",
		Endpoints: []endpointInfo{
			{"/api/v1/policies", []string{"GET"}, "Available scheduling policies"},
			{"/api/v1/simulations", []string{"GET", "POST"}, "Run a simulation (POST, ?persist=false skips history) or list stored ones"},
			{"/api/v1/simulations/{id}", []string{"GET", "DELETE"}, "Single stored simulation with its policy runs"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
