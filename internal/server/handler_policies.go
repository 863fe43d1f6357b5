package server

import (
	"net/http"

	"github.com/me/schedsim/pkg/model"
)

type policyInfo struct {
	ID         model.Policy `json:"id"`
	Name       string       `json:"name"`
	Preemptive bool         `json:"preemptive"`
}

func policyInfos() []policyInfo {
	out := make([]policyInfo, len(model.AllPolicies))
	for i, p := range model.AllPolicies {
		out[i] = policyInfo{ID: p, Name: p.Name(), Preemptive: p.Preemptive()}
	}
	return out
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, policyInfos())
}
