package v1

import (
	"encoding/json"
	"net/http"
)

// register creates a new user account.
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req registerRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		badRequest(w, "name, email and password are required")
		return
	}
	u, err := s.authSvc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toUserResponse(u))
}

// login verifies credentials and returns a fresh opaque token. Any previous
// token for the user stops working.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	var req loginRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		badRequest(w, "email and password are required")
		return
	}
	u, token, err := s.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, loginResponse{Token: token, User: toUserResponse(u)})
}
