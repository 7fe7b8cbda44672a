package v1

import (
	"encoding/json"
	"net/http"
)

// getReference returns every account, category and payment method the user
// owns: everything a client needs before recording a movement.
func (s *Server) getReference(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		unauthorized(w)
		return
	}
	ref, err := s.refdataSvc.List(r.Context(), user.ID)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toReferenceResponse(ref))
}

func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		unauthorized(w)
		return
	}
	if !requireJSON(w, r) {
		return
	}
	var req postAccountRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	a, err := s.refdataSvc.CreateAccount(r.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, accountResponse{ID: a.ID, Name: a.Name, Description: a.Description})
}

func (s *Server) postCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		unauthorized(w)
		return
	}
	if !requireJSON(w, r) {
		return
	}
	var req postCategoryRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	c, err := s.refdataSvc.CreateCategory(r.Context(), user.ID, req.Name)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, categoryResponse{ID: c.ID, Name: c.Name})
}

func (s *Server) postPaymentMethod(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		unauthorized(w)
		return
	}
	if !requireJSON(w, r) {
		return
	}
	var req postPaymentMethodRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	p, err := s.refdataSvc.CreatePaymentMethod(r.Context(), user.ID, req.Name, req.Kind)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, paymentMethodResponse{ID: p.ID, Name: p.Name, Kind: p.Kind})
}
