package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"ledgerd/internal/service/movement"
)

// postMovement records one inflow or outflow and returns the created row,
// snapshot included.
func (s *Server) postMovement(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		unauthorized(w)
		return
	}
	if !requireJSON(w, r) {
		return
	}
	var req postMovementRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.AccountID == uuid.Nil {
		badRequest(w, "account_id is required")
		return
	}

	m, err := s.movementSvc.Record(r.Context(), movement.RecordInput{
		UserID:          user.ID,
		AccountID:       req.AccountID,
		CategoryID:      req.CategoryID,
		PaymentMethodID: req.PaymentMethodID,
		Kind:            req.Kind,
		AmountMinor:     req.AmountMinor,
		Description:     req.Description,
	})
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toMovementResponse(m))
}

// listMovements returns the newest-first history page plus the total balance.
func (s *Server) listMovements(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		unauthorized(w)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(w, "invalid limit")
			return
		}
		limit = n
	}
	res, err := s.movementSvc.History(r.Context(), user.ID, limit)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	totalMinor, _ := res.Total.MinorUnits()
	resp := historyResponse{
		Items:             make([]historyRowResponse, 0, len(res.Movements)),
		TotalBalanceMinor: totalMinor,
		TotalBalance:      res.Total.String(),
	}
	for _, row := range res.Movements {
		resp.Items = append(resp.Items, toHistoryRowResponse(row))
	}
	toJSON(w, http.StatusOK, resp)
}

// deleteMovement soft-deletes a movement. Deleting a missing or unowned
// movement still answers 204: destructive calls succeed quietly.
func (s *Server) deleteMovement(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		unauthorized(w)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid movement id")
		return
	}
	if err := s.movementSvc.Delete(r.Context(), user.ID, id); err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getBalance returns the user's current balance.
func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r)
	if !ok {
		unauthorized(w)
		return
	}
	total, err := s.movementSvc.CurrentBalance(r.Context(), user.ID)
	if err != nil {
		s.writeDomainErr(w, r, err)
		return
	}
	minor, _ := total.MinorUnits()
	toJSON(w, http.StatusOK, balanceResponse{BalanceMinor: minor, Balance: total.String()})
}
