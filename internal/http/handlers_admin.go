package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type donationRequest struct {
	DonorName   string `json:"donor_name"`
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	PhoneNumber string `json:"phone_number"`
}

type donationResponse struct {
	ID          string `json:"id"`
	DonorName   string `json:"donor_name"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
	PhoneNumber string `json:"phone_number"`
	CreatedAt   string `json:"created_at"`
}

type grantRequest struct {
	Email string `json:"email"`
}

type grantResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
}

type overviewResponse struct {
	Donations    []donationResponse `json:"donations"`
	Grants       []grantResponse    `json:"grants"`
	TotalDonated string             `json:"total_donated"`
	DonorCount   int                `json:"donor_count"`
	AdminCount   int                `json:"admin_count"`
}

func (s *Server) handleDonations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rows, err := s.admin.ListDonations(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]donationResponse, 0, len(rows))
		for _, d := range rows {
			out = append(out, toDonationResponse(d))
		}
		writeJSON(w, http.StatusOK, struct {
			Donations []donationResponse `json:"donations"`
		}{Donations: out})
	case http.MethodPost:
		var req donationRequest
		if err := decodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		created, err := s.admin.RecordDonation(r.Context(), services.RecordDonationInput{
			DonorName:   sanitizeInput(req.DonorName),
			Amount:      sanitizeInput(req.Amount),
			Method:      core.PaymentMethod(sanitizeInput(req.Method)),
			PhoneNumber: sanitizeInput(req.PhoneNumber),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toDonationResponse(created))
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleDonationByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/donations/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing donation id"})
		return
	}
	if err := s.admin.DeleteDonation(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRoster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req grantRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	email := sanitizeInput(req.Email)
	if email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing email"})
		return
	}
	grant, err := s.admin.GrantAdmin(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGrantResponse(grant))
}

func (s *Server) handleRosterByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/roster/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing grant id"})
		return
	}
	if err := s.admin.RevokeAdmin(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	ov, err := s.admin.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	donations := make([]donationResponse, 0, len(ov.Donations))
	for _, d := range ov.Donations {
		donations = append(donations, toDonationResponse(d))
	}
	grants := make([]grantResponse, 0, len(ov.Grants))
	for _, g := range ov.Grants {
		grants = append(grants, toGrantResponse(g))
	}
	writeJSON(w, http.StatusOK, overviewResponse{
		Donations:    donations,
		Grants:       grants,
		TotalDonated: ov.TotalDonated.Decimal(),
		DonorCount:   ov.DonorCount,
		AdminCount:   ov.AdminCount,
	})
}

func toDonationResponse(d core.Donation) donationResponse {
	return donationResponse{
		ID:          d.ID,
		DonorName:   d.DonorName,
		Amount:      d.Amount.Decimal(),
		AmountCents: d.Amount.Cents,
		Method:      string(d.Method),
		PhoneNumber: d.PhoneNumber,
		CreatedAt:   d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toGrantResponse(g core.AdminGrant) grantResponse {
	return grantResponse{
		ID:        g.ID,
		UserID:    g.UserID,
		CreatedAt: g.CreatedAt.UTC().Format(time.RFC3339),
	}
}
