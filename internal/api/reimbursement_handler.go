package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/reimburse-api/internal/api/shared"
	"github.com/phrazzld/reimburse-api/internal/domain"
	"github.com/phrazzld/reimburse-api/internal/service"
)

// ReimbursementHandler serves the /reimbursements endpoints.
type ReimbursementHandler struct {
	reimbursements service.ReimbursementService
	logger         *slog.Logger
}

// NewReimbursementHandler creates a new ReimbursementHandler.
func NewReimbursementHandler(reimbursements service.ReimbursementService, logger *slog.Logger) *ReimbursementHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReimbursementHandler{
		reimbursements: reimbursements,
		logger:         logger.With(slog.String("component", "reimbursement_handler")),
	}
}

// Create handles POST /reimbursements.
func (h *ReimbursementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReimbursementRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		respondInvalidBody(w, r, err)
		return
	}

	created, err := h.reimbursements.AddReimbursement(r.Context(), req.Description, req.Amount, req.Username)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create reimbursement")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, created)
}

// Resolve handles PUT /reimbursements. Admin only.
func (h *ReimbursementHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveReimbursementRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		respondInvalidBody(w, r, err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	resolved, err := h.reimbursements.ResolveReimbursement(
		r.Context(), shared.GetCaller(r.Context()), req.ReimbursementID, req.Status)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to resolve reimbursement")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resolved)
}

// ListAll handles GET /reimbursements/all/{pending}. Admin only.
func (h *ReimbursementHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	pending, err := getPathBool(r, "pending")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	caller := shared.GetCaller(r.Context())
	var list []*domain.Reimbursement
	if pending {
		list, err = h.reimbursements.GetAllPendingReimbursements(r.Context(), caller)
	} else {
		list, err = h.reimbursements.GetAllReimbursements(r.Context(), caller)
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reimbursements")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(list))
}

// ListForUser handles GET /reimbursements/user/{pending}/{username}.
func (h *ReimbursementHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	pending, err := getPathBool(r, "pending")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	username := chi.URLParam(r, "username")

	var list []*domain.Reimbursement
	if pending {
		list, err = h.reimbursements.GetPendingUserReimbursements(r.Context(), username)
	} else {
		list, err = h.reimbursements.GetUserReimbursements(r.Context(), username)
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reimbursements")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, nonNil(list))
}

// TotalPending handles GET /reimbursements/amount/{username}.
// The body is a bare JSON integer.
func (h *ReimbursementHandler) TotalPending(w http.ResponseWriter, r *http.Request) {
	total, err := h.reimbursements.GetTotalPendingAmount(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to total pending reimbursements")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, total)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
