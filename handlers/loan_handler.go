package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/loan-market/models"
	"github.com/Dosada05/loan-market/services"
)

type LoanHandler struct {
	loanService services.LoanService
}

func NewLoanHandler(loanService services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

type loanTransition func(ctx context.Context, playerID, actorID int) (*models.Player, error)

// RequestLoan godoc
// @Summary Ask to borrow a player
// @Tags loans
// @Produce json
// @Param id path int true "Player ID"
// @Success 200 {object} map[string]interface{} "message, player"
// @Failure 403 {object} map[string]string "Own player"
// @Failure 404 {object} map[string]string "Player not found"
// @Failure 409 {object} map[string]string "Already requested, negotiating with another team or lent"
// @Security BearerAuth
// @Router /players/loan/{id} [patch]
func (h *LoanHandler) RequestLoan(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.loanService.RequestLoan, "Loan requested")
}

// QuitLoan godoc
// @Summary Withdraw the caller's pending loan request
// @Tags loans
// @Produce json
// @Param id path int true "Player ID"
// @Success 200 {object} map[string]interface{} "message, player"
// @Failure 403 {object} map[string]string "Own player"
// @Failure 409 {object} map[string]string "Not negotiating or already finalized"
// @Security BearerAuth
// @Router /players/loan/quit/{id} [patch]
func (h *LoanHandler) QuitLoan(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.loanService.QuitLoan, "Loan request withdrawn")
}

// ConcludeLoan godoc
// @Summary Accept the pending loan request for one of the caller's players
// @Tags loans
// @Produce json
// @Param id path int true "Player ID"
// @Success 200 {object} map[string]interface{} "message, player"
// @Failure 403 {object} map[string]string "Not the owning team"
// @Failure 409 {object} map[string]string "No interested team or already lent"
// @Security BearerAuth
// @Router /players/concludeloan/{id} [patch]
func (h *LoanHandler) ConcludeLoan(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.loanService.ConcludeLoan, "Loan concluded")
}

// Decline godoc
// @Summary Reject the pending loan request for one of the caller's players
// @Tags loans
// @Produce json
// @Param id path int true "Player ID"
// @Success 200 {object} map[string]interface{} "message, player"
// @Failure 403 {object} map[string]string "Not the owning team"
// @Failure 409 {object} map[string]string "No interested team or already accepted"
// @Security BearerAuth
// @Router /players/concludeloan/decline/{id} [patch]
func (h *LoanHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.loanService.Decline, "Loan request declined")
}

func (h *LoanHandler) transition(w http.ResponseWriter, r *http.Request, apply loanTransition, message string) {
	playerID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actorID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	player, err := apply(r.Context(), playerID, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": message, "player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListRequested godoc
// @Summary Players the caller has asked to borrow
// @Tags loans
// @Produce json
// @Success 200 {object} map[string]interface{} "players"
// @Security BearerAuth
// @Router /players/loan/players [get]
func (h *LoanHandler) ListRequested(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.loanService.ListRequested)
}

// ListIncomingRequests godoc
// @Summary The caller's players with a pending request
// @Tags loans
// @Produce json
// @Success 200 {object} map[string]interface{} "players"
// @Security BearerAuth
// @Router /players/loan/myplayers [get]
func (h *LoanHandler) ListIncomingRequests(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.loanService.ListIncomingRequests)
}

// ListLent godoc
// @Summary The caller's players out on loan
// @Tags loans
// @Produce json
// @Success 200 {object} map[string]interface{} "players"
// @Security BearerAuth
// @Router /players/concludedloans [get]
func (h *LoanHandler) ListLent(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.loanService.ListLent)
}

// ListBorrowed godoc
// @Summary Players on loan to the caller
// @Tags loans
// @Produce json
// @Success 200 {object} map[string]interface{} "players"
// @Security BearerAuth
// @Router /players/loan/newplayers [get]
func (h *LoanHandler) ListBorrowed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.loanService.ListBorrowed)
}

func (h *LoanHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int) ([]models.Player, error)) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	players, err := fetch(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Overview godoc
// @Summary All four loan lists of the caller at once
// @Tags loans
// @Produce json
// @Success 200 {object} services.LoanOverview
// @Security BearerAuth
// @Router /players/loan/overview [get]
func (h *LoanHandler) Overview(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	overview, err := h.loanService.Overview(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, overview, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
