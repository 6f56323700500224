package handlers

import (
	"net/http"

	"github.com/Dosada05/loan-market/services"
)

type TeamHandler struct {
	teamService services.TeamService
}

func NewTeamHandler(teamService services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

// ListTeams godoc
// @Summary List teams, newest first
// @Tags teams
// @Produce json
// @Success 200 {object} map[string]interface{} "teams"
// @Router /teams [get]
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetTeamByID godoc
// @Summary Get a team
// @Tags teams
// @Produce json
// @Param id path int true "Team ID"
// @Success 200 {object} map[string]interface{} "team"
// @Failure 400 {object} map[string]string "Invalid id"
// @Failure 404 {object} map[string]string "Team not found"
// @Router /teams/{id} [get]
func (h *TeamHandler) GetTeamByID(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.teamService.GetByID(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateTeam godoc
// @Summary Edit the caller's team
// @Tags teams
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Team ID"
// @Param name formData string true "Name"
// @Param email formData string true "Email"
// @Param country formData string true "Country"
// @Param league formData string true "League"
// @Param password formData string false "New password"
// @Param confirmpassword formData string false "New password again"
// @Param image formData file false "Crest (.png, .jpg, .jpeg)"
// @Success 200 {object} map[string]interface{} "message, team"
// @Failure 403 {object} map[string]string "Not the caller's team"
// @Failure 409 {object} map[string]string "Email or name already taken"
// @Failure 422 {object} map[string]interface{} "Validation errors by field"
// @Security BearerAuth
// @Router /teams/edit/{id} [patch]
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actorID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	if err := parseForm(w, r); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	image, file, err := formImage(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if file != nil {
		defer file.Close()
	}

	input := services.UpdateTeamInput{
		Name:            r.FormValue("name"),
		Email:           r.FormValue("email"),
		Country:         r.FormValue("country"),
		League:          r.FormValue("league"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirmpassword"),
	}

	team, err := h.teamService.Update(r.Context(), teamID, actorID, input, image)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"message": "Team updated", "team": team}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
