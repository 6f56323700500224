package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/loan-market/middleware"
	"github.com/Dosada05/loan-market/models"
	"github.com/Dosada05/loan-market/services"
)

type AuthHandler struct {
	authService services.AuthService
	teamService services.TeamService
	tokens      *middleware.TokenAuth
}

func NewAuthHandler(authService services.AuthService, teamService services.TeamService, tokens *middleware.TokenAuth) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		teamService: teamService,
		tokens:      tokens,
	}
}

// Register godoc
// @Summary Register a team
// @Tags teams
// @Accept json
// @Produce json
// @Param input body services.RegisterInput true "Team profile"
// @Success 201 {object} map[string]interface{} "message, token, teamId"
// @Failure 400 {object} map[string]string "Malformed body"
// @Failure 409 {object} map[string]string "Email or name already taken"
// @Failure 422 {object} map[string]interface{} "Validation errors by field"
// @Router /teams/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusCreated, "You are now registered", team)
}

// Login godoc
// @Summary Log a team in
// @Tags teams
// @Accept json
// @Produce json
// @Param input body services.LoginInput true "Credentials"
// @Success 200 {object} map[string]interface{} "message, token, teamId"
// @Failure 401 {object} map[string]string "Invalid email or password"
// @Failure 422 {object} map[string]interface{} "Validation errors by field"
// @Router /teams/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.respondWithToken(w, r, http.StatusOK, "You are now logged in", team)
}

// CheckTeam godoc
// @Summary Resolve the team behind a token
// @Description Without a token the team is null; an invalid token is rejected.
// @Tags teams
// @Produce json
// @Success 200 {object} map[string]interface{} "team"
// @Failure 401 {object} map[string]string "Invalid token"
// @Security BearerAuth
// @Router /teams/checkteam [get]
func (h *AuthHandler) CheckTeam(w http.ResponseWriter, r *http.Request) {
	var team *models.Team

	teamID, err := middleware.GetTeamIDFromContext(r.Context())
	if err == nil {
		team, err = h.teamService.GetByID(r.Context(), teamID)
		if err != nil && !errors.Is(err, services.ErrTeamNotFound) {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, message string, team *models.Team) {
	token, err := h.tokens.Issue(team)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	response := jsonResponse{
		"message": message,
		"token":   token,
		"teamId":  team.ID,
	}
	if err := writeJSON(w, status, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
