package handlers

import (
	"net/http"

	"github.com/Dosada05/loan-market/services"
)

type PlayerHandler struct {
	playerService services.PlayerService
}

func NewPlayerHandler(playerService services.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: playerService}
}

// RegisterPlayer godoc
// @Summary Register a player under the caller's team
// @Tags players
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Name"
// @Param age formData int true "Age"
// @Param height formData number true "Height"
// @Param position formData string true "Position"
// @Param image formData file true "Photo (.png, .jpg, .jpeg)"
// @Success 201 {object} map[string]interface{} "message, player"
// @Failure 400 {object} map[string]string "Malformed form or image"
// @Failure 409 {object} map[string]string "Player already registered"
// @Failure 422 {object} map[string]interface{} "Validation errors by field"
// @Security BearerAuth
// @Router /players/register [post]
func (h *PlayerHandler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	input, image, cleanup, ok := readPlayerForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	player, err := h.playerService.Register(r.Context(), actorID, input, image)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"message": "Player registered", "player": player}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// EditPlayer godoc
// @Summary Edit one of the caller's players
// @Description Depending on configuration the edit also resets any loan to idle.
// @Tags players
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Player ID"
// @Param name formData string true "Name"
// @Param age formData int true "Age"
// @Param height formData number true "Height"
// @Param position formData string true "Position"
// @Param image formData file false "Photo (.png, .jpg, .jpeg)"
// @Success 200 {object} map[string]interface{} "message, player"
// @Failure 403 {object} map[string]string "Not the owning team"
// @Failure 404 {object} map[string]string "Player not found"
// @Failure 422 {object} map[string]interface{} "Validation errors by field"
// @Security BearerAuth
// @Router /players/edit/{id} [patch]
func (h *PlayerHandler) EditPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actorID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	input, image, cleanup, ok := readPlayerForm(w, r)
	if !ok {
		return
	}
	defer cleanup()

	player, err := h.playerService.Edit(r.Context(), playerID, actorID, input, image)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"message": "Player updated", "player": player}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeletePlayer godoc
// @Summary Delete one of the caller's players
// @Tags players
// @Produce json
// @Param id path int true "Player ID"
// @Success 200 {object} map[string]string "message"
// @Failure 403 {object} map[string]string "Not the owning team"
// @Failure 404 {object} map[string]string "Player not found"
// @Security BearerAuth
// @Router /players/delete/{id} [delete]
func (h *PlayerHandler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	actorID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	if err := h.playerService.Delete(r.Context(), playerID, actorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "Player removed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetPlayerByID godoc
// @Summary Get a player
// @Tags players
// @Produce json
// @Param id path int true "Player ID"
// @Success 200 {object} map[string]interface{} "player"
// @Failure 400 {object} map[string]string "Invalid id"
// @Failure 404 {object} map[string]string "Player not found"
// @Router /players/{id} [get]
func (h *PlayerHandler) GetPlayerByID(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.GetByID(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPlayers godoc
// @Summary List players, newest first
// @Tags players
// @Produce json
// @Success 200 {object} map[string]interface{} "players"
// @Router /players [get]
func (h *PlayerHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.playerService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTeamPlayers godoc
// @Summary List the caller's own players
// @Tags players
// @Produce json
// @Success 200 {object} map[string]interface{} "players"
// @Security BearerAuth
// @Router /players/teamplayers [get]
func (h *PlayerHandler) ListTeamPlayers(w http.ResponseWriter, r *http.Request) {
	teamID, ok := currentTeamID(w, r)
	if !ok {
		return
	}

	players, err := h.playerService.ListByTeam(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// readPlayerForm parses the player fields and optional image. On failure it
// has already written the response.
func readPlayerForm(w http.ResponseWriter, r *http.Request) (services.PlayerInput, *services.ImageUpload, func(), bool) {
	noop := func() {}

	if err := parseForm(w, r); err != nil {
		badRequestResponse(w, r, err)
		return services.PlayerInput{}, nil, noop, false
	}

	errs := services.ValidationErrors{}
	input := services.PlayerInput{
		Name:     r.FormValue("name"),
		Age:      formInt(r, "age", errs),
		Height:   formFloat(r, "height", errs),
		Position: r.FormValue("position"),
	}
	if len(errs) > 0 {
		failedValidationResponse(w, r, errs)
		return services.PlayerInput{}, nil, noop, false
	}

	image, file, err := formImage(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return services.PlayerInput{}, nil, noop, false
	}
	if file == nil {
		return input, nil, noop, true
	}
	return input, image, func() { file.Close() }, true
}
