package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/loan-market/logger"
	"github.com/Dosada05/loan-market/middleware"
	"github.com/Dosada05/loan-market/services"
)

type jsonResponse map[string]interface{}

// maxFormBytes bounds a whole multipart request: the image plus text fields.
const maxFormBytes = services.MaxImageSize + 1<<20

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// parseForm accepts multipart bodies and falls back to url-encoded ones.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	err := r.ParseMultipartForm(maxFormBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return fmt.Errorf("request body must not be larger than %d bytes", maxFormBytes)
		}
		return fmt.Errorf("invalid form body: %w", err)
	}
	return nil
}

// formImage returns the optional "image" file of a parsed multipart form.
// The caller closes the returned file when it is not nil.
func formImage(r *http.Request) (*services.ImageUpload, multipart.File, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("invalid image upload: %w", err)
	}

	return &services.ImageUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Reader:   file,
	}, file, nil
}

func formInt(r *http.Request, field string, errs services.ValidationErrors) int {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		errs[field] = "must be a whole number"
	}
	return v
}

func formFloat(r *http.Request, field string, errs services.ValidationErrors) float64 {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errs[field] = "must be a number"
	}
	return v
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %d", paramName, id)
	}
	return id, nil
}

// currentTeamID writes a 401 and returns false when the request carries no team.
func currentTeamID(w http.ResponseWriter, r *http.Request) (int, bool) {
	teamID, err := middleware.GetTeamIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return 0, false
	}
	return teamID, true
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	if err := writeJSON(w, status, env, nil); err != nil {
		logger.FromContext(r.Context()).Error("failed to write error response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Error("internal server error",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	errorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "the requested resource could not be found"
	}
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP turns a service error into the matching HTTP response.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors services.ValidationErrors

	switch {
	case errors.As(err, &validationErrors):
		failedValidationResponse(w, r, validationErrors)

	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrPlayerNotFound):
		notFoundResponse(w, r, err.Error())

	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrTeamEmailConflict),
		errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrPlayerConflict):
		conflictResponse(w, r, err.Error())

	case errors.Is(err, services.ErrInvalidImage):
		badRequestResponse(w, r, err)

	case errors.Is(err, services.ErrInvalidCredentials):
		unauthorizedResponse(w, r, err.Error())

	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrTeamRequired):
		forbiddenResponse(w, r, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}
