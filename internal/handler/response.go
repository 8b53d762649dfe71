package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/saludvia/portal-server-go/internal/errors"
	"github.com/saludvia/portal-server-go/internal/httputil"
	"github.com/saludvia/portal-server-go/internal/util"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// decodeAndValidate decodes a JSON request body into dst and runs struct
// validation over it.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.ValidationError("Invalid JSON body").WithCause(err)
	}
	if err := validate.Struct(dst); err != nil {
		return apperrors.ValidationError("Validation failed").WithDetails(validationDetails(err))
	}
	return nil
}

func validationDetails(err error) any {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}

// uuidParam reads a path parameter that must be a UUID. Malformed ids are
// rejected before they reach a uuid-typed SQL comparison.
func uuidParam(r *http.Request, name string) (string, error) {
	v := chi.URLParam(r, name)
	if !util.IsValidUUID(v) {
		return "", apperrors.InvalidInput(name, "must be a valid id")
	}
	return v, nil
}
