package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/studydeck/studydeck/internal/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeAndValidate decodes a JSON request body into v and runs struct
// validation, translating failures into AppErrors.
func decodeAndValidate(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewBadRequestError("invalid JSON body")
	}
	if err := validate.Struct(v); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return errors.NewValidationError(verrs[0].Field(), "failed "+verrs[0].Tag()+" validation")
		}
		return errors.NewBadRequestError("invalid request")
	}
	return nil
}
