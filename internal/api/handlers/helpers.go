package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate checks the `validate` struct tags of decoded request bodies.
// Field names in error messages use the json tag, not the Go field name.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSONBody decodes a JSON request body into the provided pointer and
// checks its validate tags.
// Returns true if successful, false if decoding or validation fails (error
// response is written automatically).
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "Invalid request body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		badRequest(w, validationDetail(err))
		return false
	}
	return true
}

// validationDetail renders the first failed field check as a client-facing
// message.
func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			return fe.Field() + " is required"
		}
		return fe.Field() + " is invalid"
	}
	return "Invalid request body"
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent.
// Returns false if the value does not parse (error response is written
// automatically).
func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(w, name+" must be an integer")
		return 0, false
	}
	return n, true
}
