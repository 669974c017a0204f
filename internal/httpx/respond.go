// internal/httpx/respond.go
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"

	"clubverse/internal/validation"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/schema"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// ErrBodyTooLarge is returned by Decode for bodies over the size cap.
var ErrBodyTooLarge = errors.New("request body too large")

// formDecoder fills the same structs as the JSON decoder, keyed by their
// json tags. Unknown keys such as the CSRF token field are skipped.
var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("json")
	d.IgnoreUnknownKeys(true)
	d.RegisterConverter(json.Number(""), func(s string) reflect.Value {
		return reflect.ValueOf(json.Number(s))
	})
	return d
}()

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// Mapping sends errors matching Err (errors.Is) to an HTTP status and code.
type Mapping struct {
	Err    error
	Status int
	Code   string
}

var validationMappings = []Mapping{
	{validation.ErrMissingField, http.StatusBadRequest, "missing_field"},
	{validation.ErrInvalidFormat, http.StatusBadRequest, "invalid_format"},
	{ErrBodyTooLarge, http.StatusRequestEntityTooLarge, "body_too_large"},
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Decode reads the request body into dst. JSON is the default; urlencoded
// form posts fill the same json-tagged fields.
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		return decodeForm(r, dst)
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if tooLarge(err) {
			return ErrBodyTooLarge
		}
		return validation.NewFieldError("body", validation.ErrInvalidFormat, fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

func decodeForm(r *http.Request, dst interface{}) error {
	// already parsed when the CSRF middleware read the token
	if err := r.ParseForm(); err != nil {
		if tooLarge(err) {
			return ErrBodyTooLarge
		}
		return validation.NewFieldError("body", validation.ErrInvalidFormat, fmt.Sprintf("invalid form body: %v", err))
	}
	if err := formDecoder.Decode(dst, r.PostForm); err != nil {
		return validation.NewFieldError("body", validation.ErrInvalidFormat, fmt.Sprintf("invalid form body: %v", err))
	}
	return nil
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// WriteError maps err onto a response. Mappings are checked first, then the
// shared validation errors; anything unmatched is logged and reported as 500.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, mappings ...Mapping) {
	var field string
	var fe *validation.FieldError
	if errors.As(err, &fe) {
		field = fe.Field
	}

	for _, m := range append(mappings, validationMappings...) {
		if errors.Is(err, m.Err) {
			JSON(w, m.Status, ErrorBody{Error: err.Error(), Code: m.Code, Field: field})
			return
		}
	}

	logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	JSON(w, http.StatusInternalServerError, ErrorBody{
		Error: "Server error occurred. Please try again.",
		Code:  "internal",
	})
}
