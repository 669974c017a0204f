package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"clubverse/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type signup struct {
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Guests json.Number `json:"guests"`
}

func TestDecodeJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Anmol","guests":4}`))
	r.Header.Set("Content-Type", "application/json")

	var got signup
	require.NoError(t, Decode(httptest.NewRecorder(), r, &got))
	assert.Equal(t, "Anmol", got.Name)
	assert.Equal(t, json.Number("4"), got.Guests)
}

func TestDecodeForm(t *testing.T) {
	form := url.Values{
		"name":               {"Anmol Singh"},
		"email":              {"anmol@example.com"},
		"guests":             {"6"},
		"gorilla.csrf.Token": {"ignored"},
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	var got signup
	require.NoError(t, Decode(httptest.NewRecorder(), r, &got))
	assert.Equal(t, signup{Name: "Anmol Singh", Email: "anmol@example.com", Guests: "6"}, got)
}

func TestDecodeBadJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	err := Decode(httptest.NewRecorder(), r, &signup{})
	assert.ErrorIs(t, err, validation.ErrInvalidFormat)
}

func TestDecodeBodyTooLarge(t *testing.T) {
	big := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	err := Decode(w, r, &signup{})
	require.ErrorIs(t, err, ErrBodyTooLarge)

	WriteError(w, r, zap.NewNop(), err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"body_too_large"`)
}

func TestWriteErrorUnmapped(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	WriteError(w, r, zap.NewNop(), assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
