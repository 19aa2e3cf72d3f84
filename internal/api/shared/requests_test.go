package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Title   string  `json:"title" validate:"required,max=5"`
	DueDate *string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func TestDecodeJSON(t *testing.T) {
	var v sampleRequest
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"a","extra":1}`))
	require.NoError(t, DecodeJSON(req, &v))
	assert.Equal(t, "a", v.Title)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorIs(t, DecodeJSON(req, &v), ErrEmptyBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"a"}{"title":"b"}`))
	assert.Error(t, DecodeJSON(req, &v))
}

func TestValidateRequestReportsJSONNames(t *testing.T) {
	bad := "2025-13-01"
	err := ValidateRequest(&sampleRequest{Title: "a", DueDate: &bad})

	var fieldErrs validator.ValidationErrors
	require.True(t, errors.As(err, &fieldErrs))
	assert.Equal(t, "due_date", fieldErrs[0].Field())
	assert.Equal(t, "datetime", fieldErrs[0].Tag())

	good := "2025-12-01"
	assert.NoError(t, ValidateRequest(&sampleRequest{Title: "a", DueDate: &good}))
}
