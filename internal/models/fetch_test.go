package models

import (
	"encoding/json"
	"testing"

	"github.com/aleister1102/faleproxy/internal/common/errorwrapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRequest_Validate(t *testing.T) {
	assert.NoError(t, FetchRequest{URL: "yale.edu"}.Validate())

	err := FetchRequest{}.Validate()
	require.Error(t, err)

	var validationErr *errorwrapper.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "url", validationErr.Field)
	assert.Equal(t, MissingURLMessage, validationErr.Message)
	assert.ErrorIs(t, err, errorwrapper.ErrInvalidInput)
}

func TestFetchResponse_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(FetchResponse{
		Success:     true,
		Content:     "<html></html>",
		Title:       "Fale",
		OriginalURL: "yale.edu",
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"success":true,"content":"<html></html>","title":"Fale","originalUrl":"yale.edu"}`, string(data))
}

func TestFetchRequest_DecodeMissingField(t *testing.T) {
	var req FetchRequest
	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	assert.Empty(t, req.URL)
	assert.Error(t, req.Validate())
}
