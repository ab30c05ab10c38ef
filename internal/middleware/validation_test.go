package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"inventory-api/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Any missing required field fails validation with a bad request
func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeUsername bool, includeEmail bool, includePassword bool) bool {
			reqMap := make(map[string]interface{})
			if includeUsername {
				reqMap["username"] = "jane"
			}
			if includeEmail {
				reqMap["email"] = "jane@example.com"
			}
			if includePassword {
				reqMap["password"] = "secret"
			}

			allFieldsPresent := includeUsername && includeEmail && includePassword

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/api/register", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var body credentialsRequest
			err := DecodeAndValidate(req, &body)

			if allFieldsPresent {
				return err == nil
			}
			return errors.Is(err, domain.ErrBadRequest) && len(FormatValidationErrors(err)) > 0
		},
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestValidationErrorsUseJSONFieldNames(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/register", strings.NewReader(`{"username":"jane"}`))

	var body credentialsRequest
	err := DecodeAndValidate(req, &body)
	require.Error(t, err)

	fields := FormatValidationErrors(err)
	require.Len(t, fields, 2)
	assert.Equal(t, "email", fields[0].Field)
	assert.Equal(t, "password", fields[1].Field)
	assert.Equal(t, "This field is required", fields[0].Message)
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	for _, raw := range []string{"", "{", `{"username": 5}`, "[]"} {
		req := httptest.NewRequest("POST", "/api/register", strings.NewReader(raw))

		var body credentialsRequest
		err := DecodeAndValidate(req, &body)
		assert.ErrorIs(t, err, domain.ErrBadRequest, "body %q", raw)
		assert.Empty(t, FormatValidationErrors(err), "body %q", raw)
	}
}

func TestOversizedBodyIsRejected(t *testing.T) {
	payload := `{"username":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest("POST", "/api/register", strings.NewReader(payload))

	var body credentialsRequest
	assert.ErrorIs(t, DecodeAndValidate(req, &body), domain.ErrBadRequest)
}
