package render

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_JSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		data := map[string]any{"key1": 1, "key2": "222"}
		JSON(w, data)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"key1":1,"key2":"222"}`+"\n", string(body))
}

func TestRender_ServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		message := "something terrible happened"
		ServiceError(w, message, http.StatusForbidden)
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{
			"error": "service_error",
			"message": "something terrible happened"
		}`,
		string(body),
	)
}

func TestRender_ValidationFields(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		ValidationFields(w, map[string]string{
			"amount":       "Must be greater than 0",
			"transferDate": "Must be a parseable date",
		})
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.JSONEq(t, `{
			"error": "validation_failed",
			"message": "Request validation failed",
			"fields": {
				"amount": "Must be greater than 0",
				"transferDate": "Must be a parseable date"
			}
		}`,
		string(body),
	)
}

func TestRender_BindAndValidate(t *testing.T) {
	type payload struct {
		BankCode string          `json:"bankCode" validate:"required"`
		Amount   decimal.Decimal `json:"amount" validate:"required,gt=0"`
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value, err := BindAndValidate[payload](w, r)
		if err != nil {
			return
		}

		JSON(w, map[string]string{"bankCode": value.BankCode, "amount": value.Amount.String()})
	}))
	defer ts.Close()

	tests := []struct {
		name     string
		body     string
		code     int
		expected string
	}{
		{
			name:     "valid payload",
			body:     `{"bankCode": "BCA", "amount": 150000}`,
			code:     http.StatusOK,
			expected: `{"bankCode": "BCA", "amount": "150000"}`,
		},
		{
			name: "decimal field respected by gt tag",
			body: `{"bankCode": "BCA", "amount": -1}`,
			code: http.StatusBadRequest,
			expected: `{
				"error": "validation_failed",
				"message": "Request validation failed",
				"fields": {"amount": "Must be greater than 0"}
			}`,
		},
		{
			name: "fields named after json tags",
			body: `{"amount": 150000}`,
			code: http.StatusBadRequest,
			expected: `{
				"error": "validation_failed",
				"message": "Request validation failed",
				"fields": {"bankCode": "This field is required"}
			}`,
		},
		{
			name: "broken json",
			body: `{"bankCode": `,
			code: http.StatusBadRequest,
			expected: `{
				"error": "decoding_failed",
				"message": "Failed to parse JSON: unexpected EOF"
			}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/test", "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			require.Equalf(t, tc.code, resp.StatusCode, "not expected code. Body: %s", string(body))
			assert.JSONEq(t, tc.expected, string(body))
		})
	}
}
