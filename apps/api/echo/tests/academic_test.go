package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_academicApi_currentPeriod(t *testing.T) {
	path := "/v1/academic/current"

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, path)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
	})

	t.Run("active term and semester", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, presidentUser))
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeBody(t, rec)
		assert.Equal(t, activeTerm.ID, body["term_id"])
		assert.Equal(t, activeSemester.ID, body["semester_id"])
	})
}

func Test_academicApi_createTerm(t *testing.T) {
	path := "/v1/academic/terms"
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	payload := marshallObj(t, echo.Map{
		"school_year":      "2026-2027",
		"start_date":       start,
		"end_date":         start.AddDate(1, 0, 0),
		"submission_open":  start,
		"submission_close": start.AddDate(0, 10, 0),
	})

	tests := []httpTest{
		{name: "auth required", body: payload, wantCode: http.StatusUnauthorized},
		{name: "osas required", body: payload, token: getToken(t, presidentUser), wantCode: http.StatusForbidden},
		{name: "created inactive", body: payload, token: getToken(t, osasUser), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusCreated {
				return
			}
			body := decodeBody(t, rec)
			term, ok := body["term"].(map[string]interface{})
			require.True(t, ok, rec.Body.String())
			assert.Equal(t, "2026-2027", term["school_year"])
			assert.Equal(t, "archived", term["status"])
		})
	}

	// the active term is untouched by creating a new one
	req, rec := newAuthRequest(http.MethodGet, "/v1/academic/current", getToken(t, osasUser))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, activeTerm.ID, decodeBody(t, rec)["term_id"])
}
