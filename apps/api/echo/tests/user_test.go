package tests

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/swaaagray/saoms/apps/api/echo"
	"github.com/swaaagray/saoms/core"
)

func Test_userApi_login(t *testing.T) {
	path := "/v1/users/login"

	tests := []httpTest{
		{name: "empty body", body: marshallObj(t, echo.Map{}), wantCode: http.StatusBadRequest},
		{
			name:     "unknown user",
			body:     marshallObj(t, echo.Map{"username": "ghost", "password": "Str0ngPassw0rd!"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "wrong password",
			body:     marshallObj(t, echo.Map{"username": "osas", "password": "nope-nope"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "login with username",
			body:     marshallObj(t, echo.Map{"username": "osas", "password": "Str0ngPassw0rd!"}),
			wantCode: http.StatusOK,
			extra:    core.RoleOsas,
		},
		{
			name:     "login with email",
			body:     marshallObj(t, echo.Map{"username": "PRES@test.test", "password": "Str0ngPassw0rd!"}),
			wantCode: http.StatusOK,
			extra:    core.RoleOrgPresident,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, path, tt.body)
			app.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			if tt.wantCode != http.StatusOK {
				assert.Equal(t, false, body["success"])
				return
			}
			assert.Equal(t, true, body["success"])
			assert.NotEmpty(t, body["token"])
			assert.Equal(t, tt.extra, body["role"])
			assert.Equal(t, false, body["must_update_info"])
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	path := "/v1/users/token-refresh"

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, path)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
	})

	t.Run("refresh ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, getToken(t, osasUser))
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.NotEmpty(t, body["token"])
	})
}

func Test_userApi_me(t *testing.T) {
	req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", getToken(t, presidentUser))
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	usr, ok := body["user"].(map[string]interface{})
	require.True(t, ok, rec.Body.String())
	assert.Equal(t, presidentUser.Username, usr["username"])
	assert.Equal(t, core.RoleOrgPresident, usr["role"])
	assert.Equal(t, fixtureOrg.ID, usr["organization_id"])
}

func Test_userApi_infoUpdateGate(t *testing.T) {
	claims := echoapi.GetUserClaims(conf, presidentUser, true)
	token, err := echoapi.GenerateToken(conf, claims)
	require.NoError(t, err)

	t.Run("protected routes blocked", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/documents", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), "/v1/owner/info")
	})

	t.Run("exempt routes pass", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	// the org carries fresh names, so a refresh re-checks and lifts the gate
	t.Run("refresh recomputes the flag", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		refreshed, _ := decodeBody(t, rec)["token"].(string)
		require.NotEmpty(t, refreshed)

		req, rec = newAuthRequest(http.MethodGet, "/v1/documents", refreshed)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func Test_userApi_createUser(t *testing.T) {
	path := "/v1/users/register"
	payload := func(uname, email string) []byte {
		return marshallObj(t, echo.Map{
			"name":             "Mara Diaz",
			"username":         uname,
			"email":            email,
			"role":             core.RoleMisCoordinator,
			"college_id":       "",
			"password":         "Str0ngPassw0rd!",
			"password_confirm": "Str0ngPassw0rd!",
		})
	}

	tests := []httpTest{
		{name: "auth required", body: payload("mara", "mara@test.test"), wantCode: http.StatusUnauthorized},
		{
			name:     "osas required",
			body:     payload("mara", "mara@test.test"),
			token:    getToken(t, presidentUser),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "created",
			body:     payload("mara", "mara@test.test"),
			token:    getToken(t, osasUser),
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate username",
			body:     payload("mara", "mara2@test.test"),
			token:    getToken(t, osasUser),
			wantCode: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode == http.StatusCreated {
				body := decodeBody(t, rec)
				usr, ok := body["user"].(map[string]interface{})
				require.True(t, ok, rec.Body.String())
				assert.Equal(t, "mara", usr["username"])
			}
		})
	}
}
