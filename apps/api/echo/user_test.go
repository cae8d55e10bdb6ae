package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/trezcool/mahudhurio/core/user"
)

func TestUserAPI_login(t *testing.T) {
	app := setup(t)

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
	}{
		{name: "missing credentials", body: LoginRequest{}, wantCode: http.StatusBadRequest},
		{name: "unknown user", body: LoginRequest{Username: "ghost", Password: "pwd"}, wantCode: http.StatusUnauthorized},
		{name: "wrong password", body: LoginRequest{Username: "teach1", Password: "nope"}, wantCode: http.StatusUnauthorized},
		{name: "login with username", body: LoginRequest{Username: "teach1", Password: "pwd"}, wantCode: http.StatusOK},
		{name: "login with email", body: LoginRequest{Username: "t1@test.cd", Password: "pwd"}, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.request(t, http.MethodPost, "/v1/users/login", "", tt.body)
			if rec.Code != tt.wantCode {
				t.Errorf("POST /v1/users/login = %d (%s), want %d", rec.Code, rec.Body.String(), tt.wantCode)
			}
			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				decodeBody(t, rec, &resp)
				if resp.Token == "" {
					t.Error("login response has no token")
				}
			}
		})
	}
}

func TestUserAPI_login_deactivated(t *testing.T) {
	app := setup(t)

	isActive := false
	usr := app.stdUsr
	usr.IsActive = isActive
	if _, err := app.usrRepo.UpdateUser(context.Background(), usr, &isActive); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}

	rec := app.request(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Username: "jane01", Password: "pwd"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("POST /v1/users/login = %d, want 401", rec.Code)
	}
}

func TestUserAPI_adminOnly(t *testing.T) {
	app := setup(t)

	// listing users requires admin
	rec := app.request(t, http.MethodGet, "/v1/users", app.token(t, app.teacher), nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("GET /v1/users as teacher = %d, want 403", rec.Code)
	}
	rec = app.request(t, http.MethodGet, "/v1/users", app.token(t, app.admin), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /v1/users as admin = %d, want 200", rec.Code)
	}

	// no token at all
	rec = app.request(t, http.MethodGet, "/v1/users", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /v1/users without token = %d, want 401", rec.Code)
	}
}

func TestUserAPI_roles(t *testing.T) {
	app := setup(t)

	rec := app.request(t, http.MethodGet, "/v1/users/roles", app.token(t, app.admin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /v1/users/roles = %d, want 200", rec.Code)
	}
	if !jsonBodyEqual(t, rec, user.Roles) {
		t.Errorf("GET /v1/users/roles body = %s", rec.Body.String())
	}
}
