// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rafaelconde1/aplicativo-novo/auth"
	"github.com/rafaelconde1/aplicativo-novo/middleware"
	"github.com/rafaelconde1/aplicativo-novo/models"
	"github.com/rafaelconde1/aplicativo-novo/testutil"
)

// guard builds the session middleware the router would use
func guard(env *testutil.Env) *middleware.Sessions {
	return middleware.NewSessions(env.Sessions, env.Service)
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestLogin(t *testing.T) {
	env := testutil.NewTestService(t)
	env.CreateTestUser(t, "joao", "joao-pw", false)
	handler := NewAuthHandler(env.Service, env.Sessions)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantAdmin  bool
	}{
		{name: "admin", body: models.LoginRequest{Username: "admin", Password: testutil.AdminPassword}, wantStatus: http.StatusOK, wantAdmin: true},
		{name: "user", body: models.LoginRequest{Username: "joao", Password: "joao-pw"}, wantStatus: http.StatusOK},
		{name: "wrong password", body: models.LoginRequest{Username: "joao", Password: "nope"}, wantStatus: http.StatusUnauthorized},
		{name: "unknown user", body: models.LoginRequest{Username: "maria", Password: "joao-pw"}, wantStatus: http.StatusUnauthorized},
		{name: "empty", body: models.LoginRequest{}, wantStatus: http.StatusUnauthorized},
		{name: "case sensitive", body: models.LoginRequest{Username: "Joao", Password: "joao-pw"}, wantStatus: http.StatusUnauthorized},
		{name: "unknown field", body: map[string]string{"user": "joao"}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/login", tt.body, nil)
			w := httptest.NewRecorder()

			handler.Login(w, req)

			testutil.AssertStatus(t, w, tt.wantStatus)
			cookie := sessionCookie(w)
			if tt.wantStatus != http.StatusOK {
				if cookie != nil {
					t.Error("failed login must not set a session cookie")
				}
				return
			}

			if cookie == nil || !cookie.HttpOnly {
				t.Fatalf("expected HttpOnly session cookie, got %+v", cookie)
			}
			var resp models.LoginResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Identity.IsAdmin != tt.wantAdmin {
				t.Errorf("expected is_admin=%v, got %v", tt.wantAdmin, resp.Identity.IsAdmin)
			}
			if resp.ExpiresAt.IsZero() {
				t.Error("expected expires_at")
			}
		})
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	env := testutil.NewTestService(t)
	handler := NewAuthHandler(env.Service, env.Sessions)

	req := httptest.NewRequest("POST", "/login", nil)
	w := httptest.NewRecorder()
	handler.Login(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestLogout(t *testing.T) {
	env := testutil.NewTestService(t)
	handler := NewAuthHandler(env.Service, env.Sessions)

	req := testutil.WithCookie(testutil.MakeRequest("POST", "/logout", nil, nil), env.LoginCookie(t, testutil.AdminIdentity()))
	w := httptest.NewRecorder()
	handler.Logout(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	cookie := sessionCookie(w)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Errorf("expected cookie to be cleared, got %+v", cookie)
	}

	// Logging out twice is fine
	w = httptest.NewRecorder()
	handler.Logout(w, testutil.MakeRequest("POST", "/logout", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestMe(t *testing.T) {
	env := testutil.NewTestService(t)
	id := env.CreateTestUser(t, "maria", "maria-pw", false)
	handler := NewAuthHandler(env.Service, env.Sessions)
	me := guard(env).RequireSession(handler.Me)

	t.Run("logged in", func(t *testing.T) {
		req := testutil.WithCookie(testutil.MakeRequest("GET", "/me", nil, nil), env.LoginCookie(t, id))
		w := httptest.NewRecorder()
		me(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.LoginResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Identity != id {
			t.Errorf("expected %+v, got %+v", id, resp.Identity)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		me(w, testutil.MakeRequest("GET", "/me", nil, nil))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("promoted since login", func(t *testing.T) {
		cookie := env.LoginCookie(t, id)
		if err := env.Service.DeleteUser(t.Context(), "maria"); err != nil {
			t.Fatal(err)
		}
		env.CreateTestUser(t, "maria", "maria-pw", true)

		w := httptest.NewRecorder()
		me(w, testutil.WithCookie(testutil.MakeRequest("GET", "/me", nil, nil), cookie))

		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.LoginResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Identity.IsAdmin {
			t.Error("admin flag should be refreshed from the credential store")
		}
	})
}

func TestHealth(t *testing.T) {
	env := testutil.NewTestService(t)
	handler := NewAuthHandler(env.Service, env.Sessions)

	w := httptest.NewRecorder()
	handler.Health(w, testutil.MakeRequest("GET", "/health", nil, nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp map[string]string
	testutil.AssertJSON(t, w, &resp)
	if resp["status"] != "ok" || resp["timezone"] != "UTC" {
		t.Errorf("unexpected health response: %v", resp)
	}
}
