package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAuthFlow_LoginAndMe(t *testing.T) {
	app := setupApp(t)
	app.seedUser(t, "admin@test.com", "password123", "admin")

	token := app.login(t, "admin@test.com", "password123")

	rec := app.request("GET", "/api/v1/auth/me", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["email"] != "admin@test.com" {
		t.Errorf("expected email admin@test.com, got %v", user["email"])
	}
	if user["role"] != "admin" {
		t.Errorf("expected role admin, got %v", user["role"])
	}
}

func TestAuthFlow_LoginWrongPassword(t *testing.T) {
	app := setupApp(t)
	app.seedUser(t, "admin@test.com", "password123", "admin")

	rec := app.request("POST", "/api/v1/auth/login",
		`{"email":"admin@test.com","password":"wrongpassword"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "INVALID_CREDENTIALS")
}

func TestAuthFlow_MeWithoutToken(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/auth/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = app.request("GET", "/api/v1/auth/me", "", "invalid-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with invalid token, got %d", rec.Code)
	}
}

func TestAuthFlow_RegisterAndFirstLogin(t *testing.T) {
	app := setupApp(t)
	app.seedUser(t, "admin@test.com", "password123", "admin")
	adminToken := app.login(t, "admin@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/register",
		`{"first_name":"Nora","last_name":"Vega","email":"nora@test.com","role":"user"}`, adminToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["email"] != "nora@test.com" {
		t.Errorf("expected email nora@test.com, got %v", user["email"])
	}

	// The initial password arrives by mail; the new user logs in with it.
	initialPassword := app.Mailer.welcomePassword("nora@test.com")
	if initialPassword == "" {
		t.Fatal("expected a welcome mail with the initial password")
	}
	userToken := app.login(t, "nora@test.com", initialPassword)

	// A plain user cannot register other users.
	rec = app.request("POST", "/api/v1/auth/register",
		`{"first_name":"Eve","last_name":"Soto","email":"eve@test.com","role":"user"}`, userToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user-role registration, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "PERMISSION_DENIED")

	// Duplicate email is rejected.
	rec = app.request("POST", "/api/v1/auth/register",
		`{"first_name":"Nora","last_name":"Vega","email":"nora@test.com","role":"user"}`, adminToken)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "DUPLICATE_EMAIL")
}

func TestAuthFlow_RegisterWithoutToken(t *testing.T) {
	app := setupApp(t)

	rec := app.request("POST", "/api/v1/auth/register",
		`{"first_name":"Eve","last_name":"Soto","email":"eve@test.com","role":"user"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthFlow_ChangePassword(t *testing.T) {
	app := setupApp(t)
	app.seedUser(t, "user@test.com", "oldpassword1", "user")
	token := app.login(t, "user@test.com", "oldpassword1")

	// Wrong current password is rejected.
	rec := app.request("PUT", "/api/v1/auth/password",
		`{"current_password":"nope","new_password":"newpassword1"}`, token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong current password, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "INVALID_CREDENTIALS")

	rec = app.request("PUT", "/api/v1/auth/password",
		`{"current_password":"oldpassword1","new_password":"newpassword1"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("change password failed: %d %s", rec.Code, rec.Body.String())
	}

	// The old password no longer works, the new one does.
	rec = app.request("POST", "/api/v1/auth/login",
		`{"email":"user@test.com","password":"oldpassword1"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with old password, got %d", rec.Code)
	}
	app.login(t, "user@test.com", "newpassword1")
}

func TestAuthFlow_PasswordReset(t *testing.T) {
	app := setupApp(t)
	app.seedUser(t, "user@test.com", "forgotten1", "user")

	rec := app.request("POST", "/api/v1/auth/forgot-password",
		`{"email":"user@test.com"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot-password failed: %d %s", rec.Code, rec.Body.String())
	}

	resetToken := app.Mailer.resetToken("user@test.com")
	if resetToken == "" {
		t.Fatal("expected a reset mail with the token")
	}

	body := fmt.Sprintf(`{"token":%q,"new_password":"resetpassword1"}`, resetToken)
	rec = app.request("POST", "/api/v1/auth/reset-password", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset-password failed: %d %s", rec.Code, rec.Body.String())
	}
	app.login(t, "user@test.com", "resetpassword1")

	// The token is single use; the password change invalidated it.
	rec = app.request("POST", "/api/v1/auth/reset-password", body, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for reused reset token, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "INVALID_RESET_TOKEN")
}

func TestAuthFlow_ResetRejectsAccessToken(t *testing.T) {
	app := setupApp(t)
	app.seedUser(t, "user@test.com", "password123", "user")
	accessToken := app.login(t, "user@test.com", "password123")

	body := fmt.Sprintf(`{"token":%q,"new_password":"resetpassword1"}`, accessToken)
	rec := app.request("POST", "/api/v1/auth/reset-password", body, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for access token in reset, got %d: %s", rec.Code, rec.Body.String())
	}
	assertErrorCode(t, rec, "INVALID_RESET_TOKEN")
}

func TestAuthFlow_ForgotPasswordUnknownEmail(t *testing.T) {
	app := setupApp(t)

	// Unknown emails get the same 200 as known ones and no mail.
	rec := app.request("POST", "/api/v1/auth/forgot-password",
		`{"email":"nobody@test.com"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if app.Mailer.resetToken("nobody@test.com") != "" {
		t.Error("expected no reset mail for an unknown email")
	}
}
