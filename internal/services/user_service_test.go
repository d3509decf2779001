package services

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"gestops/internal/models"
	"gestops/internal/testutil"
)

// recordingMailer captures outgoing mail for assertions.
type recordingMailer struct {
	welcomeTo       string
	welcomePassword string
	resetTo         string
	resetToken      string
}

var _ Mailer = (*recordingMailer)(nil)

func (m *recordingMailer) SendWelcome(to, name, initialPassword string) error {
	m.welcomeTo = to
	m.welcomePassword = initialPassword
	return nil
}

func (m *recordingMailer) SendPasswordReset(to, name, resetToken string) error {
	m.resetTo = to
	m.resetToken = resetToken
	return nil
}

func TestUserServiceCreate(t *testing.T) {
	t.Run("creates_user_and_mails_initial_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		mailer := &recordingMailer{}
		service := NewUserService(db, mailer)

		user, err := service.CreateUser("Ana", "Diaz", "ana@example.com", "user")
		testutil.AssertNoError(t, err)

		if user.Role != models.RoleUser {
			t.Errorf("unexpected role %q", user.Role)
		}
		if mailer.welcomeTo != "ana@example.com" {
			t.Errorf("expected welcome mail to the new user, got %q", mailer.welcomeTo)
		}
		if len(mailer.welcomePassword) != initialPasswordLength {
			t.Errorf("expected a %d character initial password, got %d",
				initialPasswordLength, len(mailer.welcomePassword))
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(mailer.welcomePassword)); err != nil {
			t.Error("expected the stored hash to match the mailed password")
		}
	})

	t.Run("rejects_duplicate_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		_, err := service.CreateUser("Ana", "Diaz", "ana@example.com", "user")
		testutil.AssertNoError(t, err)

		_, err = service.CreateUser("Otra", "Ana", "ana@example.com", "admin")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("rejects_unknown_role", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		_, err := service.CreateUser("Ana", "Diaz", "ana@example.com", "owner")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("rejects_invalid_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		_, err := service.CreateUser("Ana", "Diaz", "not-an-email", "user")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestUserServiceLogin(t *testing.T) {
	t.Run("valid_credentials", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		created := testutil.CreateTestUserWithEmail(t, db, "login@test.com", models.RoleUser)

		user, err := service.AttemptLogin("login@test.com", "password123")
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Errorf("expected user %d, got %d", created.ID, user.ID)
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		testutil.CreateTestUserWithEmail(t, db, "login@test.com", models.RoleUser)

		_, err := service.AttemptLogin("login@test.com", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email_gets_the_same_error", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		_, err := service.AttemptLogin("nobody@test.com", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})
}

func TestUserServicePasswords(t *testing.T) {
	t.Run("update_requires_the_current_password", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		user := testutil.CreateTestUser(t, db, models.RoleUser)

		err := service.UpdatePassword(user.ID, "wrong", "newpassword1")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")

		err = service.UpdatePassword(user.ID, "password123", "newpassword1")
		testutil.AssertNoError(t, err)

		_, err = service.AttemptLogin(user.Email, "newpassword1")
		testutil.AssertNoError(t, err)
	})

	t.Run("update_enforces_minimum_length", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		user := testutil.CreateTestUser(t, db, models.RoleUser)

		err := service.UpdatePassword(user.ID, "password123", "short")
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("reset_with_a_matching_stamp", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		user := testutil.CreateTestUser(t, db, models.RoleUser)
		stamp := user.Password[:20]

		err := service.ResetPassword(user.ID, stamp, "resetpassword1")
		testutil.AssertNoError(t, err)

		_, err = service.AttemptLogin(user.Email, "resetpassword1")
		testutil.AssertNoError(t, err)
	})

	t.Run("reset_token_is_single_use", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		user := testutil.CreateTestUser(t, db, models.RoleUser)
		stamp := user.Password[:20]

		err := service.ResetPassword(user.ID, stamp, "resetpassword1")
		testutil.AssertNoError(t, err)

		err = service.ResetPassword(user.ID, stamp, "resetpassword2")
		testutil.AssertAppError(t, err, "INVALID_RESET_TOKEN")
	})

	t.Run("reset_rejects_an_empty_stamp", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		user := testutil.CreateTestUser(t, db, models.RoleUser)

		err := service.ResetPassword(user.ID, "", "resetpassword1")
		testutil.AssertAppError(t, err, "INVALID_RESET_TOKEN")
	})

	t.Run("reset_request_mails_a_token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		mailer := &recordingMailer{}
		service := NewUserService(db, mailer)

		user := testutil.CreateTestUserWithEmail(t, db, "reset@test.com", models.RoleUser)

		err := service.RequestPasswordReset(user.Email)
		testutil.AssertNoError(t, err)
		if mailer.resetTo != user.Email || mailer.resetToken == "" {
			t.Errorf("expected a reset mail with a token, got %q %q", mailer.resetTo, mailer.resetToken)
		}
	})

	t.Run("reset_request_for_unknown_email_is_silent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		mailer := &recordingMailer{}
		service := NewUserService(db, mailer)

		err := service.RequestPasswordReset("nobody@test.com")
		testutil.AssertNoError(t, err)
		if mailer.resetTo != "" {
			t.Error("expected no mail for an unknown email")
		}
	})
}

func TestUserServiceUpdateAndDelete(t *testing.T) {
	t.Run("email_must_stay_unique", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		testutil.CreateTestUserWithEmail(t, db, "first@test.com", models.RoleUser)
		second := testutil.CreateTestUserWithEmail(t, db, "second@test.com", models.RoleUser)

		taken := "first@test.com"
		_, err := service.UpdateUser(second.ID, nil, nil, &taken, nil)
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("role_change", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		user := testutil.CreateTestUser(t, db, models.RoleUser)

		role := "supervisor"
		updated, err := service.UpdateUser(user.ID, nil, nil, nil, &role)
		testutil.AssertNoError(t, err)
		if updated.Role != models.RoleSupervisor {
			t.Errorf("unexpected role %q", updated.Role)
		}
	})

	t.Run("delete_blocked_while_user_has_operations", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		user := testutil.CreateTestUser(t, db, models.RoleUser)
		testutil.CreateTestOperation(t, db, testutil.OperationParams{UserID: user.ID})

		err := service.DeleteUser(user.ID)
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("delete_user_without_operations", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		service := NewUserService(db, &recordingMailer{})

		user := testutil.CreateTestUser(t, db, models.RoleUser)

		testutil.AssertNoError(t, service.DeleteUser(user.ID))

		_, err := service.GetUserByID(user.ID)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}
