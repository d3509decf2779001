package services

import (
	"crypto/rand"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"gestops/internal/errors"
	"gestops/internal/logger"
	"gestops/internal/middleware"
	"gestops/internal/models"
	"gestops/internal/pagination"
)

const (
	initialPasswordLength = 12
	minPasswordLength     = 8
)

const passwordCharset = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// UserService implements UserServicer: account management, login, and the
// password lifecycle. New accounts get a generated password delivered by
// mail.
type UserService struct {
	db     *gorm.DB
	mailer Mailer
}

func NewUserService(db *gorm.DB, mailer Mailer) *UserService {
	return &UserService{db: db, mailer: mailer}
}

// CreateUser registers a new account with a generated initial password and
// mails the credentials to the new user.
func (s *UserService) CreateUser(firstName, lastName, email, role string) (*models.User, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" {
		return nil, errors.NewValidation("first_name", "first name is required")
	}
	if lastName == "" {
		return nil, errors.NewValidation("last_name", "last name is required")
	}
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}
	parsedRole, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, errors.ErrDuplicateEmail
	}

	initialPassword, err := generatePassword(initialPasswordLength)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(initialPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	user := &models.User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  string(hash),
		Role:      parsedRole,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	if err := s.mailer.SendWelcome(user.Email, user.DisplayName(), initialPassword); err != nil {
		logger.Get().Errorw("failed to send welcome mail",
			"user_id", user.ID,
			"error", err)
	}
	return user, nil
}

func (s *UserService) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return &user, nil
}

func (s *UserService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return &user, nil
}

func (s *UserService) ListUsers(page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}

	query := s.db.Model(&models.User{}).Order("last_name ASC, first_name ASC")

	var users []models.User
	if page.Unpaged() {
		if err := query.Find(&users).Error; err != nil {
			return nil, errors.Wrap(errors.ErrInternalServer, err)
		}
		resp := pagination.NewUnpagedResponse(users)
		return &resp, nil
	}

	page.Defaults()
	if err := query.Scopes(pagination.Paginate(page)).Find(&users).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	resp := pagination.NewPageResponse(users, page.Page, page.PageSize, total)
	return &resp, nil
}

// UpdateUser applies a partial update to the account profile.
func (s *UserService) UpdateUser(userID uint, firstName, lastName, email, role *string) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if firstName != nil {
		name := strings.TrimSpace(*firstName)
		if name == "" {
			return nil, errors.NewValidation("first_name", "first name is required")
		}
		user.FirstName = name
	}
	if lastName != nil {
		name := strings.TrimSpace(*lastName)
		if name == "" {
			return nil, errors.NewValidation("last_name", "last name is required")
		}
		user.LastName = name
	}
	if email != nil {
		if err := models.ValidateEmail(*email); err != nil {
			return nil, err
		}
		var count int64
		if err := s.db.Model(&models.User{}).
			Where("email = ? AND id <> ?", *email, user.ID).
			Count(&count).Error; err != nil {
			return nil, errors.Wrap(errors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, errors.ErrDuplicateEmail
		}
		user.Email = *email
	}
	if role != nil {
		parsedRole, err := models.ParseRole(*role)
		if err != nil {
			return nil, err
		}
		user.Role = parsedRole
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	return user, nil
}

func (s *UserService) DeleteUser(userID uint) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Operation{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if count > 0 {
		return errors.NewValidation("user_id", "user has created operations")
	}

	if err := s.db.Delete(user).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	return nil
}

// AttemptLogin verifies credentials without revealing whether the email or
// the password was wrong.
func (s *UserService) AttemptLogin(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, errors.Wrap(errors.ErrInternalServer, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	return &user, nil
}

// UpdatePassword changes a password after verifying the current one.
func (s *UserService) UpdatePassword(userID uint, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return errors.ErrInvalidCredentials
	}
	return s.setPassword(user, newPassword)
}

// RequestPasswordReset issues a reset token and mails it. An unknown email
// is reported as success to avoid leaking which addresses exist.
func (s *UserService) RequestPasswordReset(email string) error {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Get().Info("password reset requested for unknown email")
			return nil
		}
		return errors.Wrap(errors.ErrInternalServer, err)
	}

	token, err := middleware.GenerateResetToken(&user)
	if err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	if err := s.mailer.SendPasswordReset(user.Email, user.DisplayName(), token); err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	return nil
}

// ResetPassword completes a token-based reset. The stamp ties the token to
// the password hash it was issued against, making each token single-use.
func (s *UserService) ResetPassword(userID uint, passwordStamp, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return errors.ErrInvalidResetToken
	}

	current := user.Password
	if len(current) > len(passwordStamp) {
		current = current[:len(passwordStamp)]
	}
	if passwordStamp == "" || current != passwordStamp {
		return errors.ErrInvalidResetToken
	}
	return s.setPassword(user, newPassword)
}

func (s *UserService) setPassword(user *models.User, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return errors.NewValidation("new_password", "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	user.Password = string(hash)
	if err := s.db.Save(user).Error; err != nil {
		return errors.Wrap(errors.ErrInternalServer, err)
	}
	return nil
}

func generatePassword(length int) (string, error) {
	password := make([]byte, length)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range password {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		password[i] = passwordCharset[n.Int64()]
	}
	return string(password), nil
}
