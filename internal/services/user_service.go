package services

import (
	"context"
	"errors"
	"strings"

	"github.com/franciscosanchezn/gin-recipe-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RegisterInput is the data needed to sign up.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, page Page) ([]models.User, int64, error)
	SetPassword(ctx context.Context, actor *models.Actor, current, next string) error
	// SetAvatar stores path as the avatar and returns the replaced one, if any.
	SetAvatar(ctx context.Context, actor *models.Actor, path string) (*models.User, string, error)
	ClearAvatar(ctx context.Context, actor *models.Actor) (string, error)
	// Delete removes the account; recipes, relations and tokens cascade.
	Delete(ctx context.Context, actor *models.Actor, password string) error
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	db := s.db.WithContext(ctx)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	verr := &ValidationError{}
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		verr.Add("email", "A user with that email already exists.")
	}
	if err := db.Model(&models.User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		verr.Add("username", "A user with that username already exists.")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		IsActive:  true,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return nil, err
	}

	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, newError(ErrConflict, "user with this email or username already exists")
		}
		return nil, err
	}

	log.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive || !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user not found")
	}
	return &user, nil
}

func (s *userService) List(ctx context.Context, page Page) ([]models.User, int64, error) {
	page = page.Normalize()
	db := s.db.WithContext(ctx).Model(&models.User{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := db.Order("username").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *userService) current(ctx context.Context, actor *models.Actor) (*models.User, error) {
	if actor == nil {
		return nil, ErrNotAuthenticated
	}
	return s.GetUserByID(ctx, actor.UserID)
}

func (s *userService) SetPassword(ctx context.Context, actor *models.Actor, current, next string) error {
	user, err := s.current(ctx, actor)
	if err != nil {
		return err
	}
	if !user.CheckPassword(current) {
		return fieldError("current_password", "Invalid password.")
	}
	if err := user.SetPassword(next); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Update("password", user.Password).Error
}

func (s *userService) SetAvatar(ctx context.Context, actor *models.Actor, path string) (*models.User, string, error) {
	user, err := s.current(ctx, actor)
	if err != nil {
		return nil, "", err
	}
	old := ""
	if user.Avatar != nil {
		old = *user.Avatar
	}
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", path).Error; err != nil {
		return nil, "", err
	}
	user.Avatar = &path
	return user, old, nil
}

func (s *userService) ClearAvatar(ctx context.Context, actor *models.Actor) (string, error) {
	user, err := s.current(ctx, actor)
	if err != nil {
		return "", err
	}
	if user.Avatar == nil {
		return "", nil
	}
	old := *user.Avatar
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", nil).Error; err != nil {
		return "", err
	}
	return old, nil
}

func (s *userService) Delete(ctx context.Context, actor *models.Actor, password string) error {
	user, err := s.current(ctx, actor)
	if err != nil {
		return err
	}
	if !user.CheckPassword(password) {
		return fieldError("current_password", "Invalid password.")
	}
	if err := s.db.WithContext(ctx).Delete(user).Error; err != nil {
		return err
	}
	log.WithField("user_id", user.ID).Info("User deleted")
	return nil
}
