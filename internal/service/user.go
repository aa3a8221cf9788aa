package service

import (
	"time"

	"github.com/Team-Chatoy/chatoy-server/internal/auth"
	"github.com/Team-Chatoy/chatoy-server/internal/models"

	"gorm.io/gorm"
)

// UserService 封装用户注册与查询。
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register 注册新用户，昵称默认取用户名，状态为正常。
func (s *UserService) Register(username, password string) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username:   username,
		Nickname:   username,
		Password:   hash,
		Status:     models.UserActive,
		Registered: time.Now(),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) List() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
