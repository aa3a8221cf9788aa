package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Team-Chatoy/chatoy-server/internal/auth"
	"github.com/Team-Chatoy/chatoy-server/internal/models"

	"gorm.io/gorm"
)

// SessionService 负责登录签发会话令牌。核心链路只读会话，签发仅发生在这里。
type SessionService struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewSessionService(db *gorm.DB, ttlHours int) *SessionService {
	return &SessionService{db: db, ttl: time.Duration(ttlHours) * time.Hour}
}

// Login 校验用户名密码，成功后写入一条新会话并返回令牌。
// 待审核用户视同不存在，封禁用户明确拒绝。
func (s *SessionService) Login(username, password, agent string) (string, error) {
	var user models.User
	err := s.db.Where("username = ? AND status <> ?", username, models.UserPending).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if user.Status == models.UserBanned {
		return "", ErrUserBanned
	}
	if !auth.VerifyPassword(user.Password, password) {
		return "", ErrPasswordMismatch
	}
	token, err := auth.GenerateToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	sess := models.Session{
		Token:     token,
		User:      user.ID,
		Agent:     agent,
		Generated: now,
		Expired:   now.Add(s.ttl),
	}
	if err := s.db.Create(&sess).Error; err != nil {
		return "", fmt.Errorf("%w: %v", ErrSessionInsert, err)
	}
	return token, nil
}

func (s *SessionService) List() ([]models.Session, error) {
	var sessions []models.Session
	if err := s.db.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
