package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/Team-Chatoy/chatoy-server/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 鉴权失败的三种情形，错误文本会原样回给客户端。
var (
	ErrTokenNotFound  = errors.New("Please login first!")
	ErrSessionExpired = errors.New("Login status expired!")
	ErrUserMissing    = errors.New("User not found!")
)

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func VerifyPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// GenerateToken 生成 64 位小写十六进制会话令牌。
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Authenticate 根据令牌解析出用户；不续期、不写库。
func Authenticate(gdb *gorm.DB, token string) (*models.User, error) {
	var sess models.Session
	if err := gdb.First(&sess, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if !time.Now().Before(sess.Expired) {
		return nil, ErrSessionExpired
	}
	var user models.User
	if err := gdb.First(&user, sess.User).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserMissing
		}
		return nil, err
	}
	return &user, nil
}
