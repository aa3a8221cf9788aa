package service

import (
	"errors"
	"time"

	"github.com/Team-Chatoy/chatoy-server/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberService 维护用户与房间的成员关系，是转发链路的成员判定来源。
type MemberService struct {
	db *gorm.DB
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db}
}

// IsMember 判断用户是否已加入房间。
func (s *MemberService) IsMember(userID, roomID int) (bool, error) {
	var m models.Member
	err := s.db.First(&m, "\"user\" = ? AND room = ?", userID, roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Join 加入房间。依赖复合主键冲突时不做任何事，所以重复加入是幂等的成功。
func (s *MemberService) Join(userID, roomID int) error {
	m := models.Member{User: userID, Room: roomID, Joined: time.Now()}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error
}

func (s *MemberService) List() ([]models.Member, error) {
	var members []models.Member
	if err := s.db.Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
