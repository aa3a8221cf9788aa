package models

import "time"

// 用户状态：0 正常，1 待审核，2 封禁。
const (
	UserActive  = 0
	UserPending = 1
	UserBanned  = 2
)

type User struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Nickname   string    `gorm:"size:64;not null" json:"nickname"`
	Password   string    `gorm:"not null" json:"-"`
	Slogan     string    `json:"slogan"`
	Status     int       `gorm:"not null;default:0" json:"status"`
	Registered time.Time `gorm:"not null" json:"registered"`
}

// Session 的 token 即主键，一次登录对应一条记录，过期后逻辑失效但不主动删除。
type Session struct {
	Token     string    `gorm:"primaryKey;size:64" json:"token"`
	User      int       `gorm:"index;not null" json:"user"`
	Agent     string    `gorm:"not null" json:"agent"`
	Generated time.Time `gorm:"not null" json:"generated"`
	Expired   time.Time `gorm:"not null" json:"expired"`
}

type Room struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Description string    `gorm:"not null" json:"description"`
	Created     time.Time `gorm:"not null" json:"created"`
}

// Member 使用 (user, room) 复合主键，同一对组合至多一行。
type Member struct {
	User   int       `gorm:"primaryKey;autoIncrement:false" json:"user"`
	Room   int       `gorm:"primaryKey;autoIncrement:false" json:"room"`
	Joined time.Time `gorm:"not null" json:"joined"`
}
