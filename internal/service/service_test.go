package service

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/Team-Chatoy/chatoy-server/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: glogger.Default.LogMode(glogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := gdb.AutoMigrate(&models.User{}, &models.Session{}, &models.Room{}, &models.Member{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func TestMemberService_JoinIdempotent(t *testing.T) {
	gdb := testDB(t)
	members := NewMemberService(gdb)

	// Two rapid joins for the same pair must leave exactly one row.
	if err := members.Join(3, 9); err != nil {
		t.Fatalf("first Join() error = %v", err)
	}
	if err := members.Join(3, 9); err != nil {
		t.Fatalf("second Join() error = %v, want no-op success", err)
	}

	var count int64
	if err := gdb.Model(&models.Member{}).Where("\"user\" = ? AND room = ?", 3, 9).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("membership rows = %d, want 1", count)
	}
}

func TestMemberService_IsMember(t *testing.T) {
	gdb := testDB(t)
	members := NewMemberService(gdb)

	if err := members.Join(1, 7); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	tests := []struct {
		name string
		user int
		room int
		want bool
	}{
		{"member", 1, 7, true},
		{"same user other room", 1, 8, false},
		{"other user same room", 2, 7, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := members.IsMember(tt.user, tt.room)
			if err != nil {
				t.Fatalf("IsMember() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsMember(%d, %d) = %v, want %v", tt.user, tt.room, got, tt.want)
			}
		})
	}
}

func TestUserService_Register(t *testing.T) {
	gdb := testDB(t)
	users := NewUserService(gdb)

	u, err := users.Register("alice", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if u.Nickname != "alice" {
		t.Errorf("Register() nickname = %q, want username as default", u.Nickname)
	}
	if u.Status != models.UserActive {
		t.Errorf("Register() status = %d, want active", u.Status)
	}
	if u.Password == "secret123" {
		t.Error("Register() stored the plaintext password")
	}

	if _, err := users.Register("alice", "other"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate Register() error = %v, want ErrUsernameTaken", err)
	}
}

func TestSessionService_Login(t *testing.T) {
	gdb := testDB(t)
	users := NewUserService(gdb)
	sessions := NewSessionService(gdb, 48)

	if _, err := users.Register("carol", "secret123"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	token, err := sessions.Login("carol", "secret123", "go-test")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !regexp.MustCompile("^[0-9a-f]{64}$").MatchString(token) {
		t.Errorf("Login() token = %q, want 64 lowercase hex chars", token)
	}

	var sess models.Session
	if err := gdb.First(&sess, "token = ?", token).Error; err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if sess.Agent != "go-test" {
		t.Errorf("session agent = %q, want go-test", sess.Agent)
	}
	ttl := sess.Expired.Sub(sess.Generated)
	if ttl < 47*time.Hour || ttl > 49*time.Hour {
		t.Errorf("session ttl = %v, want 48h", ttl)
	}

	if _, err := sessions.Login("carol", "wrong", "go-test"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("wrong password error = %v, want ErrPasswordMismatch", err)
	}
	if _, err := sessions.Login("nobody", "secret123", "go-test"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user error = %v, want ErrUserNotFound", err)
	}
}

func TestSessionService_LoginInsertFailure(t *testing.T) {
	gdb := testDB(t)
	users := NewUserService(gdb)
	sessions := NewSessionService(gdb, 48)

	if _, err := users.Register("erin", "secret123"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	// Force the session insert to fail after the credential check passed.
	if err := gdb.Migrator().DropTable(&models.Session{}); err != nil {
		t.Fatalf("drop sessions table: %v", err)
	}

	if _, err := sessions.Login("erin", "secret123", "go-test"); !errors.Is(err, ErrSessionInsert) {
		t.Errorf("Login() error = %v, want ErrSessionInsert", err)
	}
}

func TestSessionService_LoginBanned(t *testing.T) {
	gdb := testDB(t)
	users := NewUserService(gdb)
	sessions := NewSessionService(gdb, 48)

	u, err := users.Register("mallory", "secret123")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := gdb.Model(u).Update("status", models.UserBanned).Error; err != nil {
		t.Fatalf("ban user: %v", err)
	}

	if _, err := sessions.Login("mallory", "secret123", "go-test"); !errors.Is(err, ErrUserBanned) {
		t.Errorf("banned user login error = %v, want ErrUserBanned", err)
	}

	var count int64
	if err := gdb.Model(&models.Session{}).Count(&count).Error; err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if count != 0 {
		t.Errorf("banned login minted %d sessions, want 0", count)
	}
}

func TestRoomService_CreateAutoJoins(t *testing.T) {
	gdb := testDB(t)
	members := NewMemberService(gdb)
	rooms := NewRoomService(gdb, members)

	room, err := rooms.Create("general", 5)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	joined, err := members.IsMember(5, room.ID)
	if err != nil {
		t.Fatalf("IsMember() error = %v", err)
	}
	if !joined {
		t.Error("Create() did not auto-join the creator")
	}

	if _, err := rooms.Exists(room.ID); err != nil {
		t.Errorf("Exists() error = %v", err)
	}
	if _, err := rooms.Exists(room.ID + 100); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("Exists() for missing room error = %v, want ErrRoomNotFound", err)
	}
}
