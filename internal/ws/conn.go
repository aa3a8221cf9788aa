package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Team-Chatoy/chatoy-server/internal/auth"
	"github.com/Team-Chatoy/chatoy-server/internal/metrics"
	"github.com/Team-Chatoy/chatoy-server/internal/models"
	"github.com/Team-Chatoy/chatoy-server/internal/msg"
	"github.com/Team-Chatoy/chatoy-server/internal/relay"
	"github.com/Team-Chatoy/chatoy-server/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// 连接状态机：Connecting → Authenticating → Authenticated → Closed。
type state int

const (
	stateConnecting state = iota
	stateAuthenticating
	stateAuthenticated
	stateClosed
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Conn 是一条客户端连接。鉴权前只有握手循环在跑；
// 鉴权后读写分成两个协程，共享同一个只读的用户身份。
type Conn struct {
	conn    *websocket.Conn
	db      *gorm.DB
	rly     *relay.Relay
	members *service.MemberService
	user    *models.User
	state   state
}

// Serve 返回 /ws 的处理函数。升级成功后当前协程承载握手与读循环。
func Serve(rly *relay.Relay, gdb *gorm.DB, members *service.MemberService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		conn := &Conn{conn: sock, db: gdb, rly: rly, members: members, state: stateConnecting}
		metrics.WsConnections.Inc()
		defer metrics.WsConnections.Dec()
		// 鉴权前的退出路径没有读写协程兜底，这里统一关闭底层连接。
		defer sock.Close()
		conn.run()
	}
}

func (c *Conn) run() {
	c.conn.SetReadLimit(1 << 20) // 1MB
	c.state = stateAuthenticating
	if !c.handshake() {
		c.state = stateClosed
		return
	}
	c.state = stateAuthenticated
	log.Info().Int("user", c.user.ID).Str("nickname", c.user.Nickname).Msg("ws authenticated")

	// 任意一侧结束都会通过 cancel 和关闭底层连接拖停另一侧。
	ctx, cancel := context.WithCancel(context.Background())
	sub := c.rly.Subscribe()
	go c.writer(ctx, cancel, sub)
	c.reader(cancel)
	c.state = stateClosed
}

// handshake 在未鉴权阶段循环等待 Auth 帧。解析失败或别的帧类型一律
// 留在原状态继续等；鉴权失败回 code 1 应答后允许客户端换令牌重试。
// 返回 false 表示连接在鉴权前就断开了，不再派生读写协程。
func (c *Conn) handshake() bool {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Msg("ws closed before auth")
			return false
		}
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}
		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			log.Warn().Err(err).Msg("ws bad frame during handshake")
			continue
		}
		if in.Type != frameAuth {
			continue
		}
		user, err := auth.Authenticate(c.db, in.Token)
		if err != nil {
			log.Info().Err(err).Msg("ws auth rejected")
			if werr := c.conn.WriteJSON(authAck{Type: frameAuth, Code: 1, Msg: err.Error()}); werr != nil {
				return false
			}
			continue
		}
		if err := c.conn.WriteJSON(authAck{Type: frameAuth, Code: 0, Msg: ""}); err != nil {
			return false
		}
		c.user = user
		return true
	}
}

// reader 消费入站帧并发布到总线。坏帧只记日志，绝不因此断开连接。
// sender 一律取鉴权身份，客户端声称的发送者不可信。
func (c *Conn) reader(cancel context.CancelFunc) {
	defer func() {
		cancel()
		_ = c.conn.Close()
	}()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Int("user", c.user.ID).Msg("ws reader closed")
			return
		}
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}
		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			log.Warn().Err(err).Int("user", c.user.ID).Msg("ws bad frame")
			continue
		}
		if in.Type != frameMsg {
			continue
		}
		if _, err := uuid.Parse(in.UUID); err != nil {
			log.Warn().Str("uuid", in.UUID).Int("user", c.user.ID).Msg("ws bad message uuid")
			continue
		}
		if in.Data.Type != msg.TypeText {
			log.Warn().Str("type", in.Data.Type).Int("user", c.user.ID).Msg("ws unknown content type")
			continue
		}
		c.rly.Publish(msg.Message{
			UUID:     in.UUID,
			Sender:   c.user.ID,
			Room:     in.Room,
			Data:     in.Data,
			Sent:     time.Now(),
			Modified: false,
		})
		metrics.WsMessagesTotal.Inc()
	}
}

// writer 从总线取消息，逐条查成员关系后下发。非成员直接丢弃；
// 查询出错记日志后丢弃，暂时的存储故障不终止写协程。
func (c *Conn) writer(ctx context.Context, cancel context.CancelFunc, sub *relay.Subscription) {
	defer func() {
		cancel()
		sub.Close()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-sub.C:
			if !ok {
				return
			}
			member, err := c.members.IsMember(c.user.ID, m.Room)
			if err != nil {
				log.Error().Err(err).Int("user", c.user.ID).Int("room", m.Room).Msg("ws membership lookup")
				continue
			}
			if !member {
				continue
			}
			if err := c.conn.WriteJSON(recvFrame{Type: frameRecv, Data: m}); err != nil {
				log.Info().Err(err).Int("user", c.user.ID).Msg("ws writer closed")
				return
			}
		}
	}
}
