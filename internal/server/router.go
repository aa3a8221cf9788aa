package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Team-Chatoy/chatoy-server/internal/auth"
	"github.com/Team-Chatoy/chatoy-server/internal/config"
	"github.com/Team-Chatoy/chatoy-server/internal/metrics"
	"github.com/Team-Chatoy/chatoy-server/internal/mw"
	"github.com/Team-Chatoy/chatoy-server/internal/relay"
	"github.com/Team-Chatoy/chatoy-server/internal/service"
	"github.com/Team-Chatoy/chatoy-server/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// resp 是 REST 接口的统一应答，code 0 表示成功，登录成功时 msg 放令牌。
type resp struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// SetupRouter 初始化中间件、REST 接口和 WebSocket 端点。
func SetupRouter(cfg config.Config, gdb *gorm.DB, rly *relay.Relay) *gin.Engine {
	users := service.NewUserService(gdb)
	sessions := service.NewSessionService(gdb, cfg.SessionTTLHours)
	members := service.NewMemberService(gdb)
	rooms := service.NewRoomService(gdb, members)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))
	r.Use(mw.RateLimit(rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/users", func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, resp{Code: 1, Msg: "invalid payload"})
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if len(req.Username) < 2 || len(req.Username) > 64 || len(req.Password) < 4 || len(req.Password) > 128 {
			c.JSON(http.StatusBadRequest, resp{Code: 1, Msg: "invalid payload"})
			return
		}
		if _, err := users.Register(req.Username, req.Password); err != nil {
			if err == service.ErrUsernameTaken {
				c.JSON(http.StatusBadRequest, resp{Code: 2, Msg: err.Error()})
				return
			}
			log.Error().Err(err).Str("username", req.Username).Msg("register")
			c.JSON(http.StatusInternalServerError, resp{Code: 3, Msg: "Failed to insert a new user into the database!"})
			return
		}
		c.JSON(http.StatusCreated, resp{Code: 0, Msg: ""})
	})

	r.GET("/users", func(c *gin.Context) {
		list, err := users.List()
		if err != nil {
			log.Error().Err(err).Msg("list users")
			c.JSON(http.StatusInternalServerError, resp{Code: 1, Msg: "Error accessing database!"})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.POST("/sessions", func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, resp{Code: 1, Msg: "invalid payload"})
			return
		}
		token, err := sessions.Login(req.Username, req.Password, c.GetHeader("User-Agent"))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrUserNotFound):
				c.JSON(http.StatusBadRequest, resp{Code: 2, Msg: err.Error()})
			case errors.Is(err, service.ErrUserBanned):
				c.JSON(http.StatusBadRequest, resp{Code: 3, Msg: err.Error()})
			case errors.Is(err, service.ErrPasswordMismatch):
				c.JSON(http.StatusBadRequest, resp{Code: 4, Msg: err.Error()})
			case errors.Is(err, service.ErrSessionInsert):
				log.Error().Err(err).Str("username", req.Username).Msg("login insert session")
				c.JSON(http.StatusInternalServerError, resp{Code: 5, Msg: service.ErrSessionInsert.Error()})
			default:
				log.Error().Err(err).Str("username", req.Username).Msg("login")
				c.JSON(http.StatusInternalServerError, resp{Code: 1, Msg: "Error accessing database!"})
			}
			return
		}
		c.JSON(http.StatusOK, resp{Code: 0, Msg: token})
	})

	r.GET("/sessions", func(c *gin.Context) {
		list, err := sessions.List()
		if err != nil {
			log.Error().Err(err).Msg("list sessions")
			c.JSON(http.StatusInternalServerError, resp{Code: 1, Msg: "Error accessing database!"})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.POST("/rooms", func(c *gin.Context) {
		var req struct {
			Token string `json:"token"`
			Name  string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, resp{Code: 1, Msg: "invalid payload"})
			return
		}
		user, err := auth.Authenticate(gdb, req.Token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, resp{Code: 1, Msg: err.Error()})
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || len(req.Name) > 128 {
			c.JSON(http.StatusBadRequest, resp{Code: 1, Msg: "invalid room name"})
			return
		}
		room, err := rooms.Create(req.Name, user.ID)
		if err != nil {
			log.Error().Err(err).Int("user", user.ID).Str("name", req.Name).Msg("create room")
			c.JSON(http.StatusInternalServerError, resp{Code: 2, Msg: "Failed to insert a new room into the database!"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": room.ID})
	})

	r.GET("/rooms", func(c *gin.Context) {
		list, err := rooms.List()
		if err != nil {
			log.Error().Err(err).Msg("list rooms")
			c.JSON(http.StatusInternalServerError, resp{Code: 1, Msg: "Error accessing database!"})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.POST("/members", func(c *gin.Context) {
		var req struct {
			Token string `json:"token"`
			Room  int    `json:"room"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, resp{Code: 1, Msg: "invalid payload"})
			return
		}
		user, err := auth.Authenticate(gdb, req.Token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, resp{Code: 1, Msg: err.Error()})
			return
		}
		if _, err := rooms.Exists(req.Room); err != nil {
			c.JSON(http.StatusNotFound, resp{Code: 2, Msg: err.Error()})
			return
		}
		if err := members.Join(user.ID, req.Room); err != nil {
			log.Error().Err(err).Int("user", user.ID).Int("room", req.Room).Msg("join room")
			c.JSON(http.StatusInternalServerError, resp{Code: 3, Msg: "Failed to join the room!"})
			return
		}
		c.JSON(http.StatusOK, resp{Code: 0, Msg: ""})
	})

	r.GET("/members", func(c *gin.Context) {
		list, err := members.List()
		if err != nil {
			log.Error().Err(err).Msg("list members")
			c.JSON(http.StatusInternalServerError, resp{Code: 1, Msg: "Error accessing database!"})
			return
		}
		c.JSON(http.StatusOK, list)
	})

	r.GET("/ws", ws.Serve(rly, gdb, members))

	return r
}
