package ws

import "github.com/Team-Chatoy/chatoy-server/internal/msg"

const (
	frameAuth = "Auth"
	frameMsg  = "Msg"
	frameRecv = "Recv"
)

// inbound 同时覆盖客户端的两种帧：Auth 帧只用 token，Msg 帧用其余字段。
type inbound struct {
	Type  string      `json:"type"`
	Token string      `json:"token"`
	UUID  string      `json:"uuid"`
	Room  int         `json:"room"`
	Data  msg.Content `json:"data"`
}

// authAck 是握手应答，code 0 表示鉴权通过。
type authAck struct {
	Type string `json:"type"`
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type recvFrame struct {
	Type string      `json:"type"`
	Data msg.Message `json:"data"`
}
