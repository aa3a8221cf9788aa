package msg

import "time"

const TypeText = "Text"

// Content 是带 type 标签的消息体，目前只有 Text 一种变体。
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Message 只存在于转发链路上，不落库。sender 一律取鉴权身份，
// modified 预留给将来的编辑功能，创建时恒为 false。
type Message struct {
	UUID     string    `json:"uuid"`
	Sender   int       `json:"sender"`
	Room     int       `json:"room"`
	Data     Content   `json:"data"`
	Sent     time.Time `json:"sent"`
	Modified bool      `json:"modified"`
}
