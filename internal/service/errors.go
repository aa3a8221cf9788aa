package service

import "errors"

// 业务层错误，文本沿用客户端已经依赖的提示语，handler 据此映射状态码。
var (
	ErrUsernameTaken    = errors.New("This username has been used!")
	ErrUserNotFound     = errors.New("The user does not exist!")
	ErrUserBanned       = errors.New("The user has been banned!")
	ErrPasswordMismatch = errors.New("Password error!")
	ErrSessionInsert    = errors.New("Failed to insert new session into the database!")
	ErrRoomNotFound     = errors.New("room not found")
)
