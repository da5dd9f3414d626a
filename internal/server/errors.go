package server

import "errors"

var (
	ErrIncorrectPassword  = errors.New("password is incorrect")
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomDisposed       = errors.New("room is disposed")
	ErrInvalidRoomOptions = errors.New("invalid room options")

	errUnknownMessage = errors.New("unknown message type")
	errInvalidPayload = errors.New("invalid payload")
	errInboxFull      = errors.New("room inbox is full")
)
