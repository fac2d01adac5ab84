package handler

import (
	"github.com/palemoky/sketch-party/internal/protocol"
	"github.com/palemoky/sketch-party/internal/types"
)

// --- 房间操作 ---

// handleCreateRoom 创建房间
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	if client.GetRoom() != "" {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "请先离开当前房间"))
		return
	}

	payload, err := protocol.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	_, user, err := h.registry.Create(client, payload.Username, payload.Avatar)
	if err != nil {
		sendGameError(client, err)
		return
	}
	client.SetName(user.Username)
}

// handleJoinRoom 加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	if client.GetRoom() != "" {
		client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, "请先离开当前房间"))
		return
	}

	payload, err := protocol.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	_, user, err := h.registry.Join(client, payload.RoomCode, payload.Username, payload.Avatar, payload.Spectator)
	if err != nil {
		sendGameError(client, err)
		return
	}
	client.SetName(user.Username)
}

// handleLeaveRoom 离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface) {
	h.registry.Leave(client)
}

// handleUpdateSettings 房主修改设置
func (h *Handler) handleUpdateSettings(client types.ClientInterface, msg *protocol.Message) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	payload, err := protocol.ParsePayload[protocol.Settings](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err := s.UpdateSettings(client.GetID(), *payload); err != nil {
		sendGameError(client, err)
	}
}

// handleStartGame 房主发起开始
func (h *Handler) handleStartGame(client types.ClientInterface) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	if err := s.StartGame(client.GetID()); err != nil {
		sendGameError(client, err)
	}
}

// handleReady 准备确认或拒绝
func (h *Handler) handleReady(client types.ClientInterface, accepted bool) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}
	s.Ready(client.GetID(), accepted)
}
