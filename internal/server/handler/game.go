package handler

import (
	"github.com/palemoky/sketch-party/internal/protocol"
	"github.com/palemoky/sketch-party/internal/types"
)

// --- 游戏操作 ---

// handleChat 聊天消息，游戏中由会话判定是否为猜词
func (h *Handler) handleChat(client types.ClientInterface, msg *protocol.Message) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	payload, err := protocol.ParsePayload[protocol.ChatPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	s.Chat(client.GetID(), payload.Text)
}

// handleChooseWord 画手从候选词中选择
func (h *Handler) handleChooseWord(client types.ClientInterface, msg *protocol.Message) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	payload, err := protocol.ParsePayload[protocol.ChooseWordPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	s.ChooseWord(client.GetID(), payload.Index)
}

// handleCustomWord 画手输入自定义词
func (h *Handler) handleCustomWord(client types.ClientInterface, msg *protocol.Message) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	payload, err := protocol.ParsePayload[protocol.CustomWordPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err := s.CustomWord(client.GetID(), payload.Word); err != nil {
		sendGameError(client, err)
	}
}

// handleRequestHint 申请个人提示
func (h *Handler) handleRequestHint(client types.ClientInterface) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}
	s.RequestHint(client.GetID())
}

// handleVote 创意模式打分
func (h *Handler) handleVote(client types.ClientInterface, msg *protocol.Message) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	payload, err := protocol.ParsePayload[protocol.VotePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err := s.Vote(client.GetID(), payload.TargetID, payload.Stars); err != nil {
		sendGameError(client, err)
	}
}

// handleTelephoneSubmit 传话模式提交
func (h *Handler) handleTelephoneSubmit(client types.ClientInterface, msg *protocol.Message) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	payload, err := protocol.ParsePayload[protocol.TelephoneSubmitPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err := s.TelephoneSubmit(client.GetID(), payload.Text); err != nil {
		sendGameError(client, err)
	}
}

// handleSubscribe 观战者订阅某个玩家的画布
func (h *Handler) handleSubscribe(client types.ClientInterface, msg *protocol.Message) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	payload, err := protocol.ParsePayload[protocol.SubscribePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	s.Subscribe(client.GetID(), payload.TargetID)
}
