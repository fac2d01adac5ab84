package handler

import (
	"errors"
	"log"

	"github.com/palemoky/sketch-party/internal/apperrors"
	"github.com/palemoky/sketch-party/internal/game/room"
	"github.com/palemoky/sketch-party/internal/game/session"
	"github.com/palemoky/sketch-party/internal/protocol"
	"github.com/palemoky/sketch-party/internal/server/storage"
	"github.com/palemoky/sketch-party/internal/types"
)

// Deps 处理器依赖
type Deps struct {
	Server      types.ServerInterface
	Registry    *room.Registry
	Leaderboard *storage.Leaderboard
}

// Handler 消息处理器
type Handler struct {
	server      types.ServerInterface
	registry    *room.Registry
	leaderboard *storage.Leaderboard
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		server:      deps.Server,
		registry:    deps.Registry,
		leaderboard: deps.Leaderboard,
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgCreateRoom:     h.handleCreateRoom,
		protocol.MsgJoinRoom:       h.handleJoinRoom,
		protocol.MsgLeaveRoom:      func(c types.ClientInterface, _ *protocol.Message) { h.handleLeaveRoom(c) },
		protocol.MsgUpdateSettings: h.handleUpdateSettings,
		protocol.MsgStartGame:      func(c types.ClientInterface, _ *protocol.Message) { h.handleStartGame(c) },
		protocol.MsgReadyAccept:    func(c types.ClientInterface, _ *protocol.Message) { h.handleReady(c, true) },
		protocol.MsgReadyRefuse:    func(c types.ClientInterface, _ *protocol.Message) { h.handleReady(c, false) },

		// 游戏操作
		protocol.MsgChat:            h.handleChat,
		protocol.MsgChooseWord:      h.handleChooseWord,
		protocol.MsgCustomWord:      h.handleCustomWord,
		protocol.MsgRequestHint:     func(c types.ClientInterface, _ *protocol.Message) { h.handleRequestHint(c) },
		protocol.MsgVote:            h.handleVote,
		protocol.MsgTelephoneSubmit: h.handleTelephoneSubmit,
		protocol.MsgSubscribe:       h.handleSubscribe,

		// 画布操作
		protocol.MsgDraw:         h.handleDraw,
		protocol.MsgUndo:         func(c types.ClientInterface, _ *protocol.Message) { h.handleUndo(c) },
		protocol.MsgRedo:         func(c types.ClientInterface, _ *protocol.Message) { h.handleRedo(c) },
		protocol.MsgClearCanvas:  func(c types.ClientInterface, _ *protocol.Message) { h.handleClearCanvas(c) },
		protocol.MsgLayerAdd:     h.handleLayerAdd,
		protocol.MsgLayerDelete:  h.handleLayerDelete,
		protocol.MsgLayerRename:  h.handleLayerRename,
		protocol.MsgLayerReorder: h.handleLayerReorder,

		// 排行榜
		protocol.MsgGetStats:       func(c types.ClientInterface, _ *protocol.Message) { h.handleGetStats(c) },
		protocol.MsgGetLeaderboard: h.handleGetLeaderboard,
	}
}

// Handle 处理消息
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Printf("⚠️  未知消息类型: '%s' (来自: %s, ID: %s)", msg.Type, client.GetName(), client.GetID())
	client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// sessionOf 获取客户端所在房间的会话，不在房间时回复错误并返回 nil
func (h *Handler) sessionOf(client types.ClientInterface) *session.Session {
	code := client.GetRoom()
	if code == "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeNotInRoom))
		return nil
	}
	s := h.registry.Get(code)
	if s == nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeRoomNotFound))
		return nil
	}
	return s
}

// sendGameError 把游戏错误转换为错误消息发给客户端
func sendGameError(client types.ClientInterface, err error) {
	var ge *apperrors.GameError
	if errors.As(err, &ge) {
		client.SendMessage(protocol.NewErrorMessageWithText(ge.Code, ge.Message))
		return
	}
	client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
}
