package handler

import (
	"github.com/palemoky/sketch-party/internal/protocol"
	"github.com/palemoky/sketch-party/internal/types"
)

// --- 画布操作 ---

// handleDraw 画笔动作
func (h *Handler) handleDraw(client types.ClientInterface, msg *protocol.Message) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	action, err := protocol.ParsePayload[protocol.CanvasAction](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}
	s.Draw(client.GetID(), *action)
}

// handleUndo 撤销自己最近的笔划
func (h *Handler) handleUndo(client types.ClientInterface) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}
	s.Undo(client.GetID())
}

// handleRedo 重做
func (h *Handler) handleRedo(client types.ClientInterface) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}
	s.Redo(client.GetID())
}

// handleClearCanvas 清空画布
func (h *Handler) handleClearCanvas(client types.ClientInterface) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}
	s.ClearCanvas(client.GetID())
}

// handleLayerAdd 新建图层
func (h *Handler) handleLayerAdd(client types.ClientInterface, msg *protocol.Message) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	payload, err := protocol.ParsePayload[protocol.LayerAddPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err := s.AddLayer(client.GetID(), payload.Name); err != nil {
		sendGameError(client, err)
	}
}

// handleLayerDelete 删除图层
func (h *Handler) handleLayerDelete(client types.ClientInterface, msg *protocol.Message) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	payload, err := protocol.ParsePayload[protocol.LayerDeletePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err := s.DeleteLayer(client.GetID(), payload.LayerID); err != nil {
		sendGameError(client, err)
	}
}

// handleLayerRename 重命名图层
func (h *Handler) handleLayerRename(client types.ClientInterface, msg *protocol.Message) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	payload, err := protocol.ParsePayload[protocol.LayerRenamePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err := s.RenameLayer(client.GetID(), payload.LayerID, payload.Name); err != nil {
		sendGameError(client, err)
	}
}

// handleLayerReorder 调整图层顺序
func (h *Handler) handleLayerReorder(client types.ClientInterface, msg *protocol.Message) {
	s := h.sessionOf(client)
	if s == nil {
		return
	}

	payload, err := protocol.ParsePayload[protocol.LayerReorderPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if err := s.ReorderLayers(client.GetID(), payload.LayerIDs); err != nil {
		sendGameError(client, err)
	}
}
