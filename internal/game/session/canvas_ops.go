package session

import (
	"github.com/google/uuid"

	"github.com/palemoky/sketch-party/internal/apperrors"
	"github.com/palemoky/sketch-party/internal/game/canvas"
	"github.com/palemoky/sketch-party/internal/protocol"
)

// Draw 画笔动作：追加到当前归属的画布并转发给观众
func (s *Session) Draw(userID string, action protocol.CanvasAction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil || u.Spectator {
		return
	}
	action.UserID = u.ID
	if action.LayerID == "" {
		action.LayerID = u.ActiveLayer
	}

	surface, audience := s.routeCanvas(u)
	if surface == nil {
		return
	}
	if s.engine != nil && !s.engine.canDraw(u) {
		return
	}

	surface.Append(action)
	s.sendToSet(audience, protocol.MustNewMessage(protocol.MsgDrawBroadcast, protocol.DrawBroadcastPayload{
		Action: action,
	}))
	s.sendUndoRedoState(u, surface)
}

// Undo 撤销该用户最近的一个笔画
func (s *Session) Undo(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undoRedo(userID, true)
}

// Redo 重做该用户最近撤销的笔画
func (s *Session) Redo(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undoRedo(userID, false)
}

func (s *Session) undoRedo(userID string, undo bool) {
	u := s.findUser(userID)
	if u == nil || u.Spectator {
		return
	}
	surface, audience := s.routeCanvas(u)
	if surface == nil {
		return
	}
	if s.engine != nil && !s.engine.canDraw(u) {
		return
	}

	var ok bool
	if undo {
		ok = surface.Undo(u.ID)
	} else {
		ok = surface.Redo(u.ID)
	}
	if !ok {
		code := protocol.ErrCodeNothingToUndo
		if !undo {
			code = protocol.ErrCodeNothingToRedo
		}
		s.sendTo(u.ID, protocol.NewErrorMessage(code))
		return
	}

	s.sendToSet(audience, protocol.MustNewMessage(protocol.MsgCanvasState, protocol.CanvasStatePayload{
		OwnerID: ownerOf(s, u),
		Actions: surface.Log(),
	}))
	s.sendUndoRedoState(u, surface)
}

// ClearCanvas 画手主动清空画布
func (s *Session) ClearCanvas(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil || u.Spectator {
		return
	}
	surface, audience := s.routeCanvas(u)
	if surface == nil {
		return
	}
	if s.engine != nil && !s.engine.canDraw(u) {
		return
	}

	s.clearSurface(surface)
	s.sendToSet(audience, protocol.MustNewMessage(protocol.MsgCanvasCleared, nil))
}

// routeCanvas 解析用户画布的归属和观众（调用方需持锁）
// 大厅里所有人共用主画布，游戏中由模式引擎决定
func (s *Session) routeCanvas(u *User) (*canvas.History, []string) {
	if s.engine == nil {
		return s.canvas, s.allUserIDs()
	}
	if surface := s.engine.surfaceFor(u); surface != nil {
		return surface, s.engine.audienceFor(u)
	}
	return s.canvas, s.allUserIDs()
}

// ownerOf 私有画布的归属者 ID，共享画布为空
func ownerOf(s *Session, u *User) string {
	if s.engine != nil && s.engine.surfaceFor(u) != nil {
		return u.ID
	}
	return ""
}

// clearSurface 清空画布并通知每个受影响用户其撤销/重做已不可用
func (s *Session) clearSurface(surface *canvas.History) {
	affected := surface.Users()
	surface.Clear()
	for _, id := range affected {
		if u := s.findUser(id); u != nil {
			s.sendUndoRedoState(u, surface)
		}
	}
}

// resetCanvasLocked 回合/阶段边界的共享画布重置（调用方需持锁）
func (s *Session) resetCanvasLocked() {
	s.clearSurface(s.canvas)
	s.broadcast(protocol.MustNewMessage(protocol.MsgCanvasCleared, nil))
}

func (s *Session) sendUndoRedoState(u *User, surface *canvas.History) {
	s.sendTo(u.ID, protocol.MustNewMessage(protocol.MsgUndoRedoState, protocol.UndoRedoStatePayload{
		CanUndo: surface.CanUndo(u.ID),
		CanRedo: surface.CanRedo(u.ID),
	}))
}

func (s *Session) allUserIDs() []string {
	out := make([]string, len(s.users))
	for i, u := range s.users {
		out[i] = u.ID
	}
	return out
}

// --- 图层管理 ---

// canManageLayers 大厅里是房主，游戏中是共享画布的当前画手
func (s *Session) canManageLayers(u *User) bool {
	if u.Spectator {
		return false
	}
	if s.engine == nil {
		return u.ID == s.leaderID
	}
	if e, ok := s.engine.(*turnEngine); ok {
		return e.currentDrawerID() == u.ID
	}
	return false
}

// AddLayer 新建图层
func (s *Session) AddLayer(userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil || !s.canManageLayers(u) {
		return apperrors.ErrNotYourTurn
	}
	if name == "" {
		name = "图层 " + uuid.NewString()[:4]
	}
	s.layers = append(s.layers, protocol.Layer{ID: uuid.NewString(), Name: name})
	s.broadcastLayers()
	return nil
}

// DeleteLayer 删除图层并清除其动作
func (s *Session) DeleteLayer(userID, layerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil || !s.canManageLayers(u) {
		return apperrors.ErrNotYourTurn
	}
	if len(s.layers) <= 1 {
		return apperrors.ErrInvalidLayer
	}

	idx := s.layerIndex(layerID)
	if idx == -1 {
		return apperrors.ErrInvalidLayer
	}
	s.layers = append(s.layers[:idx], s.layers[idx+1:]...)

	// 删除是破坏性操作：清除该图层动作并重置所有人的撤销/重做栈
	affected := s.canvas.Users()
	s.canvas.DeleteLayer(layerID)
	for _, id := range affected {
		if user := s.findUser(id); user != nil {
			s.sendUndoRedoState(user, s.canvas)
		}
	}

	// 指向被删图层的用户回落到第一层
	for _, user := range s.users {
		if user.ActiveLayer == layerID {
			user.ActiveLayer = s.layers[0].ID
		}
	}

	s.broadcast(protocol.MustNewMessage(protocol.MsgClearLayer, protocol.ClearLayerPayload{LayerID: layerID}))
	s.broadcast(protocol.MustNewMessage(protocol.MsgCanvasState, protocol.CanvasStatePayload{
		Actions: s.canvas.Log(),
	}))
	s.broadcastLayers()
	return nil
}

// RenameLayer 重命名图层
func (s *Session) RenameLayer(userID, layerID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil || !s.canManageLayers(u) {
		return apperrors.ErrNotYourTurn
	}
	idx := s.layerIndex(layerID)
	if idx == -1 || name == "" {
		return apperrors.ErrInvalidLayer
	}
	s.layers[idx].Name = name
	s.broadcastLayers()
	return nil
}

// ReorderLayers 按给定顺序重排图层，必须是现有图层的一个排列
func (s *Session) ReorderLayers(userID string, layerIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.findUser(userID)
	if u == nil || !s.canManageLayers(u) {
		return apperrors.ErrNotYourTurn
	}
	if len(layerIDs) != len(s.layers) {
		return apperrors.ErrInvalidLayer
	}

	reordered := make([]protocol.Layer, 0, len(s.layers))
	seen := make(map[string]bool, len(layerIDs))
	for _, id := range layerIDs {
		idx := s.layerIndex(id)
		if idx == -1 || seen[id] {
			return apperrors.ErrInvalidLayer
		}
		seen[id] = true
		reordered = append(reordered, s.layers[idx])
	}
	s.layers = reordered
	s.broadcastLayers()
	return nil
}

func (s *Session) layerIndex(id string) int {
	for i, l := range s.layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) broadcastLayers() {
	s.broadcast(protocol.MustNewMessage(protocol.MsgLayerUpdate, protocol.LayerUpdatePayload{
		Layers: s.layers,
	}))
}
