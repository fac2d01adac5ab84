package canvas

import (
	"github.com/palemoky/sketch-party/internal/protocol"
)

// maxUndoDepth 每个用户最多可撤销的笔画数，超出后最旧的笔画被挤出
const maxUndoDepth = 10

// History 一块画布的动作日志与每用户撤销/重做栈
//
// 日志是 append-only 的：撤销从日志中移除整个笔画的动作并存入重做栈，
// 重做把动作追加回日志末尾（不会插回原位置）。
type History struct {
	log  []protocol.CanvasAction
	undo map[string][]string                   // userID → 笔画 ID 栈（≤ maxUndoDepth）
	redo map[string][][]protocol.CanvasAction // userID → 被移除的动作批次栈
}

// NewHistory 创建空画布
func NewHistory() *History {
	return &History{
		undo: make(map[string][]string),
		redo: make(map[string][][]protocol.CanvasAction),
	}
}

// Append 追加一次画笔动作
// 新笔画（StrokeID 与栈顶不同）入撤销栈并清空该用户的重做栈
func (h *History) Append(a protocol.CanvasAction) {
	h.log = append(h.log, a)

	stack := h.undo[a.UserID]
	if len(stack) > 0 && stack[len(stack)-1] == a.StrokeID {
		return // 同一笔画的后续点，不新增撤销单元
	}

	stack = append(stack, a.StrokeID)
	if len(stack) > maxUndoDepth {
		stack = stack[len(stack)-maxUndoDepth:]
	}
	h.undo[a.UserID] = stack
	delete(h.redo, a.UserID)
}

// Undo 撤销该用户最近的一个笔画
// 返回撤销是否发生；被移除的动作批次进入重做栈
func (h *History) Undo(userID string) bool {
	stack := h.undo[userID]
	if len(stack) == 0 {
		return false
	}

	strokeID := stack[len(stack)-1]
	h.undo[userID] = stack[:len(stack)-1]

	var kept []protocol.CanvasAction
	var removed []protocol.CanvasAction
	for _, a := range h.log {
		if a.StrokeID == strokeID {
			removed = append(removed, a)
		} else {
			kept = append(kept, a)
		}
	}
	h.log = kept
	h.redo[userID] = append(h.redo[userID], removed)
	return true
}

// Redo 重做该用户最近撤销的笔画
// 动作批次追加到日志末尾，笔画 ID 重新入撤销栈（同样受深度上限约束）
func (h *History) Redo(userID string) bool {
	batches := h.redo[userID]
	if len(batches) == 0 {
		return false
	}

	batch := batches[len(batches)-1]
	h.redo[userID] = batches[:len(batches)-1]
	if len(h.redo[userID]) == 0 {
		delete(h.redo, userID)
	}

	h.log = append(h.log, batch...)

	if len(batch) > 0 {
		stack := append(h.undo[userID], batch[0].StrokeID)
		if len(stack) > maxUndoDepth {
			stack = stack[len(stack)-maxUndoDepth:]
		}
		h.undo[userID] = stack
	}
	return true
}

// DeleteLayer 删除图层：清除该图层的动作与重做批次
// 图层删除是破坏性操作，为保证一致性清空所有用户的撤销/重做栈
func (h *History) DeleteLayer(layerID string) {
	var kept []protocol.CanvasAction
	for _, a := range h.log {
		if a.LayerID != layerID {
			kept = append(kept, a)
		}
	}
	h.log = kept

	h.undo = make(map[string][]string)
	h.redo = make(map[string][][]protocol.CanvasAction)
}

// Clear 清空画布和所有栈
func (h *History) Clear() {
	h.log = nil
	h.undo = make(map[string][]string)
	h.redo = make(map[string][][]protocol.CanvasAction)
}

// Log 返回当前动作日志（调用方只读）
func (h *History) Log() []protocol.CanvasAction {
	return h.log
}

// Snapshot 返回日志副本，用于在阶段切换时固化画面
func (h *History) Snapshot() []protocol.CanvasAction {
	out := make([]protocol.CanvasAction, len(h.log))
	copy(out, h.log)
	return out
}

// CanUndo 该用户是否有可撤销的笔画
func (h *History) CanUndo(userID string) bool {
	return len(h.undo[userID]) > 0
}

// CanRedo 该用户是否有可重做的批次
func (h *History) CanRedo(userID string) bool {
	return len(h.redo[userID]) > 0
}

// Users 返回持有撤销或重做栈的用户列表
func (h *History) Users() []string {
	seen := make(map[string]bool)
	for id := range h.undo {
		seen[id] = true
	}
	for id := range h.redo {
		seen[id] = true
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}
