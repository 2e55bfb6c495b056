package telegram

import (
	"strings"

	tele "gopkg.in/telebot.v3"
)

type CallbackHandler struct {
	menu       *Menu
	cmdHandler *CommandHandler
}

func NewCallbackHandler(menu *Menu, cmd *CommandHandler) *CallbackHandler {
	return &CallbackHandler{
		menu:       menu,
		cmdHandler: cmd,
	}
}

func (h *CallbackHandler) OnCallback(c tele.Context) error {
	defer c.Respond()
	// Unregistered uniques reach OnCallback with the leading \f still attached.
	data := strings.TrimSpace(c.Callback().Data)

	switch data {
	case cbRun:
		return h.cmdHandler.OnRun(c)
	case cbStop:
		return h.cmdHandler.OnStop(c)
	case cbPause:
		return h.cmdHandler.OnPause(c)
	case cbEStop:
		return h.cmdHandler.askReason(c, pendingEmergencyStop)
	case cbReset:
		return h.cmdHandler.askReason(c, pendingReset)
	case cbStock:
		return h.cmdHandler.OnStock(c)
	case cbHistory:
		return h.cmdHandler.OnHistory(c)
	case cbCancel:
		h.cmdHandler.sessions.Clear(chatID(c))
		return h.cmdHandler.OnStatus(c)
	case cbStatus:
		return h.cmdHandler.OnStatus(c)
	}
	return nil
}
