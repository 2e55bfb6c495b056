package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	"github.com/iwtcode/conveyorControl/internal/interfaces"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const requestTimeout = 5 * time.Second

type CommandHandler struct {
	menu      *Menu
	controlUC interfaces.ControlUsecase
	sessions  *sessions
	logger    *zap.Logger
}

func NewCommandHandler(menu *Menu, controlUC interfaces.ControlUsecase, logger *zap.Logger) *CommandHandler {
	return &CommandHandler{
		menu:      menu,
		controlUC: controlUC,
		sessions:  newSessions(),
		logger:    logger,
	}
}

func (h *CommandHandler) OnStart(c tele.Context) error {
	h.sessions.Clear(chatID(c))
	if c.Callback() == nil {
		if err := c.Send("👋 <b>Пульт конвейера</b>", h.menu.ReplyMain); err != nil {
			return err
		}
	}
	return h.OnStatus(c)
}

func (h *CommandHandler) OnStatus(c tele.Context) error {
	state := h.controlUC.GetCurrentState(context.Background())
	return reply(c, formatStatus(state), h.menu.BuildControls(state))
}

func (h *CommandHandler) OnStock(c tele.Context) error {
	return reply(c, formatStock(h.controlUC.GetStockSummary(context.Background())), h.menu.BuildBack())
}

func (h *CommandHandler) OnHistory(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	seq, err := h.controlUC.GetCommandHistory(ctx, entities.HistoryFilter{})
	if err != nil {
		return c.Send(userError(err))
	}
	recs, err := lastRecords(seq, historyLimit)
	if err != nil {
		return c.Send(userError(err))
	}
	return reply(c, formatHistory(recs), h.menu.BuildBack())
}

func (h *CommandHandler) OnRun(c tele.Context) error {
	return h.issue(c, entities.CommandStart, "")
}

func (h *CommandHandler) OnStop(c tele.Context) error {
	return h.issue(c, entities.CommandStop, "")
}

func (h *CommandHandler) OnPause(c tele.Context) error {
	return h.issue(c, entities.CommandPause, "")
}

// OnEStop handles "/estop <reason>". Without a reason the next text message is used.
func (h *CommandHandler) OnEStop(c tele.Context) error {
	if reason := commandPayload(c); reason != "" {
		return h.issue(c, entities.CommandEmergencyStop, reason)
	}
	return h.askReason(c, pendingEmergencyStop)
}

// OnReset handles "/reset <reason>".
func (h *CommandHandler) OnReset(c tele.Context) error {
	if reason := commandPayload(c); reason != "" {
		return h.reset(c, reason)
	}
	return h.askReason(c, pendingReset)
}

func (h *CommandHandler) OnText(c tele.Context) error {
	input := strings.TrimSpace(c.Text())

	switch h.sessions.Take(chatID(c)) {
	case pendingEmergencyStop:
		return h.issue(c, entities.CommandEmergencyStop, input)
	case pendingReset:
		return h.reset(c, input)
	default:
		return h.OnStatus(c)
	}
}

func (h *CommandHandler) askReason(c tele.Context, action pendingAction) error {
	h.sessions.Await(chatID(c), action)
	text := "🛑 <b>Аварийная остановка</b>\n\nВведите причину:"
	if action == pendingReset {
		text = "♻️ <b>Сброс аварии</b>\n\nВведите причину сброса:"
	}
	return reply(c, text, h.menu.BuildCancel())
}

func (h *CommandHandler) issue(c tele.Context, cmd entities.Command, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	state, err := h.controlUC.IssueCommand(ctx, cmd, reason)
	if err != nil {
		h.logger.Warn("operator command failed", zap.String("command", cmd.String()), zap.Error(err))
		return c.Send(userError(err), h.menu.BuildControls(h.controlUC.GetCurrentState(ctx)))
	}
	return reply(c, "✅ "+cmd.String()+"\n\n"+formatStatus(state), h.menu.BuildControls(state))
}

func (h *CommandHandler) reset(c tele.Context, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	state, err := h.controlUC.ResetEmergency(ctx, reason)
	if err != nil {
		h.logger.Warn("emergency reset failed", zap.Error(err))
		return c.Send(userError(err), h.menu.BuildControls(h.controlUC.GetCurrentState(ctx)))
	}
	return reply(c, "♻️ Авария сброшена\n\n"+formatStatus(state), h.menu.BuildControls(state))
}

// reply edits the message under a pressed button, or sends a new one.
func reply(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if c.Callback() == nil {
		return c.Send(text, markup)
	}
	err := c.Edit(text, markup)
	if errors.Is(err, tele.ErrSameMessageContent) {
		return nil
	}
	return err
}

func commandPayload(c tele.Context) string {
	if c.Callback() != nil || c.Message() == nil {
		return ""
	}
	return strings.TrimSpace(c.Message().Payload)
}

func chatID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if user := c.Sender(); user != nil {
		return user.ID
	}
	return 0
}
