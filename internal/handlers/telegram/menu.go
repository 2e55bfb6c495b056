package telegram

import (
	"github.com/iwtcode/conveyorControl/internal/domain/entities"
	tele "gopkg.in/telebot.v3"
)

// Callback data of the inline buttons.
const (
	cbRun     = "run"
	cbStop    = "stop"
	cbPause   = "pause"
	cbEStop   = "estop"
	cbReset   = "reset"
	cbStatus  = "status"
	cbStock   = "stock"
	cbHistory = "history"
	cbCancel  = "cancel"
)

type Menu struct {
	// Reply Main (нижняя клавиатура)
	ReplyMain  *tele.ReplyMarkup
	BtnStatus  tele.Btn
	BtnStock   tele.Btn
	BtnHistory tele.Btn
	BtnHome    tele.Btn
}

func NewMenu() *Menu {
	replyMain := &tele.ReplyMarkup{ResizeKeyboard: true}

	btnStatus := replyMain.Text("🏭 Состояние")
	btnStock := replyMain.Text("📦 Склад")
	btnHistory := replyMain.Text("📜 История")
	btnHome := replyMain.Text("🏠 В начало")

	replyMain.Reply(
		replyMain.Row(btnStatus, btnStock),
		replyMain.Row(btnHistory, btnHome),
	)

	return &Menu{
		ReplyMain:  replyMain,
		BtnStatus:  btnStatus,
		BtnStock:   btnStock,
		BtnHistory: btnHistory,
		BtnHome:    btnHome,
	}
}

// BuildControls offers the commands that make sense from the given state.
func (m *Menu) BuildControls(state entities.ConveyorState) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row

	switch state {
	case entities.StateEmergencyStopped:
		rows = append(rows, markup.Row(markup.Data("♻️ Сбросить аварию", cbReset)))
	case entities.StateRunning:
		rows = append(rows, markup.Row(
			markup.Data("⏸ Пауза", cbPause),
			markup.Data("⏹ Стоп", cbStop),
		))
	default:
		rows = append(rows, markup.Row(
			markup.Data("▶️ Пуск", cbRun),
			markup.Data("⏹ Стоп", cbStop),
		))
	}
	if state != entities.StateEmergencyStopped {
		rows = append(rows, markup.Row(markup.Data("🛑 Аварийная остановка", cbEStop)))
	}
	rows = append(rows, markup.Row(
		markup.Data("📦 Склад", cbStock),
		markup.Data("📜 История", cbHistory),
	))

	markup.Inline(rows...)
	return markup
}

func (m *Menu) BuildBack() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("🔙 К пульту", cbStatus)))
	return markup
}

func (m *Menu) BuildCancel() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("🚫 Отмена", cbCancel)))
	return markup
}
