package telegram

import (
	"errors"
	"fmt"
	"html"
	"iter"
	"strings"

	"github.com/iwtcode/conveyorControl/internal/domain"
	"github.com/iwtcode/conveyorControl/internal/domain/entities"
)

const historyLimit = 10

var stateIcons = map[entities.ConveyorState]string{
	entities.StateRunning:          "🟢",
	entities.StateStopped:          "⚪️",
	entities.StatePaused:           "🟡",
	entities.StateEmergencyStopped: "🔴",
}

var stateNames = map[entities.ConveyorState]string{
	entities.StateRunning:          "Работает",
	entities.StateStopped:          "Остановлен",
	entities.StatePaused:           "Пауза",
	entities.StateEmergencyStopped: "Аварийная остановка",
}

func formatState(s entities.ConveyorState) string {
	icon, ok := stateIcons[s]
	if !ok {
		icon = "❔"
	}
	name, ok := stateNames[s]
	if !ok {
		name = string(s)
	}
	return fmt.Sprintf("%s <b>%s</b> (<code>%s</code>)", icon, name, s)
}

func formatStatus(s entities.ConveyorState) string {
	text := "🏭 <b>Конвейер</b>\n\nСостояние: " + formatState(s)
	if s == entities.StateEmergencyStopped {
		text += "\n\nЛиния заблокирована до сброса аварии."
	}
	return text
}

func formatStock(summary []entities.StockSummary) string {
	var b strings.Builder
	b.WriteString("📦 <b>Склад</b>\n")
	if len(summary) == 0 {
		b.WriteString("\nПока ничего не произведено.")
		return b.String()
	}
	var total int64
	for _, s := range summary {
		fmt.Fprintf(&b, "\n• %s: <b>%d</b>", html.EscapeString(s.CarModel), s.Count)
		total += s.Count
	}
	fmt.Fprintf(&b, "\n\nВсего: <b>%d</b>", total)
	return b.String()
}

func formatHistory(recs []entities.ConveyorStatus) string {
	var b strings.Builder
	b.WriteString("📜 <b>История команд</b>\n")
	if len(recs) == 0 {
		b.WriteString("\nКоманд ещё не было.")
		return b.String()
	}
	for _, r := range recs {
		fmt.Fprintf(&b, "\n<code>%s</code> %s", r.Timestamp.UTC().Format("02.01 15:04:05"), r.Command)
		if reason := r.ReasonText(); reason != "" {
			fmt.Fprintf(&b, ": <i>%s</i>", html.EscapeString(reason))
		}
	}
	return b.String()
}

// lastRecords keeps the n most recent records of an ascending history.
func lastRecords(seq iter.Seq2[entities.ConveyorStatus, error], n int) ([]entities.ConveyorStatus, error) {
	var out []entities.ConveyorStatus
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
		if len(out) > n {
			out = out[1:]
		}
	}
	return out, nil
}

func userError(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingReason):
		return "⚠️ Укажите причину."
	case errors.Is(err, domain.ErrInvalidTransition):
		return "⛔️ Команда недопустима: " + html.EscapeString(err.Error())
	case errors.Is(err, domain.ErrPersistence):
		return "❌ Журнал недоступен, состояние не изменено."
	default:
		return "❌ Ошибка: " + html.EscapeString(err.Error())
	}
}
