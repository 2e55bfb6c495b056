// Package telegram is the operator console: a bot that issues conveyor commands and shows stock.
package telegram

import (
	"fmt"
	"time"

	"github.com/iwtcode/conveyorControl"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

type Bot struct {
	Bot    *tele.Bot
	Router *Router
	logger *zap.Logger
}

// NewBot returns nil when TG_TOKEN is not set.
func NewBot(cfg *conveyorControl.Config, router *Router, logger *zap.Logger) (*Bot, error) {
	logger = logger.Named("telegram")
	if cfg.TgToken == "" {
		logger.Info("TG_TOKEN not set, operator console disabled")
		return nil, nil
	}

	pref := tele.Settings{
		Token:     cfg.TgToken,
		Poller:    &tele.LongPoller{Timeout: 10 * time.Second},
		ParseMode: tele.ModeHTML,
		OnError: func(err error, c tele.Context) {
			logger.Error("telegram handler error", zap.Error(err))
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	b.Use(middleware.Recover())
	b.Use(LogMiddleware(logger))

	router.Register(b)

	err = b.SetCommands([]tele.Command{
		{Text: "start", Description: "Пульт управления"},
		{Text: "status", Description: "Состояние конвейера"},
		{Text: "stock", Description: "Склад"},
		{Text: "history", Description: "История команд"},
		{Text: "run", Description: "Пуск"},
		{Text: "stop", Description: "Стоп"},
		{Text: "pause", Description: "Пауза"},
		{Text: "estop", Description: "Аварийная остановка: /estop причина"},
		{Text: "reset", Description: "Сброс аварии: /reset причина"},
	})
	if err != nil {
		logger.Warn("failed to update bot command list", zap.Error(err))
	}

	return &Bot{
		Bot:    b,
		Router: router,
		logger: logger,
	}, nil
}

func (b *Bot) Start() {
	b.logger.Info("bot started")
	b.Bot.Start()
}

func (b *Bot) Stop() {
	b.Bot.Stop()
}
