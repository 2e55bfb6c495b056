package telegram

import (
	tele "gopkg.in/telebot.v3"
)

type Router struct {
	menu      *Menu
	commands  *CommandHandler
	callbacks *CallbackHandler
}

func NewRouter(menu *Menu, cmd *CommandHandler, cb *CallbackHandler) *Router {
	return &Router{
		menu:      menu,
		commands:  cmd,
		callbacks: cb,
	}
}

func (r *Router) Register(b *tele.Bot) {
	// Commands
	b.Handle("/start", r.commands.OnStart)
	b.Handle("/status", r.commands.OnStatus)
	b.Handle("/stock", r.commands.OnStock)
	b.Handle("/history", r.commands.OnHistory)
	b.Handle("/run", r.commands.OnRun)
	b.Handle("/stop", r.commands.OnStop)
	b.Handle("/pause", r.commands.OnPause)
	b.Handle("/estop", r.commands.OnEStop)
	b.Handle("/reset", r.commands.OnReset)

	// Reply Keyboard
	b.Handle(&r.menu.BtnStatus, r.commands.OnStatus)
	b.Handle(&r.menu.BtnStock, r.commands.OnStock)
	b.Handle(&r.menu.BtnHistory, r.commands.OnHistory)
	b.Handle(&r.menu.BtnHome, r.commands.OnStart)

	// Callbacks & Text
	b.Handle(tele.OnCallback, r.callbacks.OnCallback)
	b.Handle(tele.OnText, r.commands.OnText)
}
