package main

import (
	"curator-bot/bot"
	"curator-bot/command"
	"curator-bot/handlers"
)

func main() {
	bot.Run(handlers.Register, command.GetCommandDefinitions())
}
