package main

import (
	"fmt"

	"github.com/aracnido/haibot/command"
)

type chatCommand struct {
	// name is the primary name of the command.
	name string
	// aliases are other names for the command.
	aliases []string
	// fn is the implementation.
	fn command.Func
}

var chatCommands = []chatCommand{
	{name: "start", fn: command.Start},
	{name: "help", aliases: []string{"h"}, fn: command.Help},
	{name: "exit", fn: command.Exit},
	{name: "pj", fn: command.NewCharacter},
	{name: "master", fn: command.MasterMode},
	{name: "play", fn: command.Play},
	{name: "terraria", aliases: []string{"t"}, fn: command.Terraria},
	{name: "notify", fn: command.Notify},
	{name: "settings", fn: command.Settings},
	{name: "quote", fn: command.Quote},
	{name: "list", fn: command.List},
	{name: "search", fn: command.Search},
}

var unknownCommand = chatCommand{name: "unknown", fn: command.Unknown}

var commandIndex = func() map[string]*chatCommand {
	m := make(map[string]*chatCommand)
	for i := range chatCommands {
		c := &chatCommands[i]
		for _, name := range append([]string{c.name}, c.aliases...) {
			if m[name] != nil {
				panic(fmt.Sprintf("duplicate command name %q", name))
			}
			m[name] = c
		}
	}
	return m
}()

// findCommand resolves a command name or alias. Names that don't resolve get
// the unknown command, so the result is never nil.
func findCommand(name string) *chatCommand {
	if c := commandIndex[name]; c != nil {
		return c
	}
	return &unknownCommand
}
