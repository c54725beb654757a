// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
)

// Command names understood by the TUI and the REPL.
const (
	CmdNew     = "new"
	CmdHistory = "history"
	CmdLoad    = "load"
	CmdDelete  = "delete"
	CmdExport  = "export"
	CmdAttach  = "attach"
	CmdModel   = "model"
	CmdLogout  = "logout"
	CmdHelp    = "help"
	CmdQuit    = "quit"
)

// Command is a parsed slash command.
type Command struct {
	Name string
	Arg  string
}

// CommandInfo describes a command for help output.
type CommandInfo struct {
	Name  string
	Usage string
	Desc  string
}

// Commands lists every command in help order.
var Commands = []CommandInfo{
	{CmdNew, "/new", "Start a new research session"},
	{CmdHistory, "/history", "List saved research sessions"},
	{CmdLoad, "/load N", "Open session N from /history"},
	{CmdDelete, "/delete", "Delete the displayed session"},
	{CmdExport, "/export [md|json] [dir]", "Save the displayed session to a file"},
	{CmdAttach, "/attach PATH", "Attach a document (not uploaded)"},
	{CmdModel, "/model [ID]", "Show or change the model"},
	{CmdLogout, "/logout", "Sign out"},
	{CmdHelp, "/help", "Show this help"},
	{CmdQuit, "/quit", "Exit"},
}

var aliases = map[string]string{
	"n":       CmdNew,
	"h":       CmdHistory,
	"ls":      CmdHistory,
	"open":    CmdLoad,
	"rm":      CmdDelete,
	"signout": CmdLogout,
	"?":       CmdHelp,
	"q":       CmdQuit,
	"exit":    CmdQuit,
}

// ParseCommand parses a "/name arg" line. ok is false for lines that do not
// start with "/" or that name no known command.
func ParseCommand(line string) (cmd Command, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") || len(line) == 1 {
		return Command{}, false
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	name = strings.ToLower(name)
	if full, found := aliases[name]; found {
		name = full
	}
	for _, c := range Commands {
		if c.Name == name {
			return Command{Name: name, Arg: strings.TrimSpace(arg)}, true
		}
	}
	return Command{}, false
}

// IsCommandLine reports whether line looks like a command, known or not.
func IsCommandLine(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "/") && len(line) > 1 && !strings.HasPrefix(line, "//")
}

// HelpText renders the command list.
func HelpText() string {
	var b strings.Builder
	for _, c := range Commands {
		fmt.Fprintf(&b, "  %-26s %s\n", c.Usage, c.Desc)
	}
	return b.String()
}
