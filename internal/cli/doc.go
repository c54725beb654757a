// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the datacopilot command tree.
//
// Every front end drives the same controller: the full-screen interface,
// the line-mode REPL and the one-shot commands differ only in how they
// show alerts and ask for confirmation.
//
// # Commands
//
//   - tui: Full-screen interface (default when no subcommand is given)
//   - chat: Line-mode REPL with the same slash commands as the interface
//   - login, signup: Check credentials or create an account
//   - history, ask, delete, export: One-shot research session commands
//   - config: get, set, list and path for settings
//   - journal: Recent calls to the research service
//   - serve-dev: In-memory research service for local development
//   - version: Build information
//
// One-shot commands sign in on every run. Credentials come from
// --username/--password, then DATACOPILOT_USERNAME/DATACOPILOT_PASSWORD,
// then an interactive prompt.
//
// # Usage
//
//	if err := cli.Execute(); err != nil {
//	    fmt.Fprintln(os.Stderr, err)
//	    os.Exit(cli.ExitCode(err))
//	}
package cli
