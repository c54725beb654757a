// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/datacopilot-tui/internal/config"
)

func newConfigCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change settings in dot notation, e.g. chat.model or ui.theme.

'get' and 'list' show the effective value, including environment
overrides. 'set' edits only the config file.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print one setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := e.cfg.Get(args[0])
				if err != nil {
					return &NotFoundError{Resource: "config key", ID: args[0]}
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Change one setting in the config file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := e.configFile()
				if err != nil {
					return err
				}
				if err := setConfigValue(path, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", SuccessStyle.Render("Saved"), args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print every setting",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				out := cmd.OutOrStdout()
				for _, key := range config.GetAllKeys() {
					v, err := e.cfg.Get(key)
					if err != nil {
						continue
					}
					fmt.Fprintf(out, "%s = %v\n", key, v)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := e.configFile()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}

// setConfigValue loads the file alone (no environment overrides), applies
// one change, validates and writes it back.
func setConfigValue(path, key, value string) error {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		var loadErr error
		if strings.HasSuffix(path, ".json") {
			loadErr = config.LoadJSON(cfg, path)
		} else {
			loadErr = config.LoadTOML(cfg, path)
		}
		if loadErr != nil {
			return loadErr
		}
	}

	if err := cfg.Set(key, value); err != nil {
		if _, getErr := cfg.Get(key); getErr != nil {
			return &NotFoundError{Resource: "config key", ID: key}
		}
		return NewUsageError("invalid value for %s: %v", key, err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}
