package helpers

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coral-mesh/coltools/internal/logging"
)

// AddFormatFlag adds a standard --format/-o flag to a command.
func AddFormatFlag(cmd *cobra.Command, formatVar *string, defaultFormat OutputFormat, supportedFormats []OutputFormat) {
	formatNames := make([]string, len(supportedFormats))
	for i, f := range supportedFormats {
		formatNames[i] = string(f)
	}

	description := fmt.Sprintf("Output format (%s)", strings.Join(formatNames, ", "))
	cmd.Flags().StringVarP(formatVar, "format", "o", string(defaultFormat), description)

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return formatNames, cobra.ShellCompDirectiveNoFileComp
	})
}

// AddLogLevelFlag adds a standard --log-level flag.
func AddLogLevelFlag(cmd *cobra.Command, levelVar *string, defaultLevel string) {
	levels := []string{"trace", "debug", "info", "warn", "error"}
	cmd.Flags().StringVar(levelVar, "log-level", defaultLevel,
		fmt.Sprintf("Log level (%s)", strings.Join(levels, ", ")))

	_ = cmd.RegisterFlagCompletionFunc("log-level", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return levels, cobra.ShellCompDirectiveNoFileComp
	})
}

// ValidateFormat checks if the format is in the supported list.
func ValidateFormat(format string, supported []OutputFormat) error {
	for _, s := range supported {
		if format == string(s) {
			return nil
		}
	}

	supportedNames := make([]string, len(supported))
	for i, s := range supported {
		supportedNames[i] = string(s)
	}

	return fmt.Errorf("unsupported format %q, must be one of: %s",
		format, strings.Join(supportedNames, ", "))
}

// NewLogger creates the logger of a command. Logs go to the command's
// stderr, pretty-printed when that is a terminal.
func NewLogger(cmd *cobra.Command, level, component string) zerolog.Logger {
	out := cmd.ErrOrStderr()
	return logging.NewWithComponent(logging.Config{
		Level:  level,
		Pretty: logging.IsTerminal(out),
		Output: out,
	}, component)
}
