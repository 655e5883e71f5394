package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/tfindex/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("tfindex", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
tfindex - an indexer and dependency mapper for Terraform configurations.

Usage:
  tfindex [options] [PATH]

Arguments:
  PATH
    Project root containing .tf / .tf.json files.

Options:
`)
		flagSet.PrintDefaults()
	}

	pathFlag := flagSet.String("path", "", "Project root to index.")
	pFlag := flagSet.String("p", "", "Project root to index (shorthand).")
	watchFlag := flagSet.Bool("watch", false, "Keep running and reindex on file changes.")
	pollIntervalFlag := flagSet.Duration("poll-interval", app.DefaultPollInterval, "Rescan interval in watch mode.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server in watch mode. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	noCacheFlag := flagSet.Bool("no-cache", false, "Bypass the parse cache and parse every file fresh.")
	continueFlag := flagSet.Bool("continue-on-error", false, "Keep indexing past file-level parse failures.")
	tfCacheFlag := flagSet.Bool("include-terraform-cache", false, "Index files inside .terraform module caches.")
	ignoreFlag := flagSet.String("ignore", "", "Comma-separated glob patterns to exclude from discovery.")
	workersFlag := flagSet.Int("workers", 0, "Parallelism for large batches. 0 uses the CPU count.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *pathFlag != "" {
		path = *pathFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Project path determined.", "path", path)

	if path == "" {
		slog.Debug("No project path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *workersFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid workers: must be zero or positive"}
	}
	if *pollIntervalFlag <= 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid poll-interval: must be positive"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Path:                  path,
		Watch:                 *watchFlag,
		PollInterval:          *pollIntervalFlag,
		HealthcheckPort:       *healthPortFlag,
		LogFormat:             logFormat,
		LogLevel:              logLevel,
		NoCache:               *noCacheFlag,
		ContinueOnError:       *continueFlag,
		IncludeTerraformCache: *tfCacheFlag,
		IgnoreGlobs:           splitGlobs(*ignoreFlag),
		Workers:               *workersFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// splitGlobs turns the comma-separated -ignore value into a clean list.
func splitGlobs(raw string) []string {
	if raw == "" {
		return nil
	}
	var globs []string
	for _, g := range strings.Split(raw, ",") {
		if g = strings.TrimSpace(g); g != "" {
			globs = append(globs, g)
		}
	}
	return globs
}
