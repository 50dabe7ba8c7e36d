package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/proxy-bootstrap/internal/application"
	"github.com/eugenenazirov/proxy-bootstrap/internal/config"
	"github.com/eugenenazirov/proxy-bootstrap/internal/exitcodes"
	"github.com/eugenenazirov/proxy-bootstrap/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	kingpinApp := kingpin.New("proxy-bootstrap", "Renders environment placeholders into proxy config and hands off to the server")
	configFile := kingpinApp.Flag("config", "Path to YAML manifest describing targets and placeholders").String()
	root := kingpinApp.Flag("root", "Directory every target path is resolved beneath").String()
	var superviseSet, noLaunchSet, checkSet bool
	supervise := kingpinApp.Flag("supervise", "Run the server as a child and forward signals instead of exec").IsSetByUser(&superviseSet).Bool()
	noLaunch := kingpinApp.Flag("no-launch", "Render configuration and exit without starting the server").IsSetByUser(&noLaunchSet).Bool()
	check := kingpinApp.Flag("check", "Fail if any placeholder token remains after rendering").IsSetByUser(&checkSet).Bool()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	logFormat := kingpinApp.Flag("log-format", "Log encoding (json, console)").String()
	command := kingpinApp.Arg("command", "Server command to launch, flags included; '--' before it is optional (default: nginx -g 'daemon off;')").Strings()
	// Everything after the first positional argument belongs to the server.
	kingpinApp.Interspersed(false)

	kingpinApp.UsageWriter(stderr)
	kingpinApp.ErrorWriter(stderr)
	if _, err := kingpinApp.Parse(args); err != nil {
		fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
		return exitcodes.InvalidArgs
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
		Launch:     *command,
	}

	if *root != "" {
		overrides.Root = root
	}

	if superviseSet {
		overrides.Supervise = supervise
	}

	if noLaunchSet {
		overrides.NoLaunch = noLaunch
	}

	if checkSet {
		overrides.Check = check
	}

	if *logLevel != "" {
		overrides.LogLevel = logLevel
	}

	if *logFormat != "" {
		overrides.LogFormat = logFormat
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitcodes.CodeForError(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return exitcodes.InvalidArgs
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := application.New(cfg, logger).Run(); err != nil {
		code := exitcodes.CodeForError(err)
		logger.Error("bootstrap failed", zap.Error(err), zap.Int("exit_code", code))
		return code
	}
	return exitcodes.Success
}
