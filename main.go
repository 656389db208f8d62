package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"hidectl/internal/config"
	"hidectl/internal/engine"
	"hidectl/internal/logging"
	"hidectl/internal/models"

	tea "github.com/charmbracelet/bubbletea"
)

// Version info (set by ldflags)
var (
	version   = "dev"
	buildTime = "unknown"
)

// options is the parsed command line
type options struct {
	debug   bool
	serial  string
	command string
	args    []string
}

func parseArgs(args []string) (options, error) {
	var opts options
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if opts.command != "" {
			opts.args = append(opts.args, arg)
			continue
		}
		switch arg {
		case "-v", "--version":
			opts.command = "version"
		case "-h", "--help":
			opts.command = "help"
		case "-d", "--debug":
			opts.debug = true
		case "-s", "--serial":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%w: %s needs a device serial", errUsage, arg)
			}
			i++
			opts.serial = args[i]
		default:
			if len(arg) > 1 && arg[0] == '-' {
				return opts, fmt.Errorf("%w: unknown flag %s", errUsage, arg)
			}
			opts.command = arg
		}
	}
	return opts, nil
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "hidectl - manage the MagiskHide list of an Android device")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: hidectl [options] [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  list [filter]      List apps, hidden first")
	fmt.Fprintln(w, "  hide <package>     Add a package to the hide-list")
	fmt.Fprintln(w, "  unhide <package>   Remove a package from the hide-list")
	fmt.Fprintln(w, "  status             Show whether MagiskHide is enabled")
	fmt.Fprintln(w, "  snapshot [msg]     Record the hide-list in history")
	fmt.Fprintln(w, "  diff               Show changes since the last snapshot")
	fmt.Fprintln(w, "  history            List recorded snapshots")
	fmt.Fprintln(w, "  label [-l <locale>] <package> <text>")
	fmt.Fprintln(w, "                     Set the display label of a package")
	fmt.Fprintln(w, "  version            Show version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -s, --serial <id>  Device serial for adb")
	fmt.Fprintln(w, "  -d, --debug        Enable debug logging")
	fmt.Fprintln(w, "  -v, --version      Show version")
	fmt.Fprintln(w, "  -h, --help         Show this help")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run without a command to start the TUI.")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	switch opts.command {
	case "version":
		fmt.Fprintf(stdout, "hidectl %s (built %s)\n", version, buildTime)
		return 0
	case "help":
		printHelp(stdout)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.serial != "" {
		cfg.Serial = opts.serial
	}

	// The TUI owns the terminal, so it logs to a file
	logOpts := logging.Options{Level: cfg.LogLevel, Debug: opts.debug, Writer: stderr}
	if opts.command == "" {
		logOpts.File = config.LogPath()
	}
	logger, closer, err := logging.New(logOpts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()

	a := newApp(cfg, logger, newRunner(cfg))
	defer a.engine.Close()

	if opts.command == "" {
		if err := runTUI(a); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := runCommand(a, opts.command, opts.args, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func runTUI(a *app) error {
	snapshot := func(ctx context.Context) (bool, int, error) {
		changed, set, err := a.recordSnapshot(ctx, "")
		return changed, len(set), err
	}

	p := tea.NewProgram(NewModel(a.engine, snapshot), tea.WithAltScreen())

	// Send blocks until the program reads the message; engine callbacks
	// may run on the program's own goroutine, so forward asynchronously.
	a.engine.Subscribe(func(v *models.ViewState) {
		go p.Send(viewMsg{view: v})
	})
	a.engine.OnStatus(func(s engine.Status) {
		go p.Send(statusMsg{status: s})
	})

	_, err := p.Run()
	return err
}
