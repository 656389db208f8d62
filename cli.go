package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"hidectl/internal/engine"
	"hidectl/internal/history"
	"hidectl/internal/models"
)

// errUsage marks a command line that could not be understood
var errUsage = errors.New("usage")

// runCommand executes one subcommand and writes its output to out
func runCommand(a *app, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "list", "ls":
		return cmdList(a, strings.Join(args, " "), out)
	case "hide", "unhide":
		if len(args) != 1 {
			return fmt.Errorf("%w: hidectl %s <package>", errUsage, cmd)
		}
		return cmdSet(a, args[0], cmd == "hide", out)
	case "status":
		return cmdStatus(a, out)
	case "snapshot":
		return cmdSnapshot(a, strings.Join(args, " "), out)
	case "diff":
		return cmdDiff(a, out)
	case "history", "log":
		return cmdHistory(a, out)
	case "label":
		locale := ""
		if len(args) > 0 && (args[0] == "-l" || args[0] == "--locale") {
			if len(args) < 2 {
				return fmt.Errorf("%w: %s requires a locale", errUsage, args[0])
			}
			locale, args = args[1], args[2:]
		}
		if len(args) < 2 {
			return fmt.Errorf("%w: hidectl label [-l <locale>] <package> <text>", errUsage)
		}
		return cmdLabel(a, args[0], locale, strings.Join(args[1:], " "), out)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func cmdList(a *app, filter string, out io.Writer) error {
	ctx, cancel := a.commandContext()
	defer cancel()

	var warnings []string
	a.engine.OnStatus(func(s engine.Status) {
		if s.Kind == engine.StatusWarning {
			warnings = append(warnings, s.Text())
		}
	})
	if err := a.engine.Reload(ctx); err != nil {
		return err
	}
	a.engine.SetFilter(filter)
	v := a.engine.Snapshot()

	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	writeRows(out, v)
	fmt.Fprintf(out, "\n%d shown, %d hidden, %d installed\n", v.Len(), v.HiddenCount(), v.Total)
	return nil
}

// writeRows prints one line per entry with aligned labels
func writeRows(out io.Writer, v *models.ViewState) {
	width := 0
	for _, e := range v.Entries {
		width = max(width, utf8.RuneCountInString(e.DisplayLabel()))
	}
	for _, e := range v.Entries {
		mark := " "
		if e.Hidden() {
			mark = "x"
		}
		label := e.DisplayLabel()
		pad := strings.Repeat(" ", width-utf8.RuneCountInString(label))
		fmt.Fprintf(out, "[%s] %s%s  %s\n", mark, label, pad, e.PackageID)
	}
}

func cmdSet(a *app, pkg string, hidden bool, out io.Writer) error {
	ctx, cancel := a.commandContext()
	defer cancel()

	changed, err := a.setHidden(ctx, pkg, hidden)
	if err != nil {
		return err
	}
	switch {
	case !changed && hidden:
		fmt.Fprintf(out, "%s is already hidden\n", pkg)
	case !changed:
		fmt.Fprintf(out, "%s is not hidden\n", pkg)
	case hidden:
		fmt.Fprintf(out, "Hidden %s\n", pkg)
	default:
		fmt.Fprintf(out, "Unhidden %s\n", pkg)
	}
	return nil
}

func cmdStatus(a *app, out io.Writer) error {
	ctx, cancel := a.commandContext()
	defer cancel()

	enabled, err := a.gateway.Status(ctx)
	if err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(out, "MagiskHide is %s\n", state)
	return nil
}

func cmdLabel(a *app, pkg, locale, text string, out io.Writer) error {
	if err := a.labels.SetLabel(pkg, locale, text); err != nil {
		return err
	}
	if locale == "" {
		fmt.Fprintf(out, "Label for %s set to %q\n", pkg, strings.TrimSpace(text))
		return nil
	}
	fmt.Fprintf(out, "Label for %s (%s) set to %q\n", pkg, locale, strings.TrimSpace(text))
	return nil
}

func cmdSnapshot(a *app, message string, out io.Writer) error {
	ctx, cancel := a.commandContext()
	defer cancel()

	changed, set, err := a.recordSnapshot(ctx, message)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(out, "No changes since last snapshot")
		return nil
	}
	fmt.Fprintf(out, "Recorded snapshot (%d hidden) in %s\n", len(set), a.cfg.HistoryDir)
	return nil
}

func cmdDiff(a *app, out io.Writer) error {
	ctx, cancel := a.commandContext()
	defer cancel()

	change, err := a.diffSinceSnapshot(ctx)
	if err != nil {
		return err
	}
	if change.Empty() {
		fmt.Fprintln(out, "No changes since last snapshot")
		return nil
	}
	fmt.Fprint(out, history.NewRenderer().Render(change.Unified))
	fmt.Fprintln(out, change.Summary())
	return nil
}

func cmdHistory(a *app, out io.Writer) error {
	rec, err := history.Open(a.cfg.HistoryDir)
	if err != nil {
		return err
	}
	snapshots, err := rec.Log(20)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(out, "No snapshots recorded")
		return nil
	}
	for _, s := range snapshots {
		fmt.Fprintf(out, "%s  %s  %s\n", s.Hash, s.When.Format("2006-01-02 15:04"), s.Message)
	}
	return nil
}
