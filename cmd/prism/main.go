// Command prism highlights a source file on the terminal and,
// under -watch, re-reads and re-highlights it with a full Run every
// time it is saved.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/ashlark/prism/pkg"
)

var (
	engineFlag   = flag.String("engine", "auto", "pattern engine: 'auto', 'go', or 'hyperscan'")
	extFlag      = flag.String("ext", "", "catalog extension override, e.g. '.go' (default: inferred from the file name)")
	tabWidthFlag = flag.Int("tab-width", 4, "tab expansion width")
	watchFlag    = flag.Bool("watch", false, "re-highlight the file whenever it is saved")
	tableFlag    = flag.Bool("table", false, "print a per-kind highlighted-token count summary table instead of highlighted source")
	noColorFlag  = flag.Bool("no-color", false, "disable ANSI colour output")
	helpFlag     = flag.Bool("help", false, "show this help message")
)

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [options] <file>\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nPackaged catalogs: %s\n", strings.Join(prism.Extensions(), ", "))
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if *helpFlag || flag.NArg() < 1 {
		printUsage()
		if *helpFlag {
			os.Exit(0)
		}
		os.Exit(1)
	}

	path := flag.Arg(0)
	color.NoColor = *noColorFlag || color.NoColor

	h, err := buildHighlighter(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "prism: %v\n", err)
		os.Exit(1)
	}
	defer h.Close()

	if err := highlightOnce(h, path); err != nil {
		fmt.Fprintf(os.Stderr, "prism: %v\n", err)
		os.Exit(1)
	}

	if *watchFlag {
		if err := watchAndRehighlight(h, path); err != nil {
			fmt.Fprintf(os.Stderr, "prism: watch: %v\n", err)
			os.Exit(1)
		}
	}
}

func buildHighlighter(path string) (*prism.Highlighter, error) {
	ext := *extFlag
	if ext == "" {
		ext = filepath.Ext(path)
	}

	h, ok := prism.FromExtension(ext, *tabWidthFlag, prism.WithEngine(*engineFlag))
	if !ok {
		return nil, fmt.Errorf("no packaged catalog for extension %q (have: %s)", ext, strings.Join(prism.Extensions(), ", "))
	}
	return h, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func highlightOnce(h *prism.Highlighter, path string) error {
	lines, err := readLines(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	h.Run(lines)

	if *tableFlag {
		return printSummaryTable(h, lines)
	}
	return printHighlighted(h, lines)
}

var kindColors = map[prism.Kind]*color.Color{
	"keyword": color.New(color.FgMagenta, color.Bold),
	"builtin": color.New(color.FgCyan),
	"string":  color.New(color.FgGreen),
	"comment": color.New(color.FgHiBlack, color.Italic),
	"number":  color.New(color.FgYellow),
}

func colorFor(kind prism.Kind) *color.Color {
	if c, ok := kindColors[kind]; ok {
		return c
	}
	return color.New(color.Reset)
}

func printHighlighted(h *prism.Highlighter, lines []string) error {
	for i, raw := range lines {
		tokens, err := h.Line(i, raw)
		if err != nil {
			return err
		}
		for _, t := range tokens {
			if t.Plain {
				fmt.Print(t.Text)
				continue
			}
			colorFor(t.Kind).Print(t.Text)
		}
		fmt.Println()
	}
	return nil
}

func printSummaryTable(h *prism.Highlighter, lines []string) error {
	counts := make(map[prism.Kind]int)
	for i, raw := range lines {
		tokens, err := h.Line(i, raw)
		if err != nil {
			return err
		}
		for _, t := range tokens {
			if !t.Plain {
				counts[t.Kind]++
			}
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Kind", "Tokens")
	for kind, n := range counts {
		table.Append(string(kind), fmt.Sprintf("%d", n))
	}
	return table.Render()
}

// watchAndRehighlight re-reads and re-highlights path every time it is
// written, using Run for simplicity (a host embedding the library for
// an open editor buffer would instead diff and call Edit/Insert/Remove
// per changed line; the CLI demo has no live buffer to diff against).
func watchAndRehighlight(h *prism.Highlighter, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	log := logrus.WithField("file", path)
	log.Info("watching for changes")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.WithField("op", event.Op.String()).Info("change detected, re-highlighting")
			if err := highlightOnce(h, path); err != nil {
				log.WithError(err).Error("re-highlight failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")
		}
	}
}
