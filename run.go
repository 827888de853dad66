package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

type cliApp struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	// loader and toolchain default to dlopen and the configured compiler.
	loader    moduleLoader
	toolchain toolchain
}

func run(argv []string, stdout, stderr io.Writer) error {
	app := &cliApp{stdout: stdout, stderr: stderr}
	return app.run(argv)
}

func (app *cliApp) run(argv []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cmd := newRootCmd(app)
	cmd.SetArgs(argv)
	return cmd.ExecuteContext(ctx)
}

func projectRoot(args []string) (string, error) {
	root := "."
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", root)
	}
	return abs, nil
}

// generate runs the control file of the project at root and writes the
// resulting document.
func (app *cliApp) generate(ctx context.Context, root string, flags *pflag.FlagSet) error {
	cfg, cfgPath, err := loadConfig(root, app.configPath, flags)
	if err != nil {
		return err
	}
	logger, err := newLogger(app.stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	if cfgPath != "" {
		logger.Debug("loaded config", "path", cfgPath)
	}
	controlPath := cfg.controlPath(root)
	control, err := os.ReadFile(controlPath)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(app.stdout, "No %s file found\n", cfg.ControlFile)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read control file: %w", err)
	}
	outDir := cfg.outputDir(root)
	if _, err := os.Stat(outDir); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		logger.Info("created output directory", "path", outDir)
	}

	tc := app.toolchain
	if tc == nil {
		tc = shellToolchain{command: cfg.Compiler, stdout: app.stderr, stderr: app.stderr}
	}
	eng := newEngine(newPluginBridge(cfg.commandsDir(root), app.loader), tc, logger)
	eng.root = root
	eng.maxAliasDepth = cfg.MaxAliasDepth

	logger.Info("generating docs", "control", cfg.ControlFile, "output", outDir)
	doc := eng.generate(ctx, filepath.Base(controlPath), string(control))

	target := cfg.outputPath(root)
	if err := writeOutput(target, app.stdout, []byte(doc)); err != nil {
		return err
	}
	if target != "-" {
		logger.Info("wrote output", "path", target, "size", humanize.Bytes(uint64(len(doc))))
	}
	reportDiagnostics(logger, app.stderr, eng.diagnostics)
	if cfg.Strict && len(eng.diagnostics) > 0 {
		return fmt.Errorf("%d diagnostics reported (strict mode)", len(eng.diagnostics))
	}
	return nil
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// preview renders the generated document for the terminal.
func (app *cliApp) preview(root, style string, flags *pflag.FlagSet) error {
	cfg, _, err := loadConfig(root, app.configPath, flags)
	if err != nil {
		return err
	}
	target := cfg.outputPath(root)
	if target == "-" {
		return errors.New("preview needs a file output, not stdout")
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s does not exist; run docgen first", target)
	}
	if err != nil {
		return err
	}
	rendered, err := glamour.Render(string(data), style)
	if err != nil {
		return fmt.Errorf("render %s: %w", target, err)
	}
	_, err = io.WriteString(app.stdout, rendered)
	return err
}

// scan lists the comments of a source file as the interpreter sees them.
func (app *cliApp) scan(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	spans := scanComments(string(data))
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("#", "START", "END", "DOC", "BODY")
	for i, span := range spans {
		doc := ""
		if strings.Contains(span.body, "@DOC") {
			doc = "yes"
		}
		t.Row(fmt.Sprint(i), fmt.Sprint(span.start), fmt.Sprint(span.end), doc, truncate(simplifyWhitespace(span.body), 60))
	}
	fmt.Fprintln(app.stdout, t.String())
	fmt.Fprintf(app.stdout, "%d comments in %s\n", len(spans), path)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// showConfig prints the effective configuration as TOML.
func (app *cliApp) showConfig(root string, flags *pflag.FlagSet) error {
	cfg, cfgPath, err := loadConfig(root, app.configPath, flags)
	if err != nil {
		return err
	}
	if cfgPath != "" {
		fmt.Fprintf(app.stdout, "# loaded from %s\n", cfgPath)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = app.stdout.Write(data)
	return err
}
