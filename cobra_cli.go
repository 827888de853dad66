package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	cobradoc "github.com/spf13/cobra/doc"
)

const rootLongDesc = `
docgen builds a document out of the comments in your source files.

A .docgen control file lays out the document: plain lines are copied as they are,
and @@COMMAND(...)@@ lines pull documentation in. Inside source comments, the text
between @DOC and @END is collected, and commands such as @FUNC_NAME, @FUNC_ARGS or
@NEXT_DECL extract pieces of the code that follows the comment.

  • @@PROCESS_SOURCES(src/**/*.cpp)@@ reads matching files
  • @@INSERT_SECTION(api)@@ places everything written with @SECTION(api)
  • @@NEW_ALIAS(NAME, {template})@@ defines a reusable in-comment command
  • @@NEW_COMMAND(NAME, {body})@@ compiles a native extension command

Settings come from .docgen.toml in the project directory, DOCGEN_* environment
variables and the flags below, in increasing precedence.
`

func newRootCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "docgen [flags] [project-dir]",
		Short:         "Generate documentation from source comments",
		Long:          strings.TrimSpace(rootLongDesc),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.DisableAutoGenTag = true
	cmd.Version = Version
	cmd.SetOut(app.stdout)
	cmd.SetErr(io.Discard)
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "config file (default <project-dir>/"+configFileName+")")
	flags.StringP("output", "o", "docs", "output directory")
	flags.StringP("control", "c", ".docgen", "control file")
	flags.String("out-file", "index.md", "output file name inside the output directory (- for stdout)")
	flags.String("commands-dir", "", "directory for compiled commands (default <output>/commands)")
	flags.String("compiler", defaultCompiler, "command line that builds a command; $SRC and $OUT are expanded")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Int("max-alias-depth", defaultMaxAliasDepth, "maximum nesting of alias expansions")
	flags.Bool("strict", false, "exit with an error when diagnostics were reported")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot(args)
		if err != nil {
			return err
		}
		return app.generate(cmd.Context(), root, cmd.Flags())
	}

	cmd.AddCommand(newPreviewCmd(app))
	cmd.AddCommand(newScanCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newCompletionCmd(cmd))
	cmd.AddCommand(newDocsCmd(cmd))
	return cmd
}

func newPreviewCmd(app *cliApp) *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "preview [project-dir]",
		Short: "Render the generated document in the terminal",
		Long: strings.TrimSpace(`
Render the last generated document with glamour.

Example:

  docgen && docgen preview --style light
`),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style (dark, light, notty, ascii, ...)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		root, err := projectRoot(args)
		if err != nil {
			return err
		}
		return app.preview(root, style, cmd.Flags())
	}
	return cmd
}

func newScanCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file>",
		Short: "List the comments docgen finds in a source file",
		Long: strings.TrimSpace(`
Print every comment of a file with its byte offsets. Comments containing @DOC
are the ones that contribute to the document.
`),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.scan(args[0])
		},
	}
}

func newConfigCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:           "config [project-dir]",
		Short:         "Print the effective configuration as TOML",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectRoot(args)
			if err != nil {
				return err
			}
			return app.showConfig(root, cmd.Flags())
		},
	}
}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	const (
		longDesc = `Generate shell completion scripts for docgen.

The output should be evaluated by your shell. For example:

  # bash
  docgen completion bash > /usr/local/etc/bash_completion.d/docgen

  # zsh
  docgen completion zsh > "${fpath[1]}/_docgen"

  # fish
  docgen completion fish | source

  # PowerShell
  docgen completion powershell | Out-String | Invoke-Expression
`
	)
	cmd := &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion scripts",
		Long:                  longDesc,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return root.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return root.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return root.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return root.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell %q", args[0])
		}
	}
	return cmd
}

func newDocsCmd(root *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen-docs [directory]",
		Short: "Generate Markdown reference docs for the CLI",
		Long: strings.TrimSpace(`
Write a Markdown file per command (suitable for publishing CLI docs).

Example:

  docgen gen-docs ./docs/cli
`),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		target := args[0]
		if target == "" {
			return fmt.Errorf("target directory is required")
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return err
		}
		return cobradoc.GenMarkdownTree(root, target)
	}
	return cmd
}
