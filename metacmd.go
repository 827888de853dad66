package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// generate interprets a control document and returns the finished output.
// Lines starting with "@@" are meta commands, closed by a second "@@" on the
// same line or by a line starting with "@@"; every other line is copied.
func (e *engine) generate(ctx context.Context, controlName, control string) string {
	var out strings.Builder
	lines := splitLines(control)
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if !strings.HasPrefix(line, "@@") {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}
		origin := fmt.Sprintf("%s:%d", controlName, i+1)
		command := line[2:]
		if pos := strings.Index(command, "@@"); pos >= 0 {
			command = command[:pos]
		} else {
			var b strings.Builder
			b.WriteString(command)
			for i+1 < len(lines) {
				i++
				if strings.HasPrefix(lines[i], "@@") {
					b.WriteString(lines[i][2:])
					break
				}
				b.WriteString(lines[i])
				b.WriteByte('\n')
			}
			command = b.String()
		}
		e.runMeta(ctx, origin, command, &out)
	}
	out.WriteString(simplifyMarkdown(e.sections.takeMain()))
	e.logger.Debug("finished control document", "sections", e.sections.names(), "aliases", len(e.aliases))
	return strip(simplifyMarkdown(out.String()))
}

// parseInvocation splits "NAME(arg, ...)" into its name and arguments.
func parseInvocation(command string) (string, []string) {
	command = strip(command)
	pos := strings.IndexByte(command, '(')
	if pos < 0 {
		return command, nil
	}
	args, _ := parseArgs(command, pos)
	return strip(command[:pos]), args
}

func (e *engine) runMeta(ctx context.Context, origin, command string, out *strings.Builder) {
	name, args := parseInvocation(command)
	e.logger.Debug("meta command", "name", name, "args", len(args), "at", origin)
	switch name {
	case "NEW_COMMAND":
		e.newCommand(ctx, origin, args)
	case "PROCESS_SOURCES":
		e.processSources(origin, args)
	case "INSERT_SECTION":
		e.insertSection(origin, args, out)
	case "NEW_ALIAS":
		e.newAlias(origin, args)
	default:
		e.report(diagUnresolved, origin, name, "unknown meta command")
	}
}

func (e *engine) newAlias(origin string, args []string) {
	if len(args) != 2 {
		e.report(diagArgument, origin, "NEW_ALIAS", "requires 2 arguments, got %d", len(args))
		return
	}
	name := unquote(args[0])
	if !isCommandName(name) {
		e.report(diagArgument, origin, "NEW_ALIAS", "alias name %q must start with an uppercase letter", name)
		return
	}
	e.registerAlias(name, unwrap(args[1]))
}

// insertSection splices a section into out. Splicing the main buffer drains
// it so it is not appended a second time at the end of the run.
func (e *engine) insertSection(origin string, args []string, out *strings.Builder) {
	if len(args) != 1 {
		e.report(diagArgument, origin, "INSERT_SECTION", "requires 1 argument, got %d", len(args))
		return
	}
	name := unquote(args[0])
	var text string
	if name == mainSection {
		text = e.sections.takeMain()
	} else {
		var ok bool
		text, ok = e.sections.lookup(name)
		if !ok {
			e.report(diagUnresolved, origin, "INSERT_SECTION", "section %q not found", name)
			return
		}
	}
	out.WriteString(simplifyMarkdown(text))
	out.WriteString("\n\n")
}

// processSources feeds every file matching the patterns through the
// interpreter in real-source mode.
func (e *engine) processSources(origin string, args []string) {
	var patterns []string
	for _, arg := range args {
		if p := unquote(arg); p != "" {
			patterns = append(patterns, p)
		}
	}
	paths := e.matchSources(origin, patterns)
	if len(paths) == 0 {
		e.report(diagInput, origin, "PROCESS_SOURCES", "no sources found for %s", strings.Join(patterns, ", "))
		return
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			e.report(diagInput, origin, "PROCESS_SOURCES", "%v", err)
			continue
		}
		name := e.displayPath(path)
		e.logger.Info("processing source", "path", name)
		e.processSource(sourceUnit{name: name, text: string(data)}, true)
	}
}

// matchSources expands the patterns relative to the project root, keeping
// match order and dropping duplicates and directories. Relative patterns are
// matched inside the root so its own path is never read as pattern syntax.
func (e *engine) matchSources(origin string, patterns []string) []string {
	seen := make(map[string]struct{})
	var paths []string
	for _, pattern := range patterns {
		matches, err := e.glob(pattern)
		if err != nil {
			e.report(diagInput, origin, "PROCESS_SOURCES", "bad pattern %q: %v", pattern, err)
			continue
		}
		for _, match := range matches {
			if _, dup := seen[match]; dup {
				continue
			}
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			seen[match] = struct{}{}
			paths = append(paths, match)
		}
	}
	return paths
}

func (e *engine) glob(pattern string) ([]string, error) {
	if filepath.IsAbs(pattern) {
		return doublestar.FilepathGlob(pattern)
	}
	root := e.root
	if root == "" {
		root = "."
	}
	rel := filepath.Clean(pattern)
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		// Outside the root there is no fs.FS to anchor on.
		return doublestar.FilepathGlob(filepath.Join(root, rel))
	}
	matches, err := doublestar.Glob(os.DirFS(root), filepath.ToSlash(rel))
	if err != nil {
		return nil, err
	}
	for i, m := range matches {
		matches[i] = filepath.Join(root, filepath.FromSlash(m))
	}
	return matches, nil
}

func (e *engine) displayPath(path string) string {
	if e.root == "" {
		return path
	}
	if rel, err := filepath.Rel(e.root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

// newCommand writes the plugin source for a command and asks the toolchain
// to build it. Build failures only show up later, when the command cannot
// be resolved.
func (e *engine) newCommand(ctx context.Context, origin string, args []string) {
	if len(args) != 2 && len(args) != 3 {
		e.report(diagArgument, origin, "NEW_COMMAND", "requires 2 or 3 arguments, got %d", len(args))
		return
	}
	spec := pluginSpec{Name: unquote(args[0])}
	if len(args) == 3 {
		spec.Includes = args[1]
		spec.Body = args[2]
	} else {
		spec.Body = args[1]
	}
	if !isCommandName(spec.Name) {
		e.report(diagArgument, origin, "NEW_COMMAND", "command name %q must start with an uppercase letter", spec.Name)
		return
	}
	if e.plugins == nil || e.plugins.dir == "" {
		e.logger.Warn("no commands directory configured, skipping", "command", spec.Name)
		return
	}
	src, err := renderPluginSource(spec)
	if err != nil {
		e.logger.Warn("could not render command source", "command", spec.Name, "err", err)
		return
	}
	if err := os.MkdirAll(e.plugins.dir, 0o755); err != nil {
		e.logger.Warn("could not create commands directory", "dir", e.plugins.dir, "err", err)
		return
	}
	srcPath := filepath.Join(e.plugins.dir, spec.Name+".cpp")
	if err := os.WriteFile(srcPath, src, 0o644); err != nil {
		e.logger.Warn("could not write command source", "path", srcPath, "err", err)
		return
	}
	if e.toolchain == nil {
		return
	}
	out := e.plugins.artifactPath(spec.Name)
	e.logger.Debug("building command", "command", spec.Name, "src", srcPath, "out", out)
	if err := e.toolchain.Build(ctx, srcPath, out); err != nil {
		e.logger.Debug("command build failed", "command", spec.Name, "err", err)
	}
}
