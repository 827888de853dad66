package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/exp/slices"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// recordingToolchain remembers every build and creates the artifact unless
// err is set.
type recordingToolchain struct {
	builds [][2]string
	err    error
}

func (r *recordingToolchain) Build(_ context.Context, src, out string) error {
	r.builds = append(r.builds, [2]string{src, out})
	if r.err != nil {
		return r.err
	}
	return os.WriteFile(out, nil, 0o644)
}

func newProjectEngine(t *testing.T, files map[string]string) (*engine, *fakeLoader, *recordingToolchain) {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, files)
	loader := &fakeLoader{funcs: map[string]entryPoint{}}
	tc := &recordingToolchain{}
	e := newEngine(newPluginBridge(filepath.Join(root, "docs", "commands"), loader), tc, nil)
	e.root = root
	return e, loader, tc
}

func TestGenerateEndToEnd(t *testing.T) {
	e, _, _ := newProjectEngine(t, map[string]string{
		"src/a.cpp": "/* @DOC\n@FUNC_NAME takes @FUNC_ARGS\n@END */\nint add(int a);\n",
	})
	got := e.generate(context.Background(), ".docgen", "# API\n@@PROCESS_SOURCES(src/*.cpp)@@\n")
	if got != "# API\n\nadd takes int a" {
		t.Fatalf("output = %q", got)
	}
	if len(e.diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", e.diagnostics)
	}
}

func TestGenerateInsertQuotedMain(t *testing.T) {
	e, _, _ := newProjectEngine(t, map[string]string{
		"src/a.cpp": "/* @DOC\n@FUNC_NAME takes @FUNC_ARG(0)\n@END */\nint add(int a);\n",
	})
	control := "# API\n@@PROCESS_SOURCES(src/*.cpp)@@\n@@INSERT_SECTION(\"main\")@@\n"
	got := e.generate(context.Background(), ".docgen", control)
	if got != "# API\n\nadd takes int a" {
		t.Fatalf("output = %q", got)
	}
	if len(e.diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", e.diagnostics)
	}
}

func TestGenerateSections(t *testing.T) {
	e, _, _ := newProjectEngine(t, map[string]string{
		"src/a.cpp": "/* @DOC @SECTION(api)\n- @FUNC_NAME\n@END */\nint add(int a);\n/* @DOC intro @END */\n",
	})
	control := "# Doc\n@@PROCESS_SOURCES(src/*.cpp)@@\n## API\n@@INSERT_SECTION(api)@@\nfooter\n"
	got := e.generate(context.Background(), ".docgen", control)
	if want := "# Doc\n## API\n\n- add\n\nfooter\n  intro"; got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestInsertMissingSection(t *testing.T) {
	e, _, _ := newProjectEngine(t, nil)
	got := e.generate(context.Background(), ".docgen", "a\n@@INSERT_SECTION(nope)@@\nb\n")
	if got != "a\nb" {
		t.Fatalf("output = %q", got)
	}
	if len(e.diagnostics) != 1 {
		t.Fatalf("diagnostics = %v", e.diagnostics)
	}
	d := e.diagnostics[0]
	if d.kind != diagUnresolved || d.origin != ".docgen:2" {
		t.Fatalf("diagnostic = %+v", d)
	}
	assertContains(t, d.String(), `section "nope" not found`)
}

func TestInsertMainDrainsIt(t *testing.T) {
	e, _, _ := newProjectEngine(t, map[string]string{
		"src/a.cpp": "/* @DOC body @END */",
	})
	control := "@@PROCESS_SOURCES(src/*.cpp)@@\nbefore\n@@INSERT_SECTION(main)@@\nafter\n"
	got := e.generate(context.Background(), ".docgen", control)
	if got != "before\n body \n\nafter" {
		t.Fatalf("output = %q", got)
	}
	if n := strings.Count(got, "body"); n != 1 {
		t.Fatalf("main buffer inserted %d times", n)
	}
}

func TestGenerateAppendsMain(t *testing.T) {
	e, _, _ := newProjectEngine(t, map[string]string{
		"src/a.cpp": "/* @DOC\ntail\n@END */",
	})
	got := e.generate(context.Background(), ".docgen", "head\n@@PROCESS_SOURCES(src/a.cpp)@@\n")
	if got != "head\n\ntail" {
		t.Fatalf("output = %q", got)
	}
}

func TestGenerateCollapsesBlankLines(t *testing.T) {
	e := newTestEngine()
	if got := e.generate(context.Background(), ".docgen", "\n\na\n\n\n\nb\n\n\n"); got != "a\n\nb" {
		t.Fatalf("output = %q", got)
	}
}

func TestNewAlias(t *testing.T) {
	e, _, _ := newProjectEngine(t, map[string]string{
		"src/a.cpp": "/* @DOC @BRIEF @END */\nint add(int a);\n",
	})
	control := "@@NEW_ALIAS(BRIEF, {**@FUNC_NAME**})@@\n@@PROCESS_SOURCES(src/*.cpp)@@\n"
	if got := e.generate(context.Background(), ".docgen", control); got != "**add**" {
		t.Fatalf("output = %q", got)
	}
}

func TestNewAliasRedefinition(t *testing.T) {
	e := newTestEngine()
	e.generate(context.Background(), ".docgen", "@@NEW_ALIAS(X, {one})@@\n@@NEW_ALIAS(X, {two})@@\n")
	if got := e.aliases["X"]; got != "two" {
		t.Fatalf("alias X = %q", got)
	}
}

func TestNewAliasErrors(t *testing.T) {
	tests := []struct {
		control string
		want    string
	}{
		{control: "@@NEW_ALIAS(ONE)@@", want: "NEW_ALIAS: requires 2 arguments, got 1"},
		{control: "@@NEW_ALIAS(lower, {x})@@", want: `alias name "lower" must start with an uppercase letter`},
	}
	for _, tt := range tests {
		e := newTestEngine()
		e.generate(context.Background(), ".docgen", tt.control)
		if len(e.diagnostics) != 1 || e.diagnostics[0].kind != diagArgument {
			t.Fatalf("%s: diagnostics = %v", tt.control, e.diagnostics)
		}
		assertContains(t, e.diagnostics[0].String(), tt.want)
		if len(e.aliases) != 0 {
			t.Fatalf("%s: alias registered anyway", tt.control)
		}
	}
}

func TestMultiLineMetaCommand(t *testing.T) {
	e := newTestEngine()
	control := "before\n@@NEW_ALIAS(BRIEF, {\n**@FUNC_NAME**\n})\n@@\nafter\n"
	got := e.generate(context.Background(), ".docgen", control)
	if got != "before\nafter" {
		t.Fatalf("output = %q", got)
	}
	if tmpl := e.aliases["BRIEF"]; tmpl != "**@FUNC_NAME**\n" {
		t.Fatalf("alias BRIEF = %q", tmpl)
	}
}

func TestUnknownMetaCommand(t *testing.T) {
	e := newTestEngine()
	got := e.generate(context.Background(), "ctl", "x\n@@FROB(1)@@\n")
	if got != "x" {
		t.Fatalf("output = %q", got)
	}
	if len(e.diagnostics) != 1 || e.diagnostics[0].String() != "ctl:2: FROB: unknown meta command" {
		t.Fatalf("diagnostics = %v", e.diagnostics)
	}
}

func TestProcessSourcesNoMatch(t *testing.T) {
	e, _, _ := newProjectEngine(t, nil)
	e.generate(context.Background(), ".docgen", "@@PROCESS_SOURCES(src/*.rs)@@")
	if len(e.diagnostics) != 1 || e.diagnostics[0].kind != diagInput {
		t.Fatalf("diagnostics = %v", e.diagnostics)
	}
	assertContains(t, e.diagnostics[0].message, "no sources found for src/*.rs")
}

func TestProcessSourcesPatterns(t *testing.T) {
	e, _, _ := newProjectEngine(t, map[string]string{
		"src/a.cpp":       "/* @DOC [@FILE_NAME] @END */",
		"src/inc/b.h":     "/* @DOC [@FILE_NAME] @END */",
		"src/inc/c.h/x.h": "/* @DOC [nested] @END */",
	})
	control := `@@PROCESS_SOURCES(src/*.cpp, src/a.cpp, "src/**/*.h")@@`
	got := e.generate(context.Background(), ".docgen", control)
	if strings.Count(got, "[a.cpp]") != 1 {
		t.Fatalf("a.cpp should be processed once: %q", got)
	}
	assertContains(t, got, "[b.h]")
	assertContains(t, got, "[nested]")
	if strings.Index(got, "[a.cpp]") > strings.Index(got, "[b.h]") {
		t.Fatalf("sources out of order: %q", got)
	}
	if len(e.diagnostics) != 0 {
		t.Fatalf("directories must be skipped silently: %v", e.diagnostics)
	}
}

func TestMatchSourcesRelativeToRoot(t *testing.T) {
	e, _, _ := newProjectEngine(t, map[string]string{
		"lib/one.cpp": "",
		"lib/two.cpp": "",
	})
	paths := e.matchSources("test", []string{"lib/*.cpp"})
	var names []string
	for _, p := range paths {
		names = append(names, e.displayPath(p))
	}
	slices.Sort(names)
	if !slices.Equal(names, []string{"lib/one.cpp", "lib/two.cpp"}) {
		t.Fatalf("matched %q", names)
	}
}

func TestProcessSourcesRootWithGlobMeta(t *testing.T) {
	root := filepath.Join(t.TempDir(), "proj[1]")
	writeFiles(t, root, map[string]string{
		"src/a.cpp": "/* @DOC [@FILE_NAME] @END */",
	})
	e := newEngine(newPluginBridge(filepath.Join(root, "docs", "commands"), &fakeLoader{}), nil, nil)
	e.root = root
	got := e.generate(context.Background(), ".docgen", "@@PROCESS_SOURCES(src/*.cpp, ./src/a.cpp)@@\n")
	if got != "[a.cpp]" {
		t.Fatalf("output = %q diagnostics = %v", got, e.diagnostics)
	}

	other := t.TempDir()
	writeFiles(t, other, map[string]string{"b.cpp": ""})
	abs := e.matchSources("test", []string{filepath.Join(other, "*.cpp")})
	if !slices.Equal(abs, []string{filepath.Join(other, "b.cpp")}) {
		t.Fatalf("absolute pattern matched %q", abs)
	}
}

func TestNewCommandBuildsAndRuns(t *testing.T) {
	e, loader, tc := newProjectEngine(t, map[string]string{
		"src/a.cpp": "/* @DOC @UPPER(x) @END */\nint add(int a);\n",
	})
	loader.funcs["UPPER"] = func(source string, args []string) string {
		return strings.ToUpper(strip(source)) + " " + strings.Join(args, ",")
	}
	control := "@@NEW_COMMAND(UPPER, {\n    return code;\n})\n@@\n@@PROCESS_SOURCES(src/*.cpp)@@\n"
	got := e.generate(context.Background(), ".docgen", control)
	if got != "INT ADD(INT A); x" {
		t.Fatalf("output = %q", got)
	}
	if len(tc.builds) != 1 {
		t.Fatalf("builds = %v", tc.builds)
	}
	srcPath := filepath.Join(e.plugins.dir, "UPPER.cpp")
	if tc.builds[0] != [2]string{srcPath, e.plugins.artifactPath("UPPER")} {
		t.Fatalf("build = %v", tc.builds[0])
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	assertContains(t, string(data), `extern "C" const char *UPPER(const char *code, const char *packed)`)
	assertContains(t, string(data), "return code;")
}

func TestNewCommandWithIncludes(t *testing.T) {
	e, _, _ := newProjectEngine(t, nil)
	control := "@@NEW_COMMAND(SORTED, {#include <algorithm>}, std::string s = code; std::sort(s.begin(), s.end()); return s;)@@"
	e.generate(context.Background(), ".docgen", control)
	data, err := os.ReadFile(filepath.Join(e.plugins.dir, "SORTED.cpp"))
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	src := string(data)
	assertContains(t, src, "#include <algorithm>\n")
	assertContains(t, src, "{\nstd::string s = code; std::sort(s.begin(), s.end()); return s;\n}")
}

func TestNewCommandBuildFailure(t *testing.T) {
	e, _, tc := newProjectEngine(t, map[string]string{
		"src/a.cpp": "/* @DOC @BROKEN @END */",
	})
	tc.err = errors.New("exit status 1")
	e.generate(context.Background(), ".docgen", "@@NEW_COMMAND(BROKEN, {return \"\";})@@\n@@PROCESS_SOURCES(src/*.cpp)@@")
	if len(e.diagnostics) != 1 {
		t.Fatalf("diagnostics = %v", e.diagnostics)
	}
	d := e.diagnostics[0]
	if d.kind != diagUnresolved || d.command != "BROKEN" || d.origin != "src/a.cpp" {
		t.Fatalf("build failure should surface as an unresolved command, got %+v", d)
	}
}

func TestNewCommandErrors(t *testing.T) {
	tests := []struct {
		control string
		want    string
	}{
		{control: "@@NEW_COMMAND(ONLY)@@", want: "requires 2 or 3 arguments, got 1"},
		{control: "@@NEW_COMMAND(lower, {return code;})@@", want: `command name "lower" must start with an uppercase letter`},
	}
	for _, tt := range tests {
		e, _, tc := newProjectEngine(t, nil)
		e.generate(context.Background(), ".docgen", tt.control)
		if len(e.diagnostics) != 1 || e.diagnostics[0].kind != diagArgument {
			t.Fatalf("%s: diagnostics = %v", tt.control, e.diagnostics)
		}
		assertContains(t, e.diagnostics[0].message, tt.want)
		if len(tc.builds) != 0 {
			t.Fatalf("%s: nothing should be built", tt.control)
		}
	}
}

func TestParseInvocation(t *testing.T) {
	tests := []struct {
		in   string
		name string
		args []string
	}{
		{in: "PROCESS_SOURCES(a, b)", name: "PROCESS_SOURCES", args: []string{"a", "b"}},
		{in: " INSERT_SECTION (api) ", name: "INSERT_SECTION", args: []string{"api"}},
		{in: "BARE", name: "BARE"},
	}
	for _, tt := range tests {
		name, args := parseInvocation(tt.in)
		if name != tt.name || !slices.Equal(args, tt.args) {
			t.Errorf("parseInvocation(%q) = %q, %q", tt.in, name, args)
		}
	}
}
