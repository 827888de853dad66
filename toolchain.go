package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"text/template"

	"mvdan.cc/sh/v3/shell"
)

// defaultCompiler builds one plugin source into a shared library. $SRC and
// $OUT are expanded per build; other variables come from the environment.
const defaultCompiler = `c++ -shared -fPIC -o "$OUT" "$SRC"`

var pluginSource = template.Must(template.New("plugin").Parse(`#include <string>
#include <vector>
{{- if .Includes}}
{{.Includes}}
{{- end}}

static std::string docgen_{{.Name}}(const std::string &code, const std::vector<std::string> &args)
{{.Body}}

extern "C" const char *{{.Name}}(const char *code, const char *packed)
{
    static std::string result;
    std::vector<std::string> args;
    std::string all(packed ? packed : "");
    if (!all.empty()) {
        std::string::size_type start = 0;
        for (;;) {
            std::string::size_type sep = all.find('\x1f', start);
            if (sep == std::string::npos) {
                args.push_back(all.substr(start));
                break;
            }
            args.push_back(all.substr(start, sep - start));
            start = sep + 1;
        }
    }
    result = docgen_{{.Name}}(std::string(code ? code : ""), args);
    return result.c_str();
}
`))

type pluginSpec struct {
	Name     string
	Includes string
	Body     string
}

// renderPluginSource produces the C++ translation unit for a NEW_COMMAND.
// The user body is the definition of a function taking the code after the
// comment and the argument list; the wrapper exports it under the command
// name with C linkage.
func renderPluginSource(spec pluginSpec) ([]byte, error) {
	body := strip(spec.Body)
	if !strings.HasPrefix(body, "{") {
		body = "{\n" + unwrap(body) + "\n}"
	}
	spec.Body = body
	spec.Includes = strip(unwrap(spec.Includes))
	var buf bytes.Buffer
	if err := pluginSource.Execute(&buf, spec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toolchain turns plugin sources into loadable artifacts.
type toolchain interface {
	Build(ctx context.Context, src, out string) error
}

// shellToolchain runs a compiler command line. The line is split with POSIX
// shell quoting rules and never passed to a shell.
type shellToolchain struct {
	command string
	stdout  io.Writer
	stderr  io.Writer
}

// compilerArgv expands the configured command for one build.
func compilerArgv(command, src, out string) ([]string, error) {
	if strip(command) == "" {
		command = defaultCompiler
	}
	argv, err := shell.Fields(command, func(name string) string {
		switch name {
		case "SRC":
			return src
		case "OUT":
			return out
		default:
			return os.Getenv(name)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parse compiler command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("compiler command %q is empty", command)
	}
	return argv, nil
}

func (t shellToolchain) Build(ctx context.Context, src, out string) error {
	argv, err := compilerArgv(t.command, src, out)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = t.stdout
	cmd.Stderr = t.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(argv, " "), err)
	}
	return nil
}
