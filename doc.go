// # docgen
//
// `docgen` extracts documentation written in source-code comments and
// assembles it into a single document. It never parses the host language:
// everything works on raw text around comments, so it suits C and C++ code
// (and anything else using `//` and `/* */` comments) equally well. The output
// is plain text that usually happens to be Markdown.
//
// ## Usage
//
//	docgen [flags] [project-dir]
//
// The project directory (default `.`) must contain a `.docgen` control file.
// The result is written to `docs/index.md` unless `-o`/`--out-file` say
// otherwise. Without a control file docgen prints a notice and exits.
//
// ## Comment commands
//
// Inside a comment, text between `@DOC` and `@END` is copied to the output and
// commands are expanded. A command is `@NAME` or `@NAME(arg, ...)`, with the
// paren directly after the name; write `@NAME\(` to keep a literal paren.
//
//   - `@NEXT_LINE`: the rest of the line after the comment.
//   - `@NEXT_DECL`: the next declaration, up to `;`, `=` or `{`.
//   - `@FUNC_NAME`, `@FUNC_RET`, `@FUNC_ARGS`, `@FUNC_ARG(i)`: parts of the
//     next function signature (`i` may be negative to count from the end).
//   - `@CLASS_NAME`: the name in `class X {`, `class X : Y` or `class X;`.
//   - `@NEXT_MACRO`: the next `#define` with its parameters.
//   - `@FILE_NAME`: the current file name.
//   - `@SECTION(name)`: write the rest of the comment into a named section;
//     `@SECTION` goes back to the main document.
//   - `@SIMPLIFY(CMD, args...)`, `@S(...)` or the `S_` prefix (`@S_NEXT_DECL`):
//     collapse the whitespace of a command's output.
//
// Any other name is looked up as an alias, then as a compiled command.
//
// ## Control file
//
// Lines of the control file are copied to the output, except meta commands:
//
//	@@PROCESS_SOURCES(src/**/*.cpp, include/*.h)@@
//	@@INSERT_SECTION(api)@@
//	@@NEW_ALIAS(BRIEF, {**@FUNC_NAME**(@FUNC_ARGS)})@@
//	@@NEW_COMMAND(UPPER, {
//	    std::string out = code.substr(0, code.find('('));
//	    for (auto &c : out) c = toupper(c);
//	    return out;
//	})
//	@@
//
// A meta command whose closing `@@` is not on the same line continues until a
// line starting with `@@`. Whatever was written to the main document and not
// placed with `@@INSERT_SECTION(main)@@` is appended at the end.
//
// ## Compiled commands
//
// `NEW_COMMAND` writes a C++ source file to `docs/commands/NAME.cpp` and builds
// it with the configured compiler (default `c++ -shared -fPIC -o "$OUT" "$SRC"`).
// The body receives `code` (the text after the comment) and `args`. The
// resulting shared library exports
//
//	extern "C" const char *NAME(const char *code, const char *args);
//
// where `args` joins the arguments with the 0x1F byte. Any shared library
// exporting that symbol works, whatever language it was written in. It is
// loaded for each call and unloaded right after.
//
// ## Diagnostics
//
// Problems such as unknown commands, missing sections or bad `@FUNC_ARG`
// indexes never stop a run. They are listed at the end; pass `--strict` to turn
// them into a failing exit code once the document has been written.
//
// ## Configuration
//
// `.docgen.toml` in the project directory (or `--config FILE`) may set
// `control_file`, `output_dir`, `output_file`, `commands_dir`, `compiler`,
// `log_level`, `max_alias_depth` and `strict`. Each key can also come from a
// `DOCGEN_<KEY>` environment variable. `docgen config` prints the result.
//
// ## Other commands
//
//	docgen preview [project-dir]   # render the generated document in the terminal
//	docgen scan FILE               # list the comments docgen sees in FILE
//	docgen completion bash         # shell completion (bash, zsh, fish, powershell)
//	docgen gen-docs ./docs/cli     # Markdown reference for the CLI itself
package main
