package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// argSeparator joins command arguments into the single C string handed to a
// plugin entry point. An empty string means no arguments.
const argSeparator = "\x1f"

var errPluginNotFound = errors.New("plugin artifact not found")

// entryPoint is a resolved plugin export.
type entryPoint func(source string, args []string) string

// moduleLoader opens plugin artifacts. The default implementation is backed
// by dlopen; tests substitute their own.
type moduleLoader interface {
	Open(path string) (loadedModule, error)
}

// loadedModule is an open artifact. Close must be called exactly once.
type loadedModule interface {
	Lookup(symbol string) (entryPoint, error)
	Close() error
}

// pluginBridge resolves commands that are neither built-ins nor aliases
// against artifacts compiled into dir.
type pluginBridge struct {
	dir    string
	loader moduleLoader
}

func newPluginBridge(dir string, loader moduleLoader) *pluginBridge {
	if loader == nil {
		loader = defaultLoader()
	}
	return &pluginBridge{dir: dir, loader: loader}
}

// pluginExt is the shared library suffix for the running platform.
func pluginExt() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}

func (b *pluginBridge) artifactPath(name string) string {
	return filepath.Join(b.dir, name+pluginExt())
}

// invoke loads the artifact for name, calls its export once and releases the
// handle again. errPluginNotFound reports that no artifact exists.
func (b *pluginBridge) invoke(name, source string, args []string) (result string, err error) {
	if b == nil || b.dir == "" {
		return "", errPluginNotFound
	}
	path := b.artifactPath(name)
	if _, statErr := os.Stat(path); statErr != nil {
		return "", errPluginNotFound
	}
	mod, err := b.loader.Open(path)
	if err != nil {
		return "", fmt.Errorf("could not load %s: %w", path, err)
	}
	defer func() {
		if closeErr := mod.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("could not unload %s: %w", path, closeErr)
		}
	}()
	fn, err := mod.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("could not find function %s: %w", name, err)
	}
	return fn(source, args), nil
}

func packArgs(args []string) string {
	return strings.Join(args, argSeparator)
}
