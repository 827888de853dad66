//go:build !(darwin || freebsd || linux)

package main

import (
	"fmt"
	"runtime"
)

type unsupportedLoader struct{}

func defaultLoader() moduleLoader { return unsupportedLoader{} }

func (unsupportedLoader) Open(path string) (loadedModule, error) {
	return nil, fmt.Errorf("loading %s: plugins are not supported on %s", path, runtime.GOOS)
}
