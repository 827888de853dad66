//go:build darwin || freebsd || linux

package main

import "github.com/ebitengine/purego"

type dlLoader struct{}

func defaultLoader() moduleLoader { return dlLoader{} }

func (dlLoader) Open(path string) (loadedModule, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, err
	}
	return &dlModule{handle: handle}, nil
}

type dlModule struct {
	handle uintptr
}

// Lookup binds the C export `const char *name(const char *, const char *)`.
// purego copies the returned C string into Go memory.
func (m *dlModule) Lookup(symbol string) (entryPoint, error) {
	sym, err := purego.Dlsym(m.handle, symbol)
	if err != nil {
		return nil, err
	}
	var call func(source, args string) string
	purego.RegisterFunc(&call, sym)
	return func(source string, args []string) string {
		return call(source, packArgs(args))
	}, nil
}

func (m *dlModule) Close() error {
	return purego.Dlclose(m.handle)
}
