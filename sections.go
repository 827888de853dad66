package main

import (
	"strings"

	"golang.org/x/exp/slices"
)

// mainSection names the unnamed buffer everything lands in by default.
const mainSection = "main"

// sectionStore accumulates emitted text. Exactly one buffer is current at a
// time; buffers only grow, except that splicing the main buffer drains it.
type sectionStore struct {
	main    strings.Builder
	named   map[string]*strings.Builder
	current string
}

func newSectionStore() *sectionStore {
	return &sectionStore{named: make(map[string]*strings.Builder)}
}

// selectSection makes name the current buffer. An empty name or "main"
// selects the main buffer.
func (s *sectionStore) selectSection(name string) {
	if name == mainSection {
		name = ""
	}
	s.current = name
}

func (s *sectionStore) reset() {
	s.current = ""
}

func (s *sectionStore) write(text string) {
	s.writeTo(s.current, text)
}

// writeTo appends to the named buffer regardless of the current selection.
func (s *sectionStore) writeTo(name, text string) {
	if text == "" {
		return
	}
	if name == "" || name == mainSection {
		s.main.WriteString(text)
		return
	}
	buf, ok := s.named[name]
	if !ok {
		buf = &strings.Builder{}
		s.named[name] = buf
	}
	buf.WriteString(text)
}

// lookup returns the contents of the named buffer and whether it exists.
// The main buffer always exists.
func (s *sectionStore) lookup(name string) (string, bool) {
	if name == "" || name == mainSection {
		return s.main.String(), true
	}
	buf, ok := s.named[name]
	if !ok {
		return "", false
	}
	return buf.String(), true
}

// takeMain returns the main buffer and clears it.
func (s *sectionStore) takeMain() string {
	text := s.main.String()
	s.main.Reset()
	return text
}

func (s *sectionStore) names() []string {
	names := make([]string, 0, len(s.named))
	for name := range s.named {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
