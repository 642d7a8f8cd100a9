// Package conformance runs bytecode conformance suites written in YAML. Each test
// case carries assembler source, the procedure to enter and the expected outcome:
// final stack, variable contents, UI output or a runtime error type.
package conformance

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultDir is where the bundled suites live, relative to this package.
const DefaultDir = "testdata"

// LoadedTest represents a test with its source file path
type LoadedTest struct {
	File  string
	Suite *TestSuite
	Test  TestCase
}

// LoadDir walks dir and loads every .yaml or .yml suite below it. Files are
// visited in lexical order.
func LoadDir(dir string) ([]LoadedTest, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if !d.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no conformance suites found in %s", dir)
	}
	sort.Strings(files)

	var loaded []LoadedTest
	for _, path := range files {
		tests, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		for i := range tests {
			tests[i].File = filepath.ToSlash(rel)
		}
		loaded = append(loaded, tests...)
	}
	return loaded, nil
}

// LoadFile parses a single suite and returns its test cases.
func LoadFile(path string) ([]LoadedTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	suite, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	tests := make([]LoadedTest, 0, len(suite.Tests))
	for _, tc := range suite.Tests {
		tests = append(tests, LoadedTest{File: path, Suite: suite, Test: tc})
	}
	return tests, nil
}

// Parse decodes one suite. Unknown fields are rejected so that typos in
// expectations do not silently pass.
func Parse(data []byte) (*TestSuite, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var suite TestSuite
	if err := dec.Decode(&suite); err != nil {
		return nil, fmt.Errorf("decoding suite: %w", err)
	}
	if suite.Name == "" {
		return nil, fmt.Errorf("suite has no name")
	}
	seen := make(map[string]bool)
	for i, tc := range suite.Tests {
		if tc.Name == "" {
			return nil, fmt.Errorf("test %d of suite %s has no name", i, suite.Name)
		}
		if seen[tc.Name] {
			return nil, fmt.Errorf("duplicate test %q in suite %s", tc.Name, suite.Name)
		}
		seen[tc.Name] = true
	}
	return &suite, nil
}
