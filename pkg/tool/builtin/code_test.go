package builtin

import (
	"reflect"
	"strings"
	"testing"
)

func TestGrepWithWalk(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.go", "package a\n// TODO fix this\nfunc A() {}\n")
	writeFixture(t, dir, "sub/b.txt", "nothing here\ntodo lowercase\n")

	result, err := grepWithWalk("TODO", dir, "", 100, false)
	if err != nil {
		t.Fatalf("grepWithWalk: %v", err)
	}
	matches := result["matches"].([]map[string]any)
	if len(matches) != 2 {
		t.Fatalf("case-insensitive search should hit both files: %#v", matches)
	}
	if result["used_ripgrep"] != false {
		t.Fatalf("used_ripgrep: %v", result["used_ripgrep"])
	}

	sensitive, _ := grepWithWalk("TODO", dir, "", 100, true)
	if len(sensitive["matches"].([]map[string]any)) != 1 {
		t.Fatalf("case-sensitive search should hit one file")
	}
}

func TestGrepWithWalkGlobFilter(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.go", "match\n")
	writeFixture(t, dir, "b.txt", "match\n")

	result, err := grepWithWalk("match", dir, "*.go", 100, false)
	if err != nil {
		t.Fatalf("grepWithWalk: %v", err)
	}
	matches := result["matches"].([]map[string]any)
	if len(matches) != 1 || !strings.HasSuffix(matches[0]["path"].(string), "a.go") {
		t.Fatalf("glob filter: %#v", matches)
	}
}

func TestGrepWithWalkInvalidPatternFallsBackToLiteral(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.txt", "price is (?broken\nother line\n")

	result, err := grepWithWalk("(?broken", dir, "", 100, false)
	if err != nil {
		t.Fatalf("invalid pattern must degrade, not fail: %v", err)
	}
	matches := result["matches"].([]map[string]any)
	if len(matches) != 1 || matches[0]["line"] != 1 {
		t.Fatalf("literal fallback: %#v", matches)
	}
}

func TestGrepWithWalkMaxResults(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "many.txt", strings.Repeat("hit\n", 20))

	result, err := grepWithWalk("hit", dir, "", 3, false)
	if err != nil {
		t.Fatalf("grepWithWalk: %v", err)
	}
	if len(result["matches"].([]map[string]any)) != 3 {
		t.Fatalf("max_results not honored: %#v", result["matches"])
	}
}

func TestTreeRendering(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "zfile.txt", "")
	writeFixture(t, dir, "adir/inner.txt", "")

	result, err := Tree(map[string]any{"path": "."}, dir)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	rendered := result["tree"].(string)
	lines := strings.Split(rendered, "\n")
	if len(lines) != 4 {
		t.Fatalf("unexpected tree:\n%s", rendered)
	}
	// Directories sort before files.
	if !strings.Contains(lines[1], "|-- adir") {
		t.Fatalf("line 1: %q", lines[1])
	}
	if !strings.Contains(lines[2], "|   `-- inner.txt") {
		t.Fatalf("line 2: %q", lines[2])
	}
	if !strings.Contains(lines[3], "`-- zfile.txt") {
		t.Fatalf("line 3: %q", lines[3])
	}
}

func TestTreeDepthLimit(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a/b/c/deep.txt", "")

	result, err := Tree(map[string]any{"path": ".", "max_depth": 2}, dir)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	rendered := result["tree"].(string)
	if !strings.Contains(rendered, "b") {
		t.Fatalf("depth 2 entry missing:\n%s", rendered)
	}
	if strings.Contains(rendered, "deep.txt") {
		t.Fatalf("entries past max_depth leaked:\n%s", rendered)
	}
}

func TestTreeMissingPath(t *testing.T) {
	if _, err := Tree(map[string]any{"path": "ghost"}, t.TempDir()); err == nil {
		t.Fatal("missing path must fail")
	}
}

func TestReadImportsPython(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "m.py", strings.Join([]string{
		"import os",
		"import sys, json",
		"from pathlib import Path",
		"from collections.abc import Mapping",
		"    import textwrap",
		"x = 'import fake'",
	}, "\n"))

	result, err := ReadImports(map[string]any{"path": "m.py"}, dir)
	if err != nil {
		t.Fatalf("ReadImports: %v", err)
	}
	want := []string{"collections.abc", "json", "os", "pathlib", "sys", "textwrap"}
	if !reflect.DeepEqual(result["imports"], want) {
		t.Fatalf("got %v want %v", result["imports"], want)
	}
}

func TestReadImportsJavaScript(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "m.ts", strings.Join([]string{
		`import fs from "fs"`,
		`import { join } from 'path'`,
		`import 'side-effect'`,
		`const http = require('http')`,
	}, "\n"))

	result, err := ReadImports(map[string]any{"path": "m.ts"}, dir)
	if err != nil {
		t.Fatalf("ReadImports: %v", err)
	}
	want := []string{"fs", "http", "path", "side-effect"}
	if !reflect.DeepEqual(result["imports"], want) {
		t.Fatalf("got %v want %v", result["imports"], want)
	}
}

func TestReadImportsUnsupported(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "m.rb", "require 'json'\n")

	_, err := ReadImports(map[string]any{"path": "m.rb"}, dir)
	if err == nil || !strings.Contains(err.Error(), "Unsupported file type") {
		t.Fatalf("expected unsupported-type error, got %v", err)
	}
}
