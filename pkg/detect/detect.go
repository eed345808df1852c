// Package detect resolves a source file on disk to the language module
// that should analyze it, generalizing the teacher's extension switch
// (pkg/parser/service.go's DetectLanguage) into a data-driven table
// loaded from modules/detection.txt, with a magic-substring fallback for
// extensionless files (spec §6).
package detect

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Descriptor is one modules/detection.txt entry: a module name, the set
// of file extensions (without the leading dot, lowercased) that select
// it, and an optional magic substring checked against a file's opening
// bytes when extension matching is inconclusive.
type Descriptor struct {
	Module     string
	Extensions []string
	Magic      string
}

// Table is an ordered list of descriptors, checked in file order so an
// earlier line wins ties.
type Table []Descriptor

// Load parses a modules/detection.txt file. Each non-blank, non-comment
// line has the form "module:ext1,ext2;MAGIC_SUBSTRING", where the
// ";MAGIC_SUBSTRING" suffix is optional.
func Load(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("detect: opening %q: %w", path, err)
	}
	defer f.Close()

	var table Table
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		desc, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("detect: %s:%d: %w", path, lineNo, err)
		}
		table = append(table, desc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("detect: reading %q: %w", path, err)
	}
	return table, nil
}

func parseLine(line string) (Descriptor, error) {
	module, rest, ok := strings.Cut(line, ":")
	if !ok || module == "" {
		return Descriptor{}, fmt.Errorf("missing ':' in %q", line)
	}
	extPart, magic, _ := strings.Cut(rest, ";")
	if extPart == "" {
		return Descriptor{}, fmt.Errorf("no extensions in %q", line)
	}
	var exts []string
	for _, e := range strings.Split(extPart, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		e = strings.TrimPrefix(e, ".")
		if e != "" {
			exts = append(exts, e)
		}
	}
	return Descriptor{Module: module, Extensions: exts, Magic: magic}, nil
}

// maxSniffLen bounds how much of the file is read for a magic-substring
// check, mirroring net/http.DetectContentType's fixed-size sniff window.
const maxSniffLen = 512

// Detect resolves path to a module name. Extension match is tried first
// against every descriptor; on no match, each descriptor with a non-empty
// Magic is checked against the file's leading bytes. fallback is returned
// verbatim when nothing matches.
func (t Table) Detect(path, fallback string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, d := range t {
		for _, e := range d.Extensions {
			if e == ext {
				return d.Module
			}
		}
	}

	var needsSniff bool
	for _, d := range t {
		if d.Magic != "" {
			needsSniff = true
			break
		}
	}
	if !needsSniff {
		return fallback
	}

	head, err := sniff(path)
	if err != nil {
		return fallback
	}
	for _, d := range t {
		if d.Magic != "" && bytes.Contains(head, []byte(d.Magic)) {
			return d.Module
		}
	}
	return fallback
}

func sniff(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, maxSniffLen)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return nil, err
	}
	return buf[:n], nil
}
