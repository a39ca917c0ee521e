/*
 * rhdl - RV32IMA reference core
 *
 * Copyright 2026, rhdl contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package sysconfig loads the line-oriented system description file
// cmd/rhdlsim reads before constructing a harness.Harness.
//
// File format:
//
//	'#' starts a comment, rest of line ignored.
//	<line> := <key> '=' <value>
//	<key>  := 'ram' | 'program' | 'programaddr' | 'disk' | 'loglevel'
//	<value> := <number>['K'|'M'] | <hexnumber> | <string>
//
// Grounded on the teacher's config/configparser line-scanning style
// (bufio.Scanner, '#' comments, size suffixes), simplified to a flat
// key/value grammar since this system has a handful of scalar settings
// rather than a device-attachment list.
package sysconfig

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config describes one harness.Config plus the CLI-level extras
// (program image path, log level) that config/sysconfig alone knows how
// to parse.
type Config struct {
	RAMSize     uint32
	ProgramPath string
	ProgramAddr uint32
	DiskPath    string
	LogLevel    string // one of "debug", "info", "warn", "error"
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{RAMSize: 16 * 1024 * 1024, LogLevel: "info"}
}

// Load reads and parses the system description file at path.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("sysconfig: opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return cfg, fmt.Errorf("sysconfig: %s:%d: expected key = value", path, lineNum)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if err := cfg.apply(key, value); err != nil {
			return cfg, fmt.Errorf("sysconfig: %s:%d: %w", path, lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("sysconfig: reading %s: %w", path, err)
	}
	return cfg, nil
}

func (cfg *Config) apply(key, value string) error {
	switch key {
	case "ram":
		n, err := parseSize(value)
		if err != nil {
			return fmt.Errorf("ram: %w", err)
		}
		cfg.RAMSize = n
	case "program":
		cfg.ProgramPath = value
	case "programaddr":
		n, err := parseSize(value)
		if err != nil {
			return fmt.Errorf("programaddr: %w", err)
		}
		cfg.ProgramAddr = n
	case "disk":
		cfg.DiskPath = value
	case "loglevel":
		cfg.LogLevel = strings.ToLower(value)
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

// parseSize accepts plain decimal, 0x-prefixed hex, and a trailing K or M
// multiplier (mirrors the teacher's "<number><K|M>" address syntax).
func parseSize(s string) (uint32, error) {
	mult := uint64(1)
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'K', 'k':
			mult = 1024
			s = s[:n-1]
		case 'M', 'm':
			mult = 1024 * 1024
			s = s[:n-1]
		}
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return uint32(v * mult), nil
}
