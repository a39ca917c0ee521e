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

package main

import (
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/hdlgo/rhdl/config/sysconfig"
	"github.com/hdlgo/rhdl/harness"
	"github.com/hdlgo/rhdl/monitor"
	"github.com/hdlgo/rhdl/util/logger"
)

var Logger *slog.Logger

func main() {
	optConfig := getopt.StringLong("config", 'c', "rhdl.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optCycles := getopt.IntLong("cycles", 'n', 0, "Run headless for this many cycles, then exit (0 = drop into the monitor)")
	optHelp := getopt.BoolLong("help", 'h', false, "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file *os.File
	if *optLogFile != "" {
		var err error
		file, err = os.Create(*optLogFile)
		if err != nil {
			os.Stderr.WriteString("rhdlsim: creating log file: " + err.Error() + "\n")
			os.Exit(1)
		}
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelInfo)
	logDebug := false
	Logger = slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, &logDebug))
	slog.SetDefault(Logger)

	Logger.Info("rhdlsim started")

	cfg := sysconfig.Default()
	if _, err := os.Stat(*optConfig); err == nil {
		cfg, err = sysconfig.Load(*optConfig)
		if err != nil {
			Logger.Error(err.Error())
			os.Exit(1)
		}
	} else {
		Logger.Info("no configuration file found, using defaults", "path", *optConfig)
	}
	setLogLevel(programLevel, cfg.LogLevel)

	var diskImage []byte
	if cfg.DiskPath != "" {
		data, err := os.ReadFile(cfg.DiskPath)
		if err != nil {
			Logger.Error("reading disk image", "path", cfg.DiskPath, "error", err)
			os.Exit(1)
		}
		diskImage = data
	}

	h, err := harness.New(harness.Config{RAMSize: cfg.RAMSize, DiskImage: diskImage})
	if err != nil {
		Logger.Error("constructing harness", "error", err)
		os.Exit(1)
	}

	if cfg.ProgramPath != "" {
		program, err := os.ReadFile(cfg.ProgramPath)
		if err != nil {
			Logger.Error("reading program image", "path", cfg.ProgramPath, "error", err)
			os.Exit(1)
		}
		h.LoadProgram(wordsFromBytes(program), cfg.ProgramAddr)
	}

	if *optCycles > 0 {
		Logger.Info("running headless", "cycles", *optCycles)
		h.RunCycles(*optCycles)
		Logger.Info("run complete", "pc", h.ReadPC())
		return
	}

	monitor.ConsoleReader(monitor.New(h, os.Stdout))
	Logger.Info("monitor exited")
}

// wordsFromBytes packs a little-endian byte image into 32-bit words,
// zero-padding a trailing partial word.
func wordsFromBytes(data []byte) []uint32 {
	words := make([]uint32, (len(data)+3)/4)
	for i := range words {
		for j := 0; j < 4 && i*4+j < len(data); j++ {
			words[i] |= uint32(data[i*4+j]) << (8 * j)
		}
	}
	return words
}

func setLogLevel(lv *slog.LevelVar, level string) {
	switch level {
	case "debug":
		lv.Set(slog.LevelDebug)
	case "warn":
		lv.Set(slog.LevelWarn)
	case "error":
		lv.Set(slog.LevelError)
	default:
		lv.Set(slog.LevelInfo)
	}
}
