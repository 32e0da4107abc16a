// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	pdfxref "github.com/nextpage-labs/pdfxref"
	"github.com/nextpage-labs/pdfxref/logger"
	"github.com/nextpage-labs/pdfxref/tracer"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: pdfxref <file.pdf>")
		os.Exit(2)
	}
	path := os.Args[1]

	cfg := pdfxref.NewDefaultConfig()
	cfg.MaxConcurrentPDFs = 1
	cfg.MaxWorkersPerPDF = 4
	cfg.ParsingMode = pdfxref.BestEffort
	cfg.Logger = func(level logger.LogLevel, msg string, keyvals ...interface{}) {
		// no-op; tracer.Flush below prints the trace buffer instead
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	proc, err := pdfxref.NewProcessor(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	r, err := pdfxref.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		tracer.Flush()
		os.Exit(1)
	}
	fmt.Println("Version:", r.Version())
	fmt.Println("Pages:", r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		box := r.Page(i).MediaBox()
		fmt.Printf("  page %d mediabox: %.0f %.0f %.0f %.0f\n", i, box.Min.X, box.Min.Y, box.Max.X, box.Max.Y)
	}

	text, truncated, err := proc.Extract(ctx, path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "extract:", err)
		tracer.Flush()
		os.Exit(1)
	}
	fmt.Println("Truncated?", truncated)
	fmt.Println("Text:")
	fmt.Println(text)

	fmt.Println("---- Metadata ----")
	if err := proc.Metadata(ctx, path, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "metadata:", err)
	}

	tracer.Flush()
}
