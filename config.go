// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nextpage-labs/pdfxref/logger"
)

// ParsingMode controls how a Processor reacts to a page-level extraction
// failure.
type ParsingMode string

const (
	Strict     ParsingMode = "strict"
	BestEffort ParsingMode = "best-effort"
)

// Config configures a Processor's concurrency, retry, and truncation
// behavior.
type Config struct {
	MaxConcurrentPDFs int           `validate:"min=1,max=10"`
	MaxWorkersPerPDF  int           `validate:"min=1,max=10"`
	WorkerTimeout     time.Duration `validate:"required"`
	ParsingMode       ParsingMode   `validate:"oneof=strict best-effort"`
	MaxRetries        int           `validate:"min=0,max=3"`
	MaxTotalChars     int           `validate:"min=0"`
	DebugOn           bool
	Logger            logger.LogFunc
}

// NewDefaultConfig returns a Config with conservative concurrency and no
// output truncation.
func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentPDFs: 5,
		MaxWorkersPerPDF:  1,
		WorkerTimeout:     5 * time.Second,
		ParsingMode:       BestEffort,
		MaxRetries:        3,
		MaxTotalChars:     0,
		DebugOn:           false,
	}
}

// Validate reports any struct-tag violation in cfg.
func (cfg *Config) Validate() error {
	logger.Debug("validating processor config")
	return validator.New().Struct(cfg)
}
