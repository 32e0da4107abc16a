// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfigValidates(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestConfigValidateRejectsBadParsingMode(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.ParsingMode = "chaotic"
	assert.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsZeroConcurrency(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxConcurrentPDFs = 0
	assert.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsMissingWorkerTimeout(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.WorkerTimeout = 0
	assert.Error(t, cfg.Validate())
}
