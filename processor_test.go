// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multiPageFixture(t *testing.T, pages []string) string {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offs := make(map[int]int)

	kidRefs := ""
	nextObj := 3
	contentObjs := make([]int, len(pages))
	for i := range pages {
		contentObjs[i] = nextObj + len(pages) + i
	}
	for i := range pages {
		kidRefs += fmt.Sprintf("%d 0 R ", nextObj+i)
	}

	offs[1] = buf.Len()
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	offs[2] = buf.Len()
	fmt.Fprintf(&buf, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kidRefs, len(pages))

	for i := range pages {
		pageObj := nextObj + i
		contentObj := contentObjs[i]
		offs[pageObj] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>\nendobj\n",
			pageObj, nextObj+2*len(pages), contentObj)
	}

	fontObj := nextObj + 2*len(pages)
	offs[fontObj] = buf.Len()
	fmt.Fprintf(&buf, "%d 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica "+
		"/Encoding /WinAnsiEncoding >>\nendobj\n", fontObj)

	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 10 20 Td (%s) Tj ET", text)
		contentObj := contentObjs[i]
		offs[contentObj] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentObj, len(content), content)
	}

	maxObj := fontObj
	for _, o := range contentObjs {
		if o > maxObj {
			maxObj = o
		}
	}

	xrefOff := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", maxObj+1)
	for i := 1; i <= maxObj; i++ {
		fmt.Fprintf(&buf, "%010d %05d n \n", offs[i], 0)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\n", maxObj+1)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF", xrefOff)

	f, err := os.CreateTemp(t.TempDir(), "procfixture-*.pdf")
	require.NoError(t, err)
	_, err = f.Write(buf.Bytes())
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestProcessorExtractJoinsPagesInOrder(t *testing.T) {
	path := multiPageFixture(t, []string{"First", "Second", "Third"})

	cfg := NewDefaultConfig()
	cfg.MaxConcurrentPDFs = 2
	cfg.MaxWorkersPerPDF = 3
	cfg.WorkerTimeout = 5 * time.Second

	proc, err := NewProcessor(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	text, truncated, err := proc.Extract(ctx, path)
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Contains(t, text, "First")
	assert.Contains(t, text, "Second")
	assert.Contains(t, text, "Third")
	assert.Less(t, bytes.Index([]byte(text), []byte("First")), bytes.Index([]byte(text), []byte("Second")))
}

func TestProcessorExtractTruncatesAtMaxTotalChars(t *testing.T) {
	path := multiPageFixture(t, []string{"First", "Second"})

	cfg := NewDefaultConfig()
	cfg.MaxTotalChars = 3
	cfg.WorkerTimeout = 5 * time.Second

	proc, err := NewProcessor(cfg)
	require.NoError(t, err)

	text, truncated, err := proc.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, truncated)
	assert.LessOrEqual(t, len(text), 3)
}

func TestNewProcessorRejectsInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxConcurrentPDFs = 0
	_, err := NewProcessor(cfg)
	assert.Error(t, err)
}
