// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

// Package pdfxref is a read-only parser for PDF 1.5+ documents, centered
// on cross-reference (xref) resolution: turning a raw byte source into a
// normalized indirect-object lookup table from classic xref tables, xref
// streams, and compressed object streams.
//
// A downstream page layer built on top of the xref core extracts media
// boxes, positioned text runs, outlines, images, and document metadata. A
// Processor wraps that layer with bounded concurrency across pages and
// across documents.
//
// The module never rewrites or re-emits PDF bytes, and treats any
// inconsistency in the cross-reference structure itself as a fatal parse
// error rather than attempting semantic repair.
package pdfxref
