// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfxref

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/nextpage-labs/pdfxref/logger"
)

// Processor extracts text from a PDF file, bounding both how many
// documents and how many pages per document are processed concurrently.
type Processor interface {
	Extract(ctx context.Context, path string) (string, bool, error)
	ExtractAsStream(ctx context.Context, path string) (<-chan string, bool, error)
	Metadata(ctx context.Context, path string, w io.Writer) error
}

// ExtractorStrategy governs how a single page's extraction failure is
// handled.
type ExtractorStrategy interface {
	ExtractPage(ctx context.Context, page *Page) (string, error)
}

// StrictExtractor propagates a page failure to the whole document.
type StrictExtractor struct{}

func (s *StrictExtractor) ExtractPage(ctx context.Context, page *Page) (string, error) {
	return page.GetPlainText(cacheFonts(page))
}

// BestEffortExtractor skips a failed page rather than failing the whole
// document.
type BestEffortExtractor struct{}

func (b *BestEffortExtractor) ExtractPage(ctx context.Context, page *Page) (string, error) {
	text, err := page.GetPlainText(cacheFonts(page))
	if err != nil {
		logger.Debug("best-effort extractor ignoring page error", "err", err, "trace", true)
		return "", nil
	}
	return text, nil
}

type processor struct {
	cfg       *Config
	sem       *semaphore.Weighted
	extractor ExtractorStrategy
}

// NewProcessor validates cfg and returns a Processor using the matching
// ExtractorStrategy for cfg.ParsingMode.
func NewProcessor(cfg *Config) (Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, wrapErr(MalformedDocument, err, "invalid processor config")
	}

	var extractor ExtractorStrategy
	switch cfg.ParsingMode {
	case Strict:
		extractor = &StrictExtractor{}
	case BestEffort:
		extractor = &BestEffortExtractor{}
	}

	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}

	logger.Debug(fmt.Sprintf("processor initialized: mode=%v max_pdfs=%d workers_per_pdf=%d",
		cfg.ParsingMode, cfg.MaxConcurrentPDFs, cfg.MaxWorkersPerPDF), true)

	return &processor{
		cfg:       cfg,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrentPDFs)),
		extractor: extractor,
	}, nil
}

type pageResult struct {
	index int
	text  string
	err   error
}

// Extract reads every page of the document at path, in order, joining
// their text. truncated reports whether Config.MaxTotalChars cut the
// result short.
func (p *processor) Extract(ctx context.Context, path string) (string, bool, error) {
	if err := p.acquireSlot(ctx); err != nil {
		return "", false, err
	}
	defer p.sem.Release(1)

	r, err := Open(path)
	if err != nil {
		return "", false, err
	}
	if closer, ok := r.f.(io.Closer); ok {
		defer closer.Close()
	}

	total := r.NumPage()
	if total == 0 {
		return "", false, nil
	}

	numWorkers := p.adjustWorkerCount(p.cfg.MaxWorkersPerPDF)
	jobs, results := make(chan int, total), make(chan pageResult, total)

	var wg sync.WaitGroup
	p.startWorkers(ctx, r, jobs, results, numWorkers, &wg)
	if err := p.feedJobs(ctx, total, jobs); err != nil {
		close(jobs)
		return "", false, err
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	out, truncated, err := p.emitInOrder(results)
	if err != nil {
		return "", false, err
	}
	return out.String(), truncated, nil
}

// ExtractAsStream is Extract, but yields each page's text on a channel as
// soon as it becomes the next page in order, instead of buffering the
// whole document in memory.
func (p *processor) ExtractAsStream(ctx context.Context, path string) (<-chan string, bool, error) {
	if err := p.acquireSlot(ctx); err != nil {
		return nil, false, err
	}
	defer p.sem.Release(1)

	r, err := Open(path)
	if err != nil {
		return nil, false, err
	}

	total := r.NumPage()
	if total == 0 {
		ch := make(chan string)
		close(ch)
		if closer, ok := r.f.(io.Closer); ok {
			closer.Close()
		}
		return ch, false, nil
	}

	numWorkers := p.adjustWorkerCount(p.cfg.MaxWorkersPerPDF)
	jobs, results := make(chan int, total), make(chan pageResult, total)

	var wg sync.WaitGroup
	p.startWorkers(ctx, r, jobs, results, numWorkers, &wg)
	if err := p.feedJobs(ctx, total, jobs); err != nil {
		close(jobs)
		return nil, false, err
	}
	close(jobs)

	outCh := make(chan string)
	truncated := false
	go func() {
		defer outCh2Close(outCh, r)
		go func() {
			wg.Wait()
			close(results)
		}()
		truncated = p.streamInOrder(results, outCh)
	}()

	return outCh, truncated, nil
}

func outCh2Close(outCh chan string, r *Reader) {
	close(outCh)
	if closer, ok := r.f.(io.Closer); ok {
		closer.Close()
	}
}

func (p *processor) emitInOrder(results chan pageResult) (strings.Builder, bool, error) {
	pageBuffer := make(map[int]string)
	nextPage := 1
	var out strings.Builder
	truncated := false

	for res := range results {
		if res.err != nil && p.cfg.ParsingMode == Strict {
			return out, false, fmt.Errorf("strict mode failed on page %d: %w", res.index, res.err)
		}
		pageBuffer[res.index] = res.text

		for {
			text, ok := pageBuffer[nextPage]
			if !ok {
				break
			}
			if p.cfg.MaxTotalChars > 0 {
				remaining := p.cfg.MaxTotalChars - out.Len()
				if remaining <= 0 {
					truncated = true
					break
				}
				if len(text) > remaining {
					out.WriteString(text[:remaining])
					truncated = true
				} else {
					out.WriteString(text)
				}
			} else {
				out.WriteString(text)
			}
			delete(pageBuffer, nextPage)
			nextPage++
			if truncated {
				break
			}
		}
		if truncated {
			break
		}
	}
	return out, truncated, nil
}

func (p *processor) streamInOrder(results chan pageResult, outCh chan string) (truncated bool) {
	pageBuffer := make(map[int]string)
	nextPage := 1
	totalChars := 0

	for res := range results {
		if res.err != nil && p.cfg.ParsingMode == Strict {
			return false
		}
		pageBuffer[res.index] = res.text

		for {
			text, ok := pageBuffer[nextPage]
			if !ok {
				break
			}
			if p.cfg.MaxTotalChars > 0 {
				remaining := p.cfg.MaxTotalChars - totalChars
				if remaining <= 0 {
					return true
				}
				if len(text) > remaining {
					outCh <- text[:remaining]
					return true
				}
				outCh <- text
				totalChars += len(text)
			} else {
				outCh <- text
				totalChars += len(text)
			}
			delete(pageBuffer, nextPage)
			nextPage++
		}
	}
	return truncated
}

func (p *processor) acquireSlot(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	return nil
}

func (p *processor) adjustWorkerCount(maxWorkers int) int {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if maxWorkers > runtime.NumCPU()/2 {
		maxWorkers = runtime.NumCPU()
	}
	return maxWorkers
}

func (p *processor) startWorkers(ctx context.Context, r *Reader, jobs <-chan int, results chan<- pageResult, numWorkers int, wg *sync.WaitGroup) {
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range jobs {
				page := r.Page(i)
				if page.V.IsNull() {
					results <- pageResult{i, "", fmt.Errorf("page %d not found", i)}
					continue
				}
				text, err := p.extractPageWithRetries(ctx, &page)
				results <- pageResult{i, text, err}
			}
		}(w)
	}
}

func (p *processor) extractPageWithRetries(ctx context.Context, page *Page) (string, error) {
	var text string
	var err error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		ctxPage, cancel := context.WithTimeout(ctx, p.cfg.WorkerTimeout)
		text, err = p.extractor.ExtractPage(ctxPage, page)
		cancel()
		if err == nil {
			break
		}
		logger.Debug(fmt.Sprintf("retrying page extraction: attempt=%d", attempt), "err", err, "trace", true)
	}
	return text, err
}

func (p *processor) feedJobs(ctx context.Context, total int, jobs chan<- int) error {
	for i := 1; i <= total; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case jobs <- i:
		}
	}
	return nil
}

func cacheFonts(page *Page) map[string]*Font {
	fonts := make(map[string]*Font)
	for _, fname := range page.Fonts() {
		if _, ok := fonts[fname]; !ok {
			f := page.Font(fname)
			fonts[fname] = &f
		}
	}
	return fonts
}

// Metadata writes the document's metadata, as JSON, to w.
func (p *processor) Metadata(ctx context.Context, path string, w io.Writer) error {
	r, err := Open(path)
	if err != nil {
		return err
	}
	if closer, ok := r.f.(io.Closer); ok {
		defer closer.Close()
	}
	return r.MetadataJSON(w)
}
