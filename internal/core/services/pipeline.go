package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridwise-labs/regtrack/internal/core/domain"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driven"
	"github.com/gridwise-labs/regtrack/internal/core/ports/driving"
	"github.com/gridwise-labs/regtrack/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.IngestPipeline = (*Pipeline)(nil)

// Pipeline runs the save-if-missing protocol for source documents:
// extract and chunk only when the cache has no chunk set, then build
// whichever index artifacts are missing. A prior run that crashed after
// producing chunks and a vector artifact recomputes only the summary.
type Pipeline struct {
	cache     driving.DocumentCache
	extractor driven.ChunkExtractor
	chunker   driven.Chunker
	vector    driven.VectorIndexBuilder
	summary   driven.SummaryBuilder
	fetcher   driven.OrderFetcher

	downloadsDir string
}

// NewPipeline creates an ingest pipeline.
// The vector and summary builders are optional - a nil builder skips that
// artifact. The fetcher is optional - without it, ProcessAll only walks
// the downloads directory.
func NewPipeline(
	cache driving.DocumentCache,
	extractor driven.ChunkExtractor,
	chunker driven.Chunker,
	vector driven.VectorIndexBuilder,
	summary driven.SummaryBuilder,
	fetcher driven.OrderFetcher,
	downloadsDir string,
) *Pipeline {
	return &Pipeline{
		cache:        cache,
		extractor:    extractor,
		chunker:      chunker,
		vector:       vector,
		summary:      summary,
		fetcher:      fetcher,
		downloadsDir: downloadsDir,
	}
}

// Process runs the save-if-missing pipeline for one source document.
func (p *Pipeline) Process(ctx context.Context, path string) (*driving.ProcessResult, error) {
	identity := domain.IdentityFromPath(path)
	if identity == "" {
		return nil, fmt.Errorf("%w: cannot derive identity from %q", domain.ErrInvalidInput, path)
	}

	result := &driving.ProcessResult{Identity: identity}

	needVector := p.vector != nil && !p.cache.HasVector(ctx, identity)
	needSummary := p.summary != nil && !p.cache.HasSummary(ctx, identity)
	needChunks := !p.cache.HasChunks(ctx, identity)

	if !needChunks && !needVector && !needSummary {
		logger.Debug("skipping already indexed document: %s", identity)
		if meta, err := p.cache.Metadata(ctx, identity); err == nil {
			if info, ok := meta.Artifacts[domain.KindChunks]; ok {
				result.ChunkCount = info.UnitCount
			}
		}
		return result, nil
	}

	logger.Info("processing document: %s", identity)

	chunks, extracted, err := p.obtainChunks(ctx, identity, path)
	if err != nil {
		return nil, err
	}
	result.ChunkCount = len(chunks)
	result.ExtractedChunks = extracted

	if p.vector != nil && !p.cache.HasVector(ctx, identity) {
		if err := p.buildVector(ctx, identity, chunks); err != nil {
			return result, err
		}
		result.BuiltVector = true
	}

	if p.summary != nil && !p.cache.HasSummary(ctx, identity) {
		if err := p.buildSummary(ctx, identity, chunks); err != nil {
			return result, err
		}
		result.BuiltSummary = true
	}

	logger.Info("finished indexing: %s", identity)
	return result, nil
}

// obtainChunks loads the cached chunk set, or extracts a fresh one when
// the cache misses. Corruption of the stored chunk set falls back to
// re-extraction; it never aborts the document.
func (p *Pipeline) obtainChunks(ctx context.Context, identity, path string) ([]domain.Chunk, bool, error) {
	if p.cache.HasChunks(ctx, identity) {
		chunks, err := p.cache.LoadChunks(ctx, identity)
		if err == nil {
			return chunks, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrCorrupted) {
			return nil, false, err
		}
		logger.Warn("chunk set for %q unusable, re-extracting: %v", identity, err)
	}

	pages, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("extracting %q: %w", path, err)
	}

	chunks, err := p.chunker.Chunk(ctx, identity, pages)
	if err != nil {
		return nil, false, fmt.Errorf("chunking %q: %w", identity, err)
	}

	checksum := sourceChecksum(path)
	if err := p.cache.SaveChunks(ctx, identity, chunks, checksum); err != nil {
		return nil, false, err
	}
	return chunks, true, nil
}

func (p *Pipeline) buildVector(ctx context.Context, identity string, chunks []domain.Chunk) error {
	payload, count, err := p.vector.Build(ctx, chunks)
	if err != nil {
		return fmt.Errorf("building vector index for %q: %w", identity, err)
	}
	return p.cache.SaveVector(ctx, identity, payload, count)
}

func (p *Pipeline) buildSummary(ctx context.Context, identity string, chunks []domain.Chunk) error {
	payload, count, err := p.summary.Build(ctx, chunks)
	if err != nil {
		return fmt.Errorf("building summary index for %q: %w", identity, err)
	}
	return p.cache.SaveSummary(ctx, identity, payload, count)
}

// ProcessAll processes every PDF under the downloads directory, fetching
// new documents first when a fetcher is configured. A failing document is
// recorded in its result and the batch proceeds.
func (p *Pipeline) ProcessAll(ctx context.Context) ([]driving.ProcessResult, error) {
	paths, err := p.collectPaths(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]driving.ProcessResult, 0, len(paths))
	for _, path := range paths {
		res, err := p.Process(ctx, path)
		if res == nil {
			res = &driving.ProcessResult{Identity: domain.IdentityFromPath(path)}
		}
		if err != nil {
			logger.Warn("processing %q failed: %v", path, err)
			res.Err = err
		}
		results = append(results, *res)
	}
	return results, nil
}

func (p *Pipeline) collectPaths(ctx context.Context) ([]string, error) {
	if p.fetcher != nil {
		paths, err := p.fetcher.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching documents: %w", err)
		}
		return paths, nil
	}
	return listPDFs(p.downloadsDir)
}

// listPDFs walks dir recursively and returns all PDF paths.
func listPDFs(dir string) ([]string, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: downloads directory not configured", domain.ErrInvalidInput)
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %q: %w", dir, err)
	}
	return paths, nil
}

// sourceChecksum hashes the source file. Best effort: an unreadable
// source leaves the checksum empty rather than failing the save.
func sourceChecksum(path string) string {
	f, err := os.Open(path)
	if err != nil {
		logger.Debug("cannot hash source %q: %v", path, err)
		return ""
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		logger.Debug("cannot hash source %q: %v", path, err)
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}
