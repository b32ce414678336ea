package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// MaxIDsPerRequest is the protocol maximum for a single id-list lookup.
const MaxIDsPerRequest = 50

// BatchConfig holds batch fetcher configuration.
type BatchConfig struct {
	// MaxConcurrency is the number of chunks fetched in parallel.
	// 1 keeps chunk requests strictly sequential.
	MaxConcurrency int

	// IDParam is the query parameter carrying the joined id list.
	IDParam string
}

// DefaultBatchConfig returns the sequential default configuration.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 1,
		IDParam:        "id",
	}
}

// BatchFetcher splits long id lists into protocol-maximum chunks and
// concatenates the per-chunk results preserving chunk order. Within a
// chunk, items arrive in whatever order the service returns them; that is
// a protocol property, not something the client re-sorts. Ids with no
// matching record are simply absent from the output.
type BatchFetcher struct {
	executor Executor
	config   BatchConfig
}

// NewBatchFetcher creates a new batch fetcher.
func NewBatchFetcher(executor Executor, config BatchConfig) *BatchFetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 1
	}
	if config.IDParam == "" {
		config.IDParam = "id"
	}
	return &BatchFetcher{
		executor: executor,
		config:   config,
	}
}

// FetchByIDs fetches every id in chunks of at most MaxIDsPerRequest and
// returns the concatenated items in chunk order. Any chunk error fails the
// whole call; partial results are never returned silently.
func (bf *BatchFetcher) FetchByIDs(ctx context.Context, endpoint string, ids []string, baseParams map[string]string) ([]json.RawMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	start := time.Now()
	chunks := chunkIDs(ids, MaxIDsPerRequest)
	results := make([][]json.RawMessage, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bf.config.MaxConcurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			params := make(map[string]string, len(baseParams)+1)
			for k, v := range baseParams {
				params[k] = v
			}
			params[bf.config.IDParam] = strings.Join(chunk, ",")

			resp, err := bf.executor.Execute(gctx, endpoint, params)
			if err != nil {
				return fmt.Errorf("fetch chunk %d/%d: %w", i+1, len(chunks), err)
			}
			results[i] = resp.Items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var items []json.RawMessage
	for _, chunkItems := range results {
		items = append(items, chunkItems...)
	}

	log.Debug().
		Str("endpoint", endpoint).
		Int("ids", len(ids)).
		Int("chunks", len(chunks)).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return items, nil
}

// chunkIDs partitions ids into consecutive chunks of at most size entries.
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	return append(chunks, ids)
}
