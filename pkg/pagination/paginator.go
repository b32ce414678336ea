package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shortsboard/youtube-data-client/pkg/client"
)

// MaxPageSize is the protocol maximum for the maxResults parameter.
const MaxPageSize = 50

// Executor is the slice of the client the assemblers need: one classified
// GET against one endpoint.
type Executor interface {
	Execute(ctx context.Context, endpoint string, params map[string]string) (*client.Response, error)
}

// Paginator follows nextPageToken chains until a result-count target is
// reached or the token stream ends.
type Paginator struct {
	executor Executor
}

// NewPaginator creates a paginator over the given executor.
func NewPaginator(executor Executor) *Paginator {
	return &Paginator{executor: executor}
}

// FetchUpTo collects up to max items from an endpoint, starting from the
// first page. Pages are fetched strictly sequentially because each request
// depends on the token of the previous response. The result is truncated to
// exactly max items; the last page may return more than requested. Any page
// error propagates immediately, partial results are never returned silently.
func (p *Paginator) FetchUpTo(ctx context.Context, endpoint string, baseParams map[string]string, max int) ([]json.RawMessage, error) {
	if max <= 0 {
		return nil, nil
	}

	start := time.Now()
	var collected []json.RawMessage
	token := ""
	pages := 0

	for len(collected) < max {
		params := make(map[string]string, len(baseParams)+2)
		for k, v := range baseParams {
			params[k] = v
		}

		pageSize := max - len(collected)
		if pageSize > MaxPageSize {
			pageSize = MaxPageSize
		}
		params["maxResults"] = strconv.Itoa(pageSize)
		if token != "" {
			params["pageToken"] = token
		}

		resp, err := p.executor.Execute(ctx, endpoint, params)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", pages+1, err)
		}
		pages++

		collected = append(collected, resp.Items...)
		token = resp.NextPageToken
		if token == "" {
			break
		}
	}

	if len(collected) > max {
		collected = collected[:max]
	}

	log.Debug().
		Str("endpoint", endpoint).
		Int("pages", pages).
		Int("items", len(collected)).
		Dur("duration", time.Since(start)).
		Msg("Paginated fetch complete")

	return collected, nil
}
