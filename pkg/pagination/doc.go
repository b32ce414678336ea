// Package pagination assembles multi-page and multi-chunk Data API result
// sets on top of the request executor.
//
// The Data API paginates with an opaque nextPageToken, so token-following
// page fetches are strictly sequential: each request depends on the token
// returned by the previous one. Id-batch lookups (videos?id=a,b,c) have no
// such dependency and may run in parallel, as long as chunk order is
// re-established when results are concatenated.
//
// Example usage:
//
//	pager := pagination.NewPaginator(ytClient)
//	items, err := pager.FetchUpTo(ctx, "playlistItems", params, 120)
//
//	batcher := pagination.NewBatchFetcher(ytClient, pagination.DefaultBatchConfig())
//	items, err := batcher.FetchByIDs(ctx, "videos", ids, params)
package pagination
