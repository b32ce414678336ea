// Package youtube exposes the typed read operations of the Data API v3 on
// top of the rotating request executor: channel lookup, playlist and search
// pagination, and batched video detail fetches.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shortsboard/youtube-data-client/pkg/pagination"
)

// ErrNotFound is returned when a lookup matches no remote record.
var ErrNotFound = errors.New("not found")

// Data API endpoint paths.
const (
	EndpointChannels      = "channels"
	EndpointPlaylistItems = "playlistItems"
	EndpointVideos        = "videos"
	EndpointSearch        = "search"
)

// Service bundles the typed operations. All calls are reads; results carry
// no ordering guarantee beyond what the pagination protocol provides.
type Service struct {
	executor pagination.Executor
	pager    *pagination.Paginator
	batcher  *pagination.BatchFetcher
	logger   zerolog.Logger
}

// NewService creates a service over the given executor.
func NewService(executor pagination.Executor) *Service {
	batchCfg := pagination.DefaultBatchConfig()
	return &Service{
		executor: executor,
		pager:    pagination.NewPaginator(executor),
		batcher:  pagination.NewBatchFetcher(executor, batchCfg),
		logger:   log.With().Str("component", "yt-service").Logger(),
	}
}

// ChannelByID fetches one channel by its raw id.
func (s *Service) ChannelByID(ctx context.Context, channelID string) (*Channel, error) {
	return s.channel(ctx, map[string]string{
		"part": "snippet,statistics,contentDetails",
		"id":   channelID,
	})
}

// ChannelByHandle fetches one channel by handle; a leading @ is stripped.
func (s *Service) ChannelByHandle(ctx context.Context, handle string) (*Channel, error) {
	for len(handle) > 0 && handle[0] == '@' {
		handle = handle[1:]
	}
	return s.channel(ctx, map[string]string{
		"part":      "snippet,statistics,contentDetails",
		"forHandle": handle,
	})
}

// ChannelByIdentifier resolves any operator-pasted identifier form (raw id,
// @handle, channel URL) and fetches the channel.
func (s *Service) ChannelByIdentifier(ctx context.Context, identifier string) (*Channel, error) {
	kind, value := ParseChannelIdentifier(identifier)
	if kind == KindID {
		return s.ChannelByID(ctx, value)
	}
	return s.ChannelByHandle(ctx, value)
}

func (s *Service) channel(ctx context.Context, params map[string]string) (*Channel, error) {
	resp, err := s.executor.Execute(ctx, EndpointChannels, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("channel: %w", ErrNotFound)
	}

	var res channelResource
	if err := json.Unmarshal(resp.Items[0], &res); err != nil {
		return nil, fmt.Errorf("decode channel resource: %w", err)
	}
	return res.toChannel(), nil
}

// PlaylistVideoIDs returns up to max video ids of a playlist, in playlist
// order, following continuation tokens as needed. Entries without a video
// id are skipped.
func (s *Service) PlaylistVideoIDs(ctx context.Context, playlistID string, max int) ([]string, error) {
	items, err := s.pager.FetchUpTo(ctx, EndpointPlaylistItems, map[string]string{
		"part":       "contentDetails",
		"playlistId": playlistID,
	}, max)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, raw := range items {
		var res playlistItemResource
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, fmt.Errorf("decode playlist item: %w", err)
		}
		if res.ContentDetails.VideoID != "" {
			ids = append(ids, res.ContentDetails.VideoID)
		}
	}
	return ids, nil
}

// SearchVideoIDs returns up to max video ids matching the keyword. order is
// a Data API sort (relevance, date, viewCount, rating); empty means
// relevance.
func (s *Service) SearchVideoIDs(ctx context.Context, keyword string, max int, order string) ([]string, error) {
	params := map[string]string{
		"part": "id",
		"q":    keyword,
		"type": "video",
	}
	if order != "" {
		params["order"] = order
	}

	items, err := s.pager.FetchUpTo(ctx, EndpointSearch, params, max)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, raw := range items {
		var res searchResultResource
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, fmt.Errorf("decode search result: %w", err)
		}
		if res.ID.VideoID != "" {
			ids = append(ids, res.ID.VideoID)
		}
	}
	return ids, nil
}

// Videos fetches details for every id, chunked at the protocol maximum.
// Output preserves chunk order; ids with no matching record are absent.
func (s *Service) Videos(ctx context.Context, videoIDs []string) ([]Video, error) {
	items, err := s.batcher.FetchByIDs(ctx, EndpointVideos, videoIDs, map[string]string{
		"part": "snippet,contentDetails,statistics",
	})
	if err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(items))
	for _, raw := range items {
		var res videoResource
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, fmt.Errorf("decode video resource: %w", err)
		}
		videos = append(videos, res.toVideo())
	}
	return videos, nil
}

// ChannelUploadsPlaylistID returns the id of the channel's uploads playlist.
func (s *Service) ChannelUploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	ch, err := s.ChannelByID(ctx, channelID)
	if err != nil {
		return "", err
	}
	if ch.UploadsPlaylistID == "" {
		return "", fmt.Errorf("uploads playlist: %w", ErrNotFound)
	}
	return ch.UploadsPlaylistID, nil
}

// ChannelShorts returns up to max shorts of a channel, newest uploads
// first. Uploads are over-fetched at twice the target because the uploads
// playlist mixes regular videos in.
func (s *Service) ChannelShorts(ctx context.Context, channelID string, max int) ([]Video, error) {
	if max <= 0 {
		return nil, nil
	}

	playlistID, err := s.ChannelUploadsPlaylistID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	ids, err := s.PlaylistVideoIDs(ctx, playlistID, max*2)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	videos, err := s.Videos(ctx, ids)
	if err != nil {
		return nil, err
	}

	shorts := make([]Video, 0, max)
	for _, v := range videos {
		if v.IsShort {
			shorts = append(shorts, v)
		}
		if len(shorts) == max {
			break
		}
	}

	s.logger.Debug().
		Str("channel_id", channelID).
		Int("uploads", len(ids)).
		Int("shorts", len(shorts)).
		Msg("Channel shorts collected")

	return shorts, nil
}
