package youtube

import (
	"strconv"
)

// ShortMaxSeconds is the duration ceiling for the shorts classification.
const ShortMaxSeconds = 60

// Channel is the decoded channel resource.
type Channel struct {
	ID                string `json:"channel_id"`
	Title             string `json:"title"`
	Handle            string `json:"handle"`
	Description       string `json:"description"`
	Country           string `json:"country"`
	ThumbnailURL      string `json:"thumbnail_url"`
	SubscriberCount   int64  `json:"subscriber_count"`
	ViewCount         int64  `json:"view_count"`
	VideoCount        int64  `json:"video_count"`
	UploadsPlaylistID string `json:"uploads_playlist_id"`
}

// Video is the decoded video resource.
type Video struct {
	ID              string   `json:"video_id"`
	ChannelID       string   `json:"channel_id"`
	ChannelTitle    string   `json:"channel_title"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	PublishedAt     string   `json:"published_at"`
	ThumbnailURL    string   `json:"thumbnail_url"`
	DurationSeconds int      `json:"duration_seconds"`
	IsShort         bool     `json:"is_short"`
	Tags            []string `json:"tags,omitempty"`
	ViewCount       int64    `json:"view_count"`
	LikeCount       int64    `json:"like_count"`
	CommentCount    int64    `json:"comment_count"`
}

// Wire shapes of the Data API resources. Statistics counters arrive as JSON
// strings and decode tolerantly: an absent or garbled counter is 0.

type thumbnail struct {
	URL string `json:"url"`
}

type thumbnails struct {
	Default thumbnail `json:"default"`
	Medium  thumbnail `json:"medium"`
	High    thumbnail `json:"high"`
	Maxres  thumbnail `json:"maxres"`
}

// best picks the largest available thumbnail.
func (t thumbnails) best() string {
	for _, u := range []string{t.Maxres.URL, t.High.URL, t.Medium.URL, t.Default.URL} {
		if u != "" {
			return u
		}
	}
	return ""
}

type channelResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		CustomURL   string     `json:"customUrl"`
		Country     string     `json:"country"`
		Thumbnails  thumbnails `json:"thumbnails"`
	} `json:"snippet"`
	Statistics struct {
		SubscriberCount string `json:"subscriberCount"`
		ViewCount       string `json:"viewCount"`
		VideoCount      string `json:"videoCount"`
	} `json:"statistics"`
	ContentDetails struct {
		RelatedPlaylists struct {
			Uploads string `json:"uploads"`
		} `json:"relatedPlaylists"`
	} `json:"contentDetails"`
}

func (r channelResource) toChannel() *Channel {
	return &Channel{
		ID:                r.ID,
		Title:             r.Snippet.Title,
		Handle:            r.Snippet.CustomURL,
		Description:       r.Snippet.Description,
		Country:           r.Snippet.Country,
		ThumbnailURL:      r.Snippet.Thumbnails.best(),
		SubscriberCount:   parseCount(r.Statistics.SubscriberCount),
		ViewCount:         parseCount(r.Statistics.ViewCount),
		VideoCount:        parseCount(r.Statistics.VideoCount),
		UploadsPlaylistID: r.ContentDetails.RelatedPlaylists.Uploads,
	}
}

type videoResource struct {
	ID      string `json:"id"`
	Snippet struct {
		ChannelID    string     `json:"channelId"`
		ChannelTitle string     `json:"channelTitle"`
		Title        string     `json:"title"`
		Description  string     `json:"description"`
		PublishedAt  string     `json:"publishedAt"`
		Thumbnails   thumbnails `json:"thumbnails"`
		Tags         []string   `json:"tags"`
	} `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount    string `json:"viewCount"`
		LikeCount    string `json:"likeCount"`
		CommentCount string `json:"commentCount"`
	} `json:"statistics"`
}

func (r videoResource) toVideo() Video {
	duration := ParseDuration(r.ContentDetails.Duration)
	return Video{
		ID:              r.ID,
		ChannelID:       r.Snippet.ChannelID,
		ChannelTitle:    r.Snippet.ChannelTitle,
		Title:           r.Snippet.Title,
		Description:     r.Snippet.Description,
		PublishedAt:     r.Snippet.PublishedAt,
		ThumbnailURL:    r.Snippet.Thumbnails.best(),
		DurationSeconds: duration,
		IsShort:         duration > 0 && duration <= ShortMaxSeconds,
		Tags:            r.Snippet.Tags,
		ViewCount:       parseCount(r.Statistics.ViewCount),
		LikeCount:       parseCount(r.Statistics.LikeCount),
		CommentCount:    parseCount(r.Statistics.CommentCount),
	}
}

// playlistItemResource carries the video id of one playlist entry.
type playlistItemResource struct {
	ContentDetails struct {
		VideoID string `json:"videoId"`
	} `json:"contentDetails"`
}

// searchResultResource carries the video id of one search hit.
type searchResultResource struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
}

// parseCount decodes the string-typed counters of the statistics part.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
