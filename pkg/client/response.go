package client

import (
	"encoding/json"
)

// Response is the parsed shape shared by all Data API list endpoints. Items
// stay raw; typed decoding is the caller's concern.
type Response struct {
	Kind          string
	Items         []json.RawMessage
	NextPageToken string
	PageInfo      PageInfo
}

// PageInfo carries the endpoint's pagination counters.
type PageInfo struct {
	TotalResults   int `json:"totalResults"`
	ResultsPerPage int `json:"resultsPerPage"`
}

// envelope is the wire shape of every Data API response, success or error.
// Quota exhaustion arrives inside a normally-shaped error body, so the body
// is parsed regardless of HTTP status.
type envelope struct {
	Kind          string            `json:"kind"`
	Items         []json.RawMessage `json:"items"`
	NextPageToken string            `json:"nextPageToken"`
	PageInfo      PageInfo          `json:"pageInfo"`
	Error         *errorBody        `json:"error"`
}

// errorBody is the Data API error object.
type errorBody struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Errors  []errorItem `json:"errors"`
}

// errorItem is one entry of the error list.
type errorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// toResponse converts a parsed success envelope.
func (e *envelope) toResponse() *Response {
	return &Response{
		Kind:          e.Kind,
		Items:         e.Items,
		NextPageToken: e.NextPageToken,
		PageInfo:      e.PageInfo,
	}
}
