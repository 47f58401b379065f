package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"driveview/internal/model"
)

// listingFields is the field projection requested from the listing API.
const listingFields = "entries(id,name,mimeType,size,modifiedTime,thumbnailLink,webViewLink,description),nextCursor"

// Config holds the connection settings for a drive API client.
// BearerToken and APIKey are mutually exclusive; the bearer token wins
// when both are set.
type Config struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	PageSize    int
}

// Client talks to the remote listing and folder metadata APIs.
type Client struct {
	http *nethttp.Client
	cfg  Config
	log  zerolog.Logger
}

// Page is one page of a folder listing. An empty NextCursor means no
// further pages.
type Page struct {
	Entries    []model.Entry `json:"entries"`
	NextCursor string        `json:"nextCursor"`
}

// errorEnvelope is the API's error response body.
type errorEnvelope struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewClient creates a drive API client with retrying transport.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 10 * time.Second
	rc.Logger = nil // retries are logged through zerolog below

	return &Client{
		http: rc.StandardClient(),
		cfg:  cfg,
		log:  log,
	}
}

// Authenticated reports whether the client uses a bearer token.
func (c *Client) Authenticated() bool {
	return c.cfg.BearerToken != ""
}

// FetchPage fetches one page of a folder's listing. An empty cursor
// requests the first page.
func (c *Client) FetchPage(ctx context.Context, folderID, cursor string) (Page, error) {
	params := url.Values{}
	params.Set("folder", folderID)
	params.Set("fields", listingFields)
	params.Set("pageSize", strconv.Itoa(c.cfg.PageSize))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var page Page
	if err := c.get(ctx, "/entries", params, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// ListFolder fetches pages starting from cursor and accumulates entries
// until the listing is exhausted or limit entries have been collected.
// A limit of 0 means no ceiling. The returned cursor resumes the listing
// where it stopped; it is empty when the folder is fully listed.
func (c *Client) ListFolder(ctx context.Context, folderID, cursor string, limit int) ([]model.Entry, string, error) {
	var entries []model.Entry
	for {
		page, err := c.FetchPage(ctx, folderID, cursor)
		if err != nil {
			return nil, "", err
		}
		entries = append(entries, page.Entries...)
		cursor = page.NextCursor
		if cursor == "" || (limit > 0 && len(entries) >= limit) {
			return entries, cursor, nil
		}
	}
}

// FolderNamePlaceholder is used when the metadata call fails; a bare id is
// an acceptable name until resolution completes.
const FolderNamePlaceholder = "Folder"

// FolderName resolves a folder's display name. It never fails: on any
// error the placeholder is returned so that naming never blocks listing.
func (c *Client) FolderName(ctx context.Context, folderID string) string {
	params := url.Values{}
	params.Set("fields", "name")

	var meta struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, "/entries/"+url.PathEscape(folderID), params, &meta); err != nil {
		c.log.Debug().Err(err).Str("folder", folderID).Msg("folder name lookup failed")
		return FolderNamePlaceholder
	}
	if meta.Name == "" {
		return FolderNamePlaceholder
	}
	return meta.Name
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if !c.Authenticated() && c.cfg.APIKey != "" {
		params.Set("key", c.cfg.APIKey)
	}

	u := strings.TrimSuffix(c.cfg.BaseURL, "/") + path + "?" + params.Encode()
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}
	req.Header.Set("Accept", "application/json")

	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("request_id", reqID).Str("path", path).Msg("request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("request_id", reqID).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("drive api call")

	if resp.StatusCode != nethttp.StatusOK {
		return c.responseError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// responseError turns a non-200 response into the error taxonomy: a 401
// under bearer auth is ErrAuthExpired, everything else a RemoteError with
// the server-supplied message when the envelope decodes.
func (c *Client) responseError(resp *nethttp.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode == nethttp.StatusUnauthorized && c.Authenticated() {
		return fmt.Errorf("%w: HTTP 401", ErrAuthExpired)
	}

	msg := ""
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		msg = env.Error.Message
	}
	return &RemoteError{Status: resp.StatusCode, Message: msg}
}
