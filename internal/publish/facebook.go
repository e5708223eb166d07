// Package publish hands finished videos to the external publishing
// collaborator (Facebook Graph contract). Publish failures are recorded
// by the caller but never invalidate a completed render.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleanestdotsol/viralreels/internal/models"
)

const (
	// DefaultBaseURL is the production Graph endpoint.
	DefaultBaseURL = "https://graph.facebook.com"

	// DefaultVersion is the Graph API version the upload contract was
	// written against.
	DefaultVersion = "v18.0"
)

// Result is the outcome of a publish: the external post id and, when
// story sharing is enabled and succeeded, the story id.
type Result struct {
	PostID  string
	StoryID string
}

// Client uploads videos to a page feed.
type Client struct {
	baseURL      string
	version      string
	pageID       string
	pageToken    string
	shareToStory bool
	httpClient   *http.Client
	log          zerolog.Logger
}

// NewClient creates a publishing client. baseURL and version fall back
// to the production defaults when empty.
func NewClient(baseURL, version, pageID, pageToken string, shareToStory bool, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if version == "" {
		version = DefaultVersion
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		version:      version,
		pageID:       pageID,
		pageToken:    pageToken,
		shareToStory: shareToStory,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log,
	}
}

// Configured reports whether publishing credentials are present.
func (c *Client) Configured() bool {
	return c.pageID != "" && c.pageToken != ""
}

// BuildCaption assembles the post description from the script: hook,
// payoff and generated hashtags.
func BuildCaption(script *models.Script) string {
	hashtags := Hashtags(script.Topic, script.Hook, script.Payoff)
	return fmt.Sprintf("%s 🤯\n\n%s\n\n%s", script.Hook, script.Payoff, hashtags)
}

type graphResponse struct {
	ID string `json:"id"`
}

// Publish uploads the finished video with a generated caption and, when
// enabled, shares it to the page story. A story-share failure does not
// fail the publish; the primary post already exists.
func (c *Client) Publish(ctx context.Context, videoPath string, script *models.Script) (*Result, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("publishing credentials not configured")
	}

	postID, err := c.uploadVideo(ctx, videoPath, BuildCaption(script))
	if err != nil {
		return nil, err
	}
	res := &Result{PostID: postID}

	if c.shareToStory {
		storyID, err := c.shareStory(ctx, postID)
		if err != nil {
			c.log.Warn().Err(err).Str("post_id", postID).Msg("story share failed")
		} else {
			res.StoryID = storyID
		}
	}
	return res, nil
}

func (c *Client) uploadVideo(ctx context.Context, videoPath, caption string) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open video: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("source", filepath.Base(videoPath))
		if err == nil {
			if _, cErr := io.Copy(part, file); cErr != nil {
				err = cErr
			}
		}
		if err == nil {
			err = mw.WriteField("access_token", c.pageToken)
		}
		if err == nil {
			err = mw.WriteField("description", caption)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	endpoint := fmt.Sprintf("%s/%s/%s/videos", c.baseURL, c.version, c.pageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("video upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("video upload returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out graphResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("upload response carried no post id")
	}
	return out.ID, nil
}

func (c *Client) shareStory(ctx context.Context, videoID string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/video_stories", c.baseURL, c.version, c.pageID)
	form := url.Values{
		"source_video_id": {videoID},
		"access_token":    {c.pageToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build story request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("story share failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("story share returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out graphResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode story response: %w", err)
	}
	return out.ID, nil
}
