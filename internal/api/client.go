package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	AvatarPath   = "/update_avatar"
	FavoritePath = "/toggle_favorite/"
	AvatarField  = "avatar"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client speaks the two page endpoints. It holds no page state.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

// AvatarResponse is the JSON body of POST /update_avatar.
type AvatarResponse struct {
	Success   bool   `json:"success"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Message   string `json:"message,omitempty"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("missing base url")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}, nil
}

func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// UpdateAvatar uploads one file as multipart field "avatar". Any response
// with a decodable JSON body is returned as-is, whatever its status, so the
// caller sees the server's message.
func (c *Client) UpdateAvatar(ctx context.Context, filename string, data io.Reader) (AvatarResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(AvatarField, filename)
	if err != nil {
		return AvatarResponse{}, err
	}
	if _, err := io.Copy(part, data); err != nil {
		return AvatarResponse{}, err
	}
	if err := mw.Close(); err != nil {
		return AvatarResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+AvatarPath, &body)
	if err != nil {
		return AvatarResponse{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return AvatarResponse{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return AvatarResponse{}, err
	}
	var out AvatarResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return AvatarResponse{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	c.log.Debug().Int("status", resp.StatusCode).Bool("success", out.Success).Msg("avatar upload answered")
	return out, nil
}

// ToggleFavorite posts an empty body; success is the status code alone.
func (c *Client) ToggleFavorite(ctx context.Context, trackID int) error {
	url := c.cfg.BaseURL + FavoritePath + strconv.Itoa(trackID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// Page fetches the rendered media page.
func (c *Client) Page(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return b, nil
}
