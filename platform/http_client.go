package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type HTTPClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type httpClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient returns a Client speaking the platform's JSON API.
func NewHTTPClient(cfg HTTPClientConfig) (Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("platform base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid platform base URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type createGameRequest struct {
	Template string  `json:"template"`
	Sides    [][]int `json:"sides"`
}

type createGameResponse struct {
	ID string `json:"id"`
}

type playerStatusPayload struct {
	ID    int         `json:"id"`
	State PlayerState `json:"state"`
}

type gameStatusPayload struct {
	State   GameState             `json:"state"`
	Players []playerStatusPayload `json:"players"`
}

func (c *httpClient) CreateGame(ctx context.Context, templateExternalID string, sides [][]int) (string, error) {
	body, err := json.Marshal(createGameRequest{Template: templateExternalID, Sides: sides})
	if err != nil {
		return "", &Error{Op: "create game", Err: err}
	}
	var created createGameResponse
	if err := c.do(ctx, http.MethodPost, "/games", bytes.NewReader(body), &created); err != nil {
		return "", &Error{Op: "create game", Err: err}
	}
	if created.ID == "" {
		return "", &Error{Op: "create game", Err: errors.New("platform returned no game id")}
	}
	return created.ID, nil
}

func (c *httpClient) QueryGame(ctx context.Context, externalID string) (*GameStatus, error) {
	var payload gameStatusPayload
	if err := c.do(ctx, http.MethodGet, "/games/"+url.PathEscape(externalID), nil, &payload); err != nil {
		return nil, &Error{Op: "query game", Err: err}
	}
	status := &GameStatus{State: payload.State}
	for _, player := range payload.Players {
		status.Players = append(status.Players, PlayerStatus{PlayerID: player.ID, State: player.State})
	}
	return status, nil
}

func (c *httpClient) DeleteGame(ctx context.Context, externalID string) error {
	err := c.do(ctx, http.MethodDelete, "/games/"+url.PathEscape(externalID), nil, nil)
	if err != nil {
		// Уже удалена на платформе: для нас это успех.
		var httpErr *statusError
		if errors.As(err, &httpErr) && httpErr.code == http.StatusNotFound {
			return nil
		}
		return &Error{Op: "delete game", Err: err}
	}
	return nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func (c *httpClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
