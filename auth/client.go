package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Daskott/kontakt/apierror"
)

const (
	LoginPath    = "/api/auth/login"
	RegisterPath = "/api/auth/register"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Client talks to the auth endpoints, which are the source of the bearer token
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), httpClient: httpClient}
}

// Login exchanges email/password for an access token and returns the session to persist
func (c *Client) Login(ctx context.Context, req LoginRequest) (Session, error) {
	resp, err := c.postJSON(ctx, LoginPath, req)
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()

	if !apierror.IsSuccess(resp.StatusCode) {
		return Session{}, apierror.FromResponse(resp)
	}

	data := loginResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Session{}, fmt.Errorf("unable to decode login response: %v", err)
	}

	if strings.TrimSpace(data.AccessToken) == "" {
		return Session{}, fmt.Errorf("login response did not include an access token")
	}

	session := Session{Username: req.Email, Token: data.AccessToken}
	if claims, err := ParseClaims(data.AccessToken); err == nil {
		session.UserID = claims.Subject
		if claims.Username != "" {
			session.Username = claims.Username
		}
	}

	return session, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	resp, err := c.postJSON(ctx, RegisterPath, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !apierror.IsSuccess(resp.StatusCode) {
		return apierror.FromResponse(resp)
	}

	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &apierror.NetworkError{Err: err}
	}

	return resp, nil
}
