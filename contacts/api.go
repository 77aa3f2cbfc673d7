package contacts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Daskott/kontakt/apierror"
	"github.com/Daskott/kontakt/auth"
)

const (
	ContactsPath = "/api/contacts"
	SearchPath   = "/api/contacts/search"
)

// API is the remote authoritative store
type API interface {
	List(ctx context.Context, creds auth.Credentials) ([]Contact, error)
	Get(ctx context.Context, creds auth.Credentials, id int) (*Contact, error)
	Search(ctx context.Context, creds auth.Credentials, field Field, query string) ([]Contact, error)

	// Create and Update send a multipart form; imageURI, when local, becomes the 'file' part
	Create(ctx context.Context, creds auth.Credentials, draft Contact, imageURI string) (*Contact, error)
	Update(ctx context.Context, creds auth.Credentials, contact Contact, imageURI string) (*Contact, error)

	Delete(ctx context.Context, creds auth.Credentials, id int) error
}

// HTTPClient implements API over the REST contract
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient returns a client for baseURL. A zero timeout means requests never time out.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) List(ctx context.Context, creds auth.Credentials) ([]Contact, error) {
	resp, err := c.do(ctx, http.MethodGet, ContactsPath, creds, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeContacts(resp.Body)
}

func (c *HTTPClient) Get(ctx context.Context, creds auth.Credentials, id int) (*Contact, error) {
	resp, err := c.do(ctx, http.MethodGet, contactPath(id), creds, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeContact(resp.Body)
}

func (c *HTTPClient) Search(ctx context.Context, creds auth.Credentials, field Field, query string) ([]Contact, error) {
	params := url.Values{}
	params.Set(string(field), query)

	resp, err := c.do(ctx, http.MethodGet, SearchPath+"?"+params.Encode(), creds, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeContacts(resp.Body)
}

func (c *HTTPClient) Create(ctx context.Context, creds auth.Credentials, draft Contact, imageURI string) (*Contact, error) {
	return c.sendForm(ctx, http.MethodPost, ContactsPath, creds, draft, imageURI)
}

func (c *HTTPClient) Update(ctx context.Context, creds auth.Credentials, contact Contact, imageURI string) (*Contact, error) {
	return c.sendForm(ctx, http.MethodPatch, contactPath(contact.ID), creds, contact, imageURI)
}

func (c *HTTPClient) Delete(ctx context.Context, creds auth.Credentials, id int) error {
	resp, err := c.do(ctx, http.MethodDelete, contactPath(id), creds, nil, "")
	if err != nil {
		return err
	}
	resp.Body.Close()

	return nil
}

func (c *HTTPClient) sendForm(
	ctx context.Context,
	method, path string,
	creds auth.Credentials,
	contact Contact,
	imageURI string) (*Contact, error) {

	body, contentType, err := encodeMultipart(contact, imageURI)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, method, path, creds, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeContact(resp.Body)
}

// do sends the request and turns transport failures into *apierror.NetworkError
// and non 2xx responses into *apierror.ServerError
func (c *HTTPClient) do(
	ctx context.Context,
	method, path string,
	creds auth.Credentials,
	body io.Reader,
	contentType string) (*http.Response, error) {

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", creds.BearerHeader())
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apierror.NetworkError{Err: err}
	}

	if !apierror.IsSuccess(resp.StatusCode) {
		defer resp.Body.Close()
		return nil, apierror.FromResponse(resp)
	}

	return resp, nil
}

func contactPath(id int) string {
	return fmt.Sprintf("%s/%d", ContactsPath, id)
}
