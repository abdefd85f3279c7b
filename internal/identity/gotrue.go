// Package identity provides the authentication identity providers used when
// importing users: a GoTrue (Supabase Auth) admin API client and a local
// Postgres-backed provider.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/academia/internal/core"
)

// listPageSize is the page size used when scanning identities by email.
const listPageSize = 200

// GoTrue creates and deletes identities through the GoTrue admin API.
type GoTrue struct {
	baseURL    string
	serviceKey string
	httpClient HTTPDoer
}

var _ core.IdentityProvider = (*GoTrue)(nil)

// NewGoTrue creates a client for the admin API at baseURL
// (e.g. https://xyz.supabase.co/auth/v1) authenticated with a service role key.
func NewGoTrue(baseURL, serviceKey string, client HTTPDoer) *GoTrue {
	if client == nil {
		client = NewRetryClient(nil, 3)
	}
	return &GoTrue{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: client,
	}
}

// APIError is a non-2xx response from the auth service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity provider error (status %d, %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("identity provider error (status %d): %s", e.Status, e.Message)
}

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type createUserRequest struct {
	Email        string            `json:"email"`
	Password     string            `json:"password"`
	EmailConfirm bool              `json:"email_confirm"`
	UserMetadata map[string]string `json:"user_metadata"`
}

type listUsersResponse struct {
	Users []gotrueUser `json:"users"`
}

// EmailExists pages through the identities looking for email, ignoring case.
func (g *GoTrue) EmailExists(ctx context.Context, email string) (bool, error) {
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(listPageSize))

		var resp listUsersResponse
		if err := g.do(ctx, http.MethodGet, "/admin/users?"+q.Encode(), nil, &resp); err != nil {
			return false, fmt.Errorf("list identities: %w", err)
		}
		for _, u := range resp.Users {
			if strings.EqualFold(u.Email, email) {
				return true, nil
			}
		}
		if len(resp.Users) < listPageSize {
			return false, nil
		}
	}
}

// CreateIdentity creates a confirmed identity carrying full_name and
// username as user metadata.
func (g *GoTrue) CreateIdentity(ctx context.Context, in core.NewIdentity) (uuid.UUID, error) {
	body := createUserRequest{
		Email:        in.Email,
		Password:     in.Password,
		EmailConfirm: true,
		UserMetadata: map[string]string{
			"full_name": in.FullName,
			"username":  in.Username,
		},
	}

	var user gotrueUser
	if err := g.do(ctx, http.MethodPost, "/admin/users", body, &user); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && emailTaken(apiErr) {
			return uuid.Nil, &core.DuplicateError{Entity: "user", Field: "email", Value: in.Email}
		}
		return uuid.Nil, err
	}

	id, err := uuid.Parse(user.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("identity provider returned invalid id %q: %w", user.ID, err)
	}
	return id, nil
}

// DeleteIdentity removes an identity. A missing identity is not an error.
func (g *GoTrue) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	err := g.do(ctx, http.MethodDelete, "/admin/users/"+id.String(), nil, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}

func emailTaken(e *APIError) bool {
	if e.Code == "email_exists" {
		return true
	}
	return e.Status == http.StatusUnprocessableEntity &&
		strings.Contains(strings.ToLower(e.Message), "already been registered")
}

func (g *GoTrue) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.serviceKey)
	req.Header.Set("apikey", g.serviceKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeAPIError reads the error shapes GoTrue has used across versions.
func decodeAPIError(status int, data []byte) error {
	var body struct {
		Code      any    `json:"code"`
		ErrorCode string `json:"error_code"`
		Msg       string `json:"msg"`
		Message   string `json:"message"`
		Error     string `json:"error"`
		ErrorDesc string `json:"error_description"`
	}
	_ = json.Unmarshal(data, &body)

	e := &APIError{Status: status, Code: body.ErrorCode}
	if s, ok := body.Code.(string); ok && e.Code == "" {
		e.Code = s
	}
	for _, m := range []string{body.Msg, body.Message, body.ErrorDesc, body.Error} {
		if m != "" {
			e.Message = m
			break
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(data))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
