/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strings"

    "github.com/SoorajChandran/mcp-jira-server/internal/config"
    "github.com/rs/zerolog"
)

type Client struct {
    baseURL string
    user    string
    token   string
    pat     string
    http    *http.Client
    log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{
        baseURL: cfg.JiraBaseURL,
        user:    cfg.JiraUser,
        token:   cfg.JiraToken,
        pat:     cfg.JiraPAT,
        http:    &http.Client{ Timeout: cfg.RequestTimeout },
        log:     log,
    }
}

func (c *Client) apiURL(path string, q url.Values) string {
    base := strings.TrimRight(c.baseURL, "/")
    if !strings.HasPrefix(path, "/") { path = "/" + path }
    u := base + path
    if len(q) > 0 { u = u + "?" + q.Encode() }
    return u
}

func (c *Client) doJSON(ctx context.Context, method, u string, body any) (map[string]any, error) {
    if c.baseURL == "" { return nil, errors.New("jira: empty baseURL") }
    var r io.Reader
    if body != nil {
        b, err := json.Marshal(body)
        if err != nil { return nil, err }
        r = strings.NewReader(string(b))
    }
    req, err := http.NewRequestWithContext(ctx, method, u, r)
    if err != nil { return nil, err }
    if body != nil { req.Header.Set("Content-Type", "application/json") }
    if c.pat != "" {
        req.Header.Set("Authorization", "Bearer "+c.pat)
    } else {
        req.SetBasicAuth(c.user, c.token)
    }
    resp, err := c.http.Do(req)
    if err != nil { return nil, err }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        b, _ := io.ReadAll(resp.Body)
        return nil, fmt.Errorf("JIRA API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(b)))
    }
    // mutation endpoints answer 204 with no body
    if resp.StatusCode == http.StatusNoContent {
        return map[string]any{}, nil
    }
    var out map[string]any
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
        if errors.Is(err, io.EOF) { return map[string]any{}, nil }
        return nil, err
    }
    return out, nil
}

// Myself reports the authenticated user; used as the liveness probe.
func (c *Client) Myself(ctx context.Context) (map[string]any, error) {
    return c.doJSON(ctx, http.MethodGet, c.apiURL("/rest/api/2/myself", nil), nil)
}

// CreateIssue creates an issue from a Jira fields object and returns {id, key, self}.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]any) (map[string]any, error) {
    if len(fields) == 0 { return nil, errors.New("jira: empty fields") }
    body := map[string]any{"fields": fields}
    return c.doJSON(ctx, http.MethodPost, c.apiURL("/rest/api/2/issue", nil), body)
}

// Issue fetches a single issue with full fields.
func (c *Client) Issue(ctx context.Context, key string) (map[string]any, error) {
    if key == "" { return nil, errors.New("jira: empty issue key") }
    q := url.Values{}
    q.Set("fields", "*all")
    u := c.apiURL("/rest/api/2/issue/"+url.PathEscape(key), q)
    return c.doJSON(ctx, http.MethodGet, u, nil)
}

// UpdateIssue sets fields on an existing issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
    if key == "" { return errors.New("jira: empty issue key") }
    if len(fields) == 0 { return nil }
    body := map[string]any{"fields": fields}
    _, err := c.doJSON(ctx, http.MethodPut, c.apiURL("/rest/api/2/issue/"+url.PathEscape(key), nil), body)
    return err
}

// Transitions lists the workflow transitions currently available on an issue.
func (c *Client) Transitions(ctx context.Context, key string) ([]map[string]any, error) {
    if key == "" { return nil, errors.New("jira: empty issue key") }
    u := c.apiURL("/rest/api/2/issue/"+url.PathEscape(key)+"/transitions", nil)
    out, err := c.doJSON(ctx, http.MethodGet, u, nil)
    if err != nil { return nil, err }
    arr, _ := out["transitions"].([]any)
    ts := make([]map[string]any, 0, len(arr))
    for _, t0 := range arr {
        if t, _ := t0.(map[string]any); t != nil { ts = append(ts, t) }
    }
    return ts, nil
}

// DoTransition applies a transition by id.
func (c *Client) DoTransition(ctx context.Context, key, transitionID string) error {
    if key == "" { return errors.New("jira: empty issue key") }
    if transitionID == "" { return errors.New("jira: empty transition id") }
    body := map[string]any{"transition": map[string]any{"id": transitionID}}
    u := c.apiURL("/rest/api/2/issue/"+url.PathEscape(key)+"/transitions", nil)
    _, err := c.doJSON(ctx, http.MethodPost, u, body)
    return err
}

// Search runs a JQL query with offset/limit and returns the raw page,
// including the server-side total.
func (c *Client) Search(ctx context.Context, jql string, startAt, max int) (map[string]any, error) {
    if jql == "" { return nil, errors.New("jira: empty jql") }
    q := url.Values{}
    q.Set("jql", jql)
    q.Set("validateQuery", "true")
    if startAt > 0 { q.Set("startAt", fmt.Sprint(startAt)) }
    if max > 0 { q.Set("maxResults", fmt.Sprint(max)) }
    q.Set("fields", "*all")
    u := c.apiURL("/rest/api/2/search", q)
    return c.doJSON(ctx, http.MethodGet, u, nil)
}
