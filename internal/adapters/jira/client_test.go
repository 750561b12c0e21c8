package jira

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/SoorajChandran/mcp-jira-server/internal/config"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
    t.Helper()
    srv := httptest.NewServer(handler)
    t.Cleanup(srv.Close)
    cfg := config.Config{
        JiraBaseURL:    srv.URL,
        JiraUser:       "bot@example.com",
        JiraToken:      "secret-token",
        RequestTimeout: 2 * time.Second,
    }
    return NewClient(cfg, zerolog.Nop()), srv
}

func TestMyself_SendsBasicAuth(t *testing.T) {
    c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, "/rest/api/2/myself", r.URL.Path)
        user, pass, ok := r.BasicAuth()
        assert.True(t, ok)
        assert.Equal(t, "bot@example.com", user)
        assert.Equal(t, "secret-token", pass)
        _ = json.NewEncoder(w).Encode(map[string]any{"name": "bot"})
    })
    out, err := c.Myself(context.Background())
    require.NoError(t, err)
    assert.Equal(t, "bot", out["name"])
}

func TestBearerTokenPreferred(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, "Bearer pat-123", r.Header.Get("Authorization"))
        _, _ = w.Write([]byte(`{}`))
    }))
    defer srv.Close()
    cfg := config.Config{JiraBaseURL: srv.URL, JiraUser: "u", JiraToken: "t", JiraPAT: "pat-123", RequestTimeout: 2 * time.Second}
    c := NewClient(cfg, zerolog.Nop())
    _, err := c.Myself(context.Background())
    require.NoError(t, err)
}

func TestCreateIssue(t *testing.T) {
    c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, http.MethodPost, r.Method)
        assert.Equal(t, "/rest/api/2/issue", r.URL.Path)
        assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
        var body map[string]any
        require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
        fields := body["fields"].(map[string]any)
        assert.Equal(t, "A task", fields["summary"])
        w.WriteHeader(http.StatusCreated)
        _ = json.NewEncoder(w).Encode(map[string]any{"id": "10001", "key": "PROJ-1", "self": "x"})
    })
    out, err := c.CreateIssue(context.Background(), map[string]any{"summary": "A task"})
    require.NoError(t, err)
    assert.Equal(t, "PROJ-1", out["key"])
}

func TestSearch_QueryParams(t *testing.T) {
    c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, "/rest/api/2/search", r.URL.Path)
        q := r.URL.Query()
        assert.Equal(t, `summary ~ "x"`, q.Get("jql"))
        assert.Equal(t, "40", q.Get("startAt"))
        assert.Equal(t, "20", q.Get("maxResults"))
        assert.Equal(t, "true", q.Get("validateQuery"))
        assert.Equal(t, "*all", q.Get("fields"))
        _ = json.NewEncoder(w).Encode(map[string]any{"total": 0, "issues": []any{}})
    })
    out, err := c.Search(context.Background(), `summary ~ "x"`, 40, 20)
    require.NoError(t, err)
    assert.Equal(t, float64(0), out["total"])
}

func TestUpdateIssue_ToleratesNoContent(t *testing.T) {
    c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, http.MethodPut, r.Method)
        assert.Equal(t, "/rest/api/2/issue/PROJ-1", r.URL.Path)
        w.WriteHeader(http.StatusNoContent)
    })
    err := c.UpdateIssue(context.Background(), "PROJ-1", map[string]any{"summary": "s"})
    require.NoError(t, err)
}

func TestDoTransition(t *testing.T) {
    c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, http.MethodPost, r.Method)
        assert.Equal(t, "/rest/api/2/issue/PROJ-1/transitions", r.URL.Path)
        var body map[string]any
        require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
        tr := body["transition"].(map[string]any)
        assert.Equal(t, "21", tr["id"])
        w.WriteHeader(http.StatusNoContent)
    })
    require.NoError(t, c.DoTransition(context.Background(), "PROJ-1", "21"))
}

func TestTransitions_Unwrapped(t *testing.T) {
    c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, "/rest/api/2/issue/PROJ-1/transitions", r.URL.Path)
        _, _ = w.Write([]byte(`{"transitions":[{"id":"11","name":"Start","to":{"name":"In Progress"}}]}`))
    })
    ts, err := c.Transitions(context.Background(), "PROJ-1")
    require.NoError(t, err)
    require.Len(t, ts, 1)
    assert.Equal(t, "11", ts[0]["id"])
}

func TestErrorSurfacesStatusAndBody(t *testing.T) {
    c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusNotFound)
        _, _ = w.Write([]byte(`{"errorMessages":["Issue does not exist"]}`))
    })
    _, err := c.Issue(context.Background(), "PROJ-404")
    require.Error(t, err)
    assert.Contains(t, err.Error(), "JIRA API error: 404")
    assert.Contains(t, err.Error(), "Issue does not exist")
}

func TestEmptyInputs(t *testing.T) {
    c := NewClient(config.Config{JiraBaseURL: "http://jira.local", RequestTimeout: time.Second}, zerolog.Nop())
    _, err := c.Issue(context.Background(), "")
    assert.Error(t, err)
    _, err = c.Search(context.Background(), "", 0, 0)
    assert.Error(t, err)
    assert.Error(t, c.DoTransition(context.Background(), "PROJ-1", ""))
}
