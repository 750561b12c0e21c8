/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "errors"
    "fmt"
    "sort"
    "strings"

    "github.com/SoorajChandran/mcp-jira-server/internal/config"
    "github.com/SoorajChandran/mcp-jira-server/internal/domain"
    "github.com/rs/zerolog"
)

type JiraClient interface {
    CreateIssue(ctx context.Context, fields map[string]any) (map[string]any, error)
    Issue(ctx context.Context, key string) (map[string]any, error)
    UpdateIssue(ctx context.Context, key string, fields map[string]any) error
    Transitions(ctx context.Context, key string) ([]map[string]any, error)
    DoTransition(ctx context.Context, key, transitionID string) error
    Search(ctx context.Context, jql string, startAt, max int) (map[string]any, error)
}

// Service dispatches command messages against a single shared Jira client.
// It owns no other state; every request is handled independently.
type Service struct {
    cfg  config.Config
    log  zerolog.Logger
    jira JiraClient
}

func NewService(cfg config.Config, log zerolog.Logger, jc JiraClient) *Service {
    return &Service{cfg: cfg, log: log, jira: jc}
}

// Handle routes a decoded message to its command handler and normalizes
// every failure into an error envelope. It never panics on bad input.
func (s *Service) Handle(ctx context.Context, msg domain.Message) domain.Envelope {
    if strings.TrimSpace(msg.Command) == "" {
        return domain.Fail("No command specified")
    }
    var env domain.Envelope
    var err error
    switch msg.Command {
    case "create_issue":
        env, err = s.createIssue(ctx, msg.Data)
    case "get_issue":
        env, err = s.getIssue(ctx, msg.Data)
    case "update_issue":
        env, err = s.updateIssue(ctx, msg.Data)
    case "search_issues":
        env, err = s.searchIssues(ctx, msg.Data)
    case "get_epic_with_subtasks":
        env, err = s.getEpicWithSubtasks(ctx, msg.Data)
    case "get_my_issues":
        env, err = s.getMyIssues(ctx, msg.Data)
    case "get_transitions":
        env, err = s.getTransitions(ctx, msg.Data)
    default:
        return domain.Fail("Unknown command: " + msg.Command)
    }
    if err != nil {
        kind := domain.KindInternal
        var de *domain.Error
        if errors.As(err, &de) { kind = de.Kind }
        s.log.Error().Str("command", msg.Command).Str("kind", string(kind)).Err(err).Msg("command failed")
        return domain.Fail(err.Error())
    }
    return env
}

// upstream tags an error coming back from the Jira API.
func upstream(err error) error {
    if errors.Is(err, context.DeadlineExceeded) {
        return &domain.Error{Kind: domain.KindTimeout, Message: "Request timed out"}
    }
    return &domain.Error{Kind: domain.KindUpstream, Message: err.Error()}
}

func (s *Service) createIssue(ctx context.Context, data map[string]any) (domain.Envelope, error) {
    project := domain.Str(data, "project")
    summary := domain.Str(data, "summary")
    description := domain.Str(data, "description")
    if project == "" || summary == "" || description == "" {
        return domain.Envelope{}, domain.Validationf("Missing required fields")
    }
    issueType := domain.Str(data, "issue_type")
    if issueType == "" { issueType = "Task" }

    fields := map[string]any{
        "project":     map[string]any{"key": project},
        "summary":     summary,
        "description": description,
        "issuetype":   map[string]any{"name": issueType},
    }
    if issueType == "Subtask" {
        parent := domain.Str(data, "parent_issue")
        if parent == "" {
            return domain.Envelope{}, domain.Validationf("Missing parent issue for subtask")
        }
        fields["parent"] = map[string]any{"key": parent}
    }

    res, err := s.jira.CreateIssue(ctx, fields)
    if err != nil { return domain.Envelope{}, upstream(err) }
    return domain.Success(map[string]any{
        "issue_key": toStrAny(res["key"]),
        "issue_id":  toStrAny(res["id"]),
        "self":      toStrAny(res["self"]),
    }), nil
}

func (s *Service) getIssue(ctx context.Context, data map[string]any) (domain.Envelope, error) {
    key := domain.Str(data, "issue_key")
    if key == "" { return domain.Envelope{}, domain.Validationf("Missing issue key") }
    issue, err := s.jira.Issue(ctx, key)
    if err != nil { return domain.Envelope{}, upstream(err) }
    f := issueFields(issue)
    return domain.Success(map[string]any{
        "issue_key":   toStrAny(issue["key"]),
        "summary":     toStrAny(f["summary"]),
        "description": toStrAny(f["description"]),
        "status":      nameOf(f, "status"),
    }), nil
}

func (s *Service) updateIssue(ctx context.Context, data map[string]any) (domain.Envelope, error) {
    key := domain.Str(data, "issue_key")
    if key == "" { return domain.Envelope{}, domain.Validationf("Missing issue key") }

    updateFields := map[string]any{}
    if domain.Has(data, "summary") { updateFields["summary"] = domain.Str(data, "summary") }
    if domain.Has(data, "description") { updateFields["description"] = domain.Str(data, "description") }

    // confirm the issue exists before attempting any mutation
    if _, err := s.jira.Issue(ctx, key); err != nil {
        return domain.Envelope{}, upstream(err)
    }

    if domain.Has(data, "status") {
        target := domain.Str(data, "status")
        transitions, err := s.jira.Transitions(ctx, key)
        if err != nil { return domain.Envelope{}, upstream(err) }
        transitionID := ""
        available := make([]string, 0, len(transitions))
        for _, t := range transitions {
            to := nameOf(t, "to")
            available = append(available, to)
            if strings.EqualFold(to, target) {
                transitionID = toStrAny(t["id"])
                break
            }
        }
        if transitionID == "" {
            return domain.Envelope{}, domain.Businessf(
                "No transition found to status: %s. Available status transitions are: %s",
                target, strings.Join(available, ", "))
        }
        if err := s.jira.DoTransition(ctx, key, transitionID); err != nil {
            return domain.Envelope{}, upstream(err)
        }
    }

    if len(updateFields) > 0 {
        if err := s.jira.UpdateIssue(ctx, key, updateFields); err != nil {
            return domain.Envelope{}, upstream(err)
        }
    }
    return domain.Envelope{Status: "success", Message: "Updated issue " + key}, nil
}

func (s *Service) searchIssues(ctx context.Context, data map[string]any) (domain.Envelope, error) {
    text := domain.Str(data, "search_text")
    if text == "" { return domain.Envelope{}, domain.Validationf("Missing search text") }
    page := clampPage(domain.Int(data, "page", 1))
    pageSize := clampPageSize(domain.Int(data, "page_size", 20), s.cfg.MaxResults)

    jql := searchJQL(text, domain.Bool(data, "title_only"))
    res, err := s.jira.Search(ctx, jql, startAt(page, pageSize), pageSize)
    if err != nil { return domain.Envelope{}, upstream(err) }

    issues := issuesOf(res)
    results := make([]map[string]any, 0, len(issues))
    for _, issue := range issues {
        f := issueFields(issue)
        results = append(results, map[string]any{
            "key":         toStrAny(issue["key"]),
            "summary":     toStrAny(f["summary"]),
            "description": toStrAny(f["description"]),
            "status":      nameOf(f, "status"),
            "created":     toStrAny(f["created"]),
            "updated":     toStrAny(f["updated"]),
            "assignee":    displayNameOrNil(f, "assignee"),
        })
    }
    return domain.Success(map[string]any{
        "issues":     results,
        "pagination": pageInfo(res, page, pageSize),
    }), nil
}

func (s *Service) getEpicWithSubtasks(ctx context.Context, data map[string]any) (domain.Envelope, error) {
    name := domain.Str(data, "epic_name")
    if name == "" { return domain.Envelope{}, domain.Validationf("Missing epic name") }
    page := clampPage(domain.Int(data, "page", 1))
    pageSize := clampPageSize(domain.Int(data, "page_size", 20), s.cfg.MaxResults)

    // top 5 fuzzy matches; an exact (case-insensitive) summary wins
    eres, err := s.jira.Search(ctx, epicJQL(name), 0, 5)
    if err != nil { return domain.Envelope{}, upstream(err) }
    epics := issuesOf(eres)
    if len(epics) == 0 {
        return domain.Envelope{}, domain.Businessf("No epic found with name containing %q", name)
    }
    epic := epics[0]
    for _, e := range epics {
        if strings.EqualFold(toStrAny(issueFields(e)["summary"]), name) { epic = e; break }
    }

    epicKey := toStrAny(epic["key"])
    sres, err := s.jira.Search(ctx, subtasksJQL(epicKey), startAt(page, pageSize), pageSize)
    if err != nil { return domain.Envelope{}, upstream(err) }
    subtasks := issuesOf(sres)
    rows := make([]map[string]any, 0, len(subtasks))
    for _, task := range subtasks {
        f := issueFields(task)
        rows = append(rows, map[string]any{
            "key":         toStrAny(task["key"]),
            "summary":     toStrAny(f["summary"]),
            "description": toStrAny(f["description"]),
            "status":      nameOf(f, "status"),
            "issuetype":   nameOf(f, "issuetype"),
            "created":     toStrAny(f["created"]),
            "updated":     toStrAny(f["updated"]),
            "assignee":    displayNameOrNil(f, "assignee"),
            "priority":    nameOrNil(f, "priority"),
        })
    }

    ef := issueFields(epic)
    return domain.Success(map[string]any{
        "epic": map[string]any{
            "key":         epicKey,
            "summary":     toStrAny(ef["summary"]),
            "description": toStrAny(ef["description"]),
            "status":      nameOf(ef, "status"),
            "created":     toStrAny(ef["created"]),
            "updated":     toStrAny(ef["updated"]),
            "assignee":    displayNameOrNil(ef, "assignee"),
            "reporter":    displayNameOrNil(ef, "reporter"),
            "priority":    nameOrNil(ef, "priority"),
        },
        "subtasks": map[string]any{
            "issues":     rows,
            "pagination": pageInfo(sres, page, pageSize),
        },
    }), nil
}

func (s *Service) getMyIssues(ctx context.Context, data map[string]any) (domain.Envelope, error) {
    page := clampPage(domain.Int(data, "page", 1))
    pageSize := clampPageSize(domain.Int(data, "page_size", 20), s.cfg.MaxResults)
    filter := myIssuesFilter{
        Status:    domain.Str(data, "status"),
        Project:   domain.Str(data, "project"),
        SortBy:    domain.Str(data, "sort_by"),
        SortOrder: domain.Str(data, "sort_order"),
    }
    if filter.SortBy == "" { filter.SortBy = "updated" }
    if filter.SortOrder == "" { filter.SortOrder = "desc" }

    res, err := s.jira.Search(ctx, myIssuesJQL(filter), startAt(page, pageSize), pageSize)
    if err != nil { return domain.Envelope{}, upstream(err) }

    issues := issuesOf(res)
    results := make([]map[string]any, 0, len(issues))
    for _, issue := range issues {
        f := issueFields(issue)
        project := child(f, "project")
        issuetype := child(f, "issuetype")
        subtask, _ := issuetype["subtask"].(bool)
        results = append(results, map[string]any{
            "key":         toStrAny(issue["key"]),
            "summary":     toStrAny(f["summary"]),
            "description": toStrAny(f["description"]),
            "status":      nameOf(f, "status"),
            "created":     toStrAny(f["created"]),
            "updated":     toStrAny(f["updated"]),
            "priority":    nameOrNil(f, "priority"),
            "project": map[string]any{
                "key":  toStrAny(project["key"]),
                "name": toStrAny(project["name"]),
            },
            "issuetype": map[string]any{
                "name":    toStrAny(issuetype["name"]),
                "subtask": subtask,
            },
            "duedate": strOrNil(f["duedate"]),
        })
    }
    return domain.Success(map[string]any{
        "issues":     results,
        "pagination": pageInfo(res, page, pageSize),
    }), nil
}

func (s *Service) getTransitions(ctx context.Context, data map[string]any) (domain.Envelope, error) {
    key := domain.Str(data, "issue_key")
    if key == "" { return domain.Envelope{}, domain.Validationf("Missing issue key") }

    issue, err := s.jira.Issue(ctx, key)
    if err != nil { return domain.Envelope{}, upstream(err) }
    current := nameOf(issueFields(issue), "status")

    transitions, err := s.jira.Transitions(ctx, key)
    if err != nil { return domain.Envelope{}, upstream(err) }

    seen := map[string]struct{}{}
    next := make([]string, 0, len(transitions))
    details := make([]map[string]any, 0, len(transitions))
    for _, t := range transitions {
        to := nameOf(t, "to")
        if _, ok := seen[to]; !ok { seen[to] = struct{}{}; next = append(next, to) }
        details = append(details, map[string]any{
            "id":          toStrAny(t["id"]),
            "name":        toStrAny(t["name"]),
            "from_status": current,
            "to_status":   to,
        })
    }
    sort.Strings(next)

    return domain.Success(map[string]any{
        "issue_key":      key,
        "current_status": current,
        "available_transitions": map[string]any{
            "current":                current,
            "possible_next_statuses": next,
            "details":                details,
        },
    }), nil
}

// ---- result shaping helpers ----

func toStrAny(v any) string {
    if v == nil { return "" }
    if s, ok := v.(string); ok { return s }
    return fmt.Sprintf("%v", v)
}

func issueFields(issue map[string]any) map[string]any { return child(issue, "fields") }

func child(m map[string]any, key string) map[string]any {
    if m == nil { return map[string]any{} }
    c, _ := m[key].(map[string]any)
    if c == nil { return map[string]any{} }
    return c
}

// nameOf reads the "name" of a nested object field (status, issuetype, ...).
func nameOf(m map[string]any, key string) string { return toStrAny(child(m, key)["name"]) }

// nameOrNil is nameOf but preserves JSON null for absent objects.
func nameOrNil(m map[string]any, key string) any {
    if m[key] == nil { return nil }
    return nameOf(m, key)
}

// displayNameOrNil flattens a user object to its display name, null when unset.
func displayNameOrNil(m map[string]any, key string) any {
    if m[key] == nil { return nil }
    u := child(m, key)
    if dn := toStrAny(u["displayName"]); dn != "" { return dn }
    return toStrAny(u["name"])
}

func strOrNil(v any) any {
    if v == nil { return nil }
    return toStrAny(v)
}

func issuesOf(res map[string]any) []map[string]any {
    arr, _ := res["issues"].([]any)
    out := make([]map[string]any, 0, len(arr))
    for _, i0 := range arr {
        if im, _ := i0.(map[string]any); im != nil { out = append(out, im) }
    }
    return out
}

func pageInfo(res map[string]any, page, pageSize int) domain.Pagination {
    total := 0
    switch v := res["total"].(type) {
    case float64:
        total = int(v)
    case int:
        total = v
    }
    return domain.Pagination{Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages(total, pageSize)}
}
