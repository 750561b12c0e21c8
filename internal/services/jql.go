/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "fmt"
    "strings"
)

// JQL construction is kept as pure functions so the query text is testable
// without a Jira server. User-supplied text is escaped before interpolation
// into quoted JQL literals.

func escapeJQL(s string) string {
    s = strings.ReplaceAll(s, `\`, `\\`)
    s = strings.ReplaceAll(s, `"`, `\"`)
    return s
}

func quoteJQL(s string) string { return `"` + escapeJQL(s) + `"` }

// searchJQL matches summary (titleOnly) or summary-or-description, always
// excluding epics; epics are reachable only through epicJQL.
func searchJQL(text string, titleOnly bool) string {
    q := quoteJQL(text)
    if titleOnly {
        return fmt.Sprintf("summary ~ %s AND issuetype != Epic", q)
    }
    return fmt.Sprintf("(summary ~ %s OR description ~ %s) AND issuetype != Epic", q, q)
}

// epicJQL finds epics by exact or fuzzy summary match.
func epicJQL(name string) string {
    q := quoteJQL(name)
    return fmt.Sprintf("issuetype = Epic AND (summary ~ %s OR summary = %s)", q, q)
}

func subtasksJQL(epicKey string) string {
    return fmt.Sprintf("\"Epic Link\" = %s ORDER BY created DESC", epicKey)
}

type myIssuesFilter struct {
    Status    string
    Project   string
    SortBy    string
    SortOrder string
}

var sortableFields = map[string]bool{
    "created": true, "updated": true, "priority": true, "status": true, "duedate": true,
}

// myIssuesJQL builds the current-user listing query. Conjunctive filters are
// joined with AND; sorting is applied only for the known sortable fields.
func myIssuesJQL(f myIssuesFilter) string {
    parts := []string{"assignee = currentUser()"}
    if f.Status != "" { parts = append(parts, "status = "+quoteJQL(f.Status)) }
    if f.Project != "" { parts = append(parts, "project = "+quoteJQL(f.Project)) }
    jql := strings.Join(parts, " AND ")
    if sortableFields[f.SortBy] {
        order := "DESC"
        if strings.EqualFold(f.SortOrder, "asc") { order = "ASC" }
        jql += fmt.Sprintf(" ORDER BY %s %s", f.SortBy, order)
    }
    return jql
}

// ---- pagination arithmetic ----

func clampPage(page int) int {
    if page < 1 { return 1 }
    return page
}

func clampPageSize(size, max int) int {
    if size <= 0 { size = 20 }
    if size > max { return max }
    return size
}

func startAt(page, pageSize int) int { return (page - 1) * pageSize }

func totalPages(total, pageSize int) int {
    if pageSize <= 0 { return 0 }
    return (total + pageSize - 1) / pageSize
}
