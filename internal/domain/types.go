package domain

import (
    "fmt"
    "strconv"
)

// Message is the decoded body of a POST /mcp request.
type Message struct {
    Command string         `json:"command"`
    Data    map[string]any `json:"data"`
}

// Envelope is the uniform response shape for every command.
// Exactly one of Data/Message is populated depending on Status.
type Envelope struct {
    Status  string         `json:"status"`
    Data    map[string]any `json:"data,omitempty"`
    Message string         `json:"message,omitempty"`
}

func Success(data map[string]any) Envelope { return Envelope{Status: "success", Data: data} }
func Fail(msg string) Envelope             { return Envelope{Status: "error", Message: msg} }

type Pagination struct {
    Total      int `json:"total"`
    Page       int `json:"page"`
    PageSize   int `json:"page_size"`
    TotalPages int `json:"total_pages"`
}

// ErrKind classifies command handler failures.
type ErrKind string

const (
    KindValidation ErrKind = "validation"
    KindBusiness   ErrKind = "business"
    KindUpstream   ErrKind = "upstream"
    KindTimeout    ErrKind = "timeout"
    KindInternal   ErrKind = "internal"
)

// Error is the kind-tagged error returned by every command handler.
type Error struct {
    Kind    ErrKind
    Message string
}

func (e *Error) Error() string { return e.Message }

func Validationf(format string, args ...any) *Error { return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)} }
func Businessf(format string, args ...any) *Error   { return &Error{Kind: KindBusiness, Message: fmt.Sprintf(format, args...)} }
func Upstreamf(format string, args ...any) *Error   { return &Error{Kind: KindUpstream, Message: fmt.Sprintf(format, args...)} }

// ---- loose payload coercions ----
// Message.Data comes straight out of encoding/json, so numbers are float64
// and every field needs defensive extraction.

func Str(data map[string]any, key string) string {
    if data == nil { return "" }
    if s, ok := data[key].(string); ok { return s }
    return ""
}

func Bool(data map[string]any, key string) bool {
    if data == nil { return false }
    if b, ok := data[key].(bool); ok { return b }
    return false
}

func Int(data map[string]any, key string, def int) int {
    if data == nil { return def }
    switch v := data[key].(type) {
    case float64:
        return int(v)
    case int:
        return v
    case string:
        if n, err := strconv.Atoi(v); err == nil { return n }
    }
    return def
}

// Has reports whether the key is present at all, regardless of value.
func Has(data map[string]any, key string) bool {
    if data == nil { return false }
    _, ok := data[key]
    return ok
}
