package router_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeLibraryDB answers the library queries from in-memory rows keyed by table.
type fakeLibraryDB struct {
	mu     sync.Mutex
	rows   map[string][][]any
	failed map[string]error
	ids    map[string]string
}

func (db *fakeLibraryDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	table := tableOf(sql)
	if err := db.failed[table]; err != nil {
		return nil, err
	}
	return &fakeRows{data: db.rows[table]}, nil
}

func (db *fakeLibraryDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	db.mu.Lock()
	defer db.mu.Unlock()
	title, _ := args[0].(string)
	if id, ok := db.ids[title]; ok {
		return fakeRow{id: id}
	}
	return fakeRow{err: pgx.ErrNoRows}
}

func tableOf(sql string) string {
	for _, t := range []string{"stories", "prompts", "tools"} {
		if strings.Contains(sql, "FROM "+t+" ") {
			return t
		}
	}
	return ""
}

type fakeRows struct {
	data [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.pos-1], nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	for i, d := range dest {
		*d.(*string) = r.data[r.pos-1][i].(string)
	}
	return nil
}

type fakeRow struct {
	id  string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.id
	return nil
}

// fakeGateway is an OpenAI-compatible completion endpoint.
type fakeGateway struct {
	mu       sync.Mutex
	status   int
	content  string
	requests []map[string]any
}

func (g *fakeGateway) respondWith(status int, content string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status, g.content = status, content
}

func (g *fakeGateway) systemPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		return ""
	}
	messages, _ := g.requests[len(g.requests)-1]["messages"].([]any)
	if len(messages) == 0 {
		return ""
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "system" {
		return ""
	}
	content, _ := first["content"].(string)
	return content
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var captured map[string]any
	_ = json.Unmarshal(raw, &captured)

	g.mu.Lock()
	g.requests = append(g.requests, captured)
	status, content := g.status, g.content
	g.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status != http.StatusOK {
		_, _ = io.WriteString(w, `{"error":{"message":"`+content+`","type":"error"}}`)
		return
	}

	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []any{map[string]any{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	_, _ = w.Write(body)
}
