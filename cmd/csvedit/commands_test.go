package main

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type csvServer struct {
	mu       sync.Mutex
	calls    []string
	bodies   []string
	rejected map[string]string
}

func (s *csvServer) snapshot() ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...), append([]string(nil), s.bodies...)
}

func (s *csvServer) handler() http.Handler {
	r := chi.NewRouter()
	mutate := func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.calls = append(s.calls, r.Method+" "+r.URL.Path)
		s.bodies = append(s.bodies, string(body))
		detail, reject := s.rejected[r.URL.Path]
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if reject {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"`+detail+`"}`)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}
	r.Post("/csv", mutate)
	r.Put("/csv/column/{columnID}", mutate)
	r.Delete("/csv/row/{rowID}", mutate)
	r.Get("/list/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"filename":"sales.csv","size":10,"uploaded_at":"2024-01-15 10:30:00"}]`)
	})
	return r
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	useServer(t, srv)
	return execute(t, "", args...)
}

// useServer points the command at srv and blanks every other setting so host
// variables do not leak in. Tests may set variables again afterwards.
func useServer(t *testing.T, srv *httptest.Server) {
	t.Helper()
	for _, name := range []string{"API_URL", "CSVEDIT_REQUEST_TIMEOUT", "CSVEDIT_USER_AGENT",
		"CSVEDIT_REFRESH_PATH", "CSVEDIT_UPLOAD_FIELD", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(name, "")
	}
	t.Setenv("CSVEDIT_BASE_URL", srv.URL)
}

// execute runs the root command with stdin as its input.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func newServer(t *testing.T, rejected map[string]string) (*csvServer, *httptest.Server) {
	t.Helper()
	s := &csvServer{rejected: rejected}
	srv := httptest.NewServer(s.handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func TestUploadCommand(t *testing.T) {
	s, srv := newServer(t, nil)
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,price\n1,9.99\n"), 0o600))

	out, err := run(t, srv, "upload", path, "--field", "note=q3")
	require.NoError(t, err)

	calls, bodies := s.snapshot()
	assert.Equal(t, []string{"POST /csv"}, calls)
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], `name="csv_file"; filename="sales.csv"`)
	assert.Contains(t, bodies[0], "q3")
	assert.Contains(t, out, "Upload complete.")
	assert.Contains(t, out, "sales.csv")
}

func TestRenameCommand_WithName(t *testing.T) {
	s, srv := newServer(t, nil)

	_, err := run(t, srv, "rename", "price", "--name", "Cost")
	require.NoError(t, err)

	calls, bodies := s.snapshot()
	assert.Equal(t, []string{"PUT /csv/column/price"}, calls)
	assert.Equal(t, []string{`{"new_column_name":"Cost"}`}, bodies)
}

func TestRenameCommand_EmptyName(t *testing.T) {
	s, srv := newServer(t, nil)

	_, err := run(t, srv, "rename", "price", "--name", "")
	require.NoError(t, err)

	_, bodies := s.snapshot()
	assert.Equal(t, []string{`{"new_column_name":""}`}, bodies)
}

func TestRenameCommand_PromptAtEndOfInputCancels(t *testing.T) {
	s, srv := newServer(t, nil)
	useServer(t, srv)

	out, err := execute(t, "", "rename", "price")
	require.NoError(t, err)

	calls, _ := s.snapshot()
	assert.Empty(t, calls)
	assert.Contains(t, out, "Rename cancelled.")
}

func TestRenameCommand_PromptReadsPipedLine(t *testing.T) {
	s, srv := newServer(t, nil)
	useServer(t, srv)

	out, err := execute(t, "Cost\n", "rename", "price")
	require.NoError(t, err)

	calls, bodies := s.snapshot()
	assert.Equal(t, []string{"PUT /csv/column/price"}, calls)
	assert.Equal(t, []string{`{"new_column_name":"Cost"}`}, bodies)
	assert.Contains(t, out, "Enter new column name")
	assert.Contains(t, out, "sales.csv")
}

func TestRenameCommand_PromptEmptyLineIsSent(t *testing.T) {
	s, srv := newServer(t, nil)
	useServer(t, srv)

	_, err := execute(t, "\n", "rename", "price")
	require.NoError(t, err)

	_, bodies := s.snapshot()
	assert.Equal(t, []string{`{"new_column_name":""}`}, bodies)
}

func TestDeleteCommand_Concurrent(t *testing.T) {
	s, srv := newServer(t, map[string]string{"/csv/row/9": "Row not found"})

	out, err := run(t, srv, "delete", "42", "43", "9")

	assert.ErrorIs(t, err, errRejected)
	calls, _ := s.snapshot()
	sort.Strings(calls)
	assert.Equal(t, []string{"DELETE /csv/row/42", "DELETE /csv/row/43", "DELETE /csv/row/9"}, calls)
	assert.Contains(t, out, "Row not found")
}

func TestDeleteCommand_RequestTimeout(t *testing.T) {
	var listed atomic.Int32
	r := chi.NewRouter()
	r.Delete("/csv/row/{rowID}", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	r.Get("/list/", func(w http.ResponseWriter, r *http.Request) {
		listed.Add(1)
		_, _ = io.WriteString(w, `[]`)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	useServer(t, srv)
	t.Setenv("CSVEDIT_REQUEST_TIMEOUT", "50ms")

	_, err := execute(t, "", "delete", "42")

	require.Error(t, err)
	assert.NotErrorIs(t, err, errRejected)
	var netErr net.Error
	require.True(t, errors.As(err, &netErr), "want a net.Error, got %v", err)
	assert.True(t, netErr.Timeout())
	assert.Zero(t, listed.Load(), "a failed action must not refresh")
}

func TestListCommand(t *testing.T) {
	s, srv := newServer(t, nil)

	out, err := run(t, srv, "list")
	require.NoError(t, err)

	calls, _ := s.snapshot()
	assert.Empty(t, calls)
	assert.Contains(t, out, "sales.csv")
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"a=1", "b=x=y", "c="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y", "c": ""}, fields)

	_, err = parseFields([]string{"novalue"})
	assert.Error(t, err)

	fields, err = parseFields(nil)
	require.NoError(t, err)
	assert.Nil(t, fields)
}
