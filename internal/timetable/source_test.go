package timetable

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSourceURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"drive share link",
			"https://drive.google.com/file/d/1AbC_dEf/view?usp=sharing",
			"https://drive.google.com/uc?export=download&id=1AbC_dEf",
		},
		{
			"sheets link",
			"https://docs.google.com/spreadsheets/d/1XyZ/edit#gid=0",
			"https://docs.google.com/spreadsheets/d/1XyZ/export?format=xlsx",
		},
		{
			"plain url passes through",
			"https://example.edu/timetable.xlsx",
			"https://example.edu/timetable.xlsx",
		},
		{
			"local path passes through",
			"/tmp/timetable.xlsx",
			"/tmp/timetable.xlsx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveSourceURL(tt.in))
		})
	}
}

func TestFetchSourceLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timetable.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o600))

	rc, err := FetchSource(context.Background(), path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestFetchSourceMissingLocalFile(t *testing.T) {
	_, err := FetchSource(context.Background(), filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestFetchSourceHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("remote payload"))
	}))
	defer srv.Close()

	rc, err := FetchSource(context.Background(), srv.URL)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "remote payload", string(data))
}

func TestFetchSourceHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := FetchSource(context.Background(), srv.URL)
	assert.Error(t, err)
}
