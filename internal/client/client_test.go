package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/cutout/internal/domain"
	"github.com/mmcdole/cutout/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempImage(t *testing.T, name string, size int) domain.SelectedFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	data := []byte(strings.Repeat("x", size))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return domain.SelectedFile{Path: path, Name: name, Size: int64(size), MimeType: domain.MimePNG}
}

// progressRecorder collects progress callbacks
type progressRecorder struct {
	mu     sync.Mutex
	values []int
}

func (p *progressRecorder) record(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = append(p.values, percent)
}

func (p *progressRecorder) snapshot() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.values...)
}

func newTestClient(url string) *Client {
	return NewClient(url, 5*time.Second, log.NullLogger())
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("http://localhost:8000/api/", 0, nil)
	assert.Equal(t, "http://localhost:8000/api", c.BaseURL())
	assert.Equal(t, defaultTimeout, c.httpClient.Timeout)
	assert.NotNil(t, c.logger)
}

func TestRemoveBackground_SendsSingleFileField(t *testing.T) {
	file := tempImage(t, "cat.png", 4096)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/remove-background", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(headerRequestID))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File[FieldSingle]
		require.Len(t, files, 1)
		assert.Equal(t, "cat.png", files[0].Filename)
		assert.Equal(t, domain.MimePNG, files[0].Header.Get("Content-Type"))
		assert.Equal(t, int64(4096), files[0].Size)
		assert.Empty(t, r.MultipartForm.File[FieldBatch])

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", "attachment; filename=cat_no_bg.png")
		_, _ = w.Write([]byte("processed-png"))
	}))
	defer server.Close()

	rec := &progressRecorder{}
	resp, err := newTestClient(server.URL+"/api").RemoveBackground(context.Background(), file, rec.record)
	require.NoError(t, err)

	assert.Equal(t, []byte("processed-png"), resp.Body)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.Equal(t, "cat_no_bg.png", resp.Filename)
	assert.NotEmpty(t, resp.RequestID)

	values := rec.snapshot()
	require.NotEmpty(t, values)
	assert.Equal(t, 100, values[len(values)-1])
}

func TestRemoveBackgroundBatch_RepeatsFilesField(t *testing.T) {
	a := tempImage(t, "a.png", 1000)
	b := tempImage(t, "b.jpg", 2000)
	b.MimeType = domain.MimeJPEG

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/remove-background-batch", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File[FieldBatch]
		require.Len(t, files, 2)
		assert.Equal(t, "a.png", files[0].Filename)
		assert.Equal(t, "b.jpg", files[1].Filename)
		assert.Equal(t, domain.MimeJPEG, files[1].Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write([]byte("PK\x03\x04zip"))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).RemoveBackgroundBatch(context.Background(), []domain.SelectedFile{a, b}, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/zip", resp.ContentType)
	assert.Equal(t, []byte("PK\x03\x04zip"), resp.Body)
}

func TestRemoveBackgroundBatch_EmptySelection(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").RemoveBackgroundBatch(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrNoFiles)
}

func TestUpload_ProgressIsMonotonic(t *testing.T) {
	file := tempImage(t, "big.png", 512*1024)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	rec := &progressRecorder{}
	_, err := newTestClient(server.URL).RemoveBackground(context.Background(), file, rec.record)
	require.NoError(t, err)

	values := rec.snapshot()
	require.NotEmpty(t, values)
	for i := 1; i < len(values); i++ {
		assert.Greater(t, values[i], values[i-1], "progress must grow: %v", values)
	}
	for _, v := range values {
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 100)
	}
	assert.Equal(t, 100, values[len(values)-1])
}

func TestUpload_ErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantMsg    string
	}{
		{
			name:       "string detail",
			status:     http.StatusBadRequest,
			body:       `{"detail": "Only PNG, JPG, and JPEG files are supported"}`,
			wantDetail: "Only PNG, JPG, and JPEG files are supported",
			wantMsg:    "Only PNG, JPG, and JPEG files are supported",
		},
		{
			name:       "validation list detail",
			status:     http.StatusUnprocessableEntity,
			body:       `{"detail": [{"loc": ["body", "file"], "msg": "field required"}, {"msg": "value is not a file"}]}`,
			wantDetail: "field required; value is not a file",
			wantMsg:    "field required; value is not a file",
		},
		{
			name:    "no detail field",
			status:  http.StatusInternalServerError,
			body:    `{"error": "boom"}`,
			wantMsg: "request failed with status code 500",
		},
		{
			name:    "non-json body",
			status:  http.StatusBadGateway,
			body:    "<html>bad gateway</html>",
			wantMsg: "request failed with status code 502",
		},
		{
			name:    "null detail",
			status:  http.StatusInternalServerError,
			body:    `{"detail": null}`,
			wantMsg: "request failed with status code 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := tempImage(t, "cat.png", 64)

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			resp, err := newTestClient(server.URL).RemoveBackground(context.Background(), file, nil)
			require.Error(t, err)
			assert.Nil(t, resp)

			var reqErr *domain.RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.status, reqErr.StatusCode)
			assert.Equal(t, tt.wantDetail, reqErr.Detail)
			assert.Equal(t, tt.wantMsg, domain.UserMessage(err))
		})
	}
}

func TestUpload_TransportFailure(t *testing.T) {
	file := tempImage(t, "cat.png", 64)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).RemoveBackground(context.Background(), file, nil)
	require.Error(t, err)

	var reqErr *domain.RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 0, reqErr.StatusCode)
	assert.Empty(t, reqErr.Detail)
	assert.ErrorIs(t, err, domain.ErrServerOffline)
	assert.Contains(t, domain.UserMessage(err), "connection refused")
}

func TestUpload_ContextCancellation(t *testing.T) {
	file := tempImage(t, "cat.png", 64)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL).RemoveBackground(ctx, file, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUpload_MissingFile(t *testing.T) {
	file := domain.SelectedFile{Path: filepath.Join(t.TempDir(), "gone.png"), Name: "gone.png"}

	_, err := newTestClient("http://127.0.0.1:1").RemoveBackground(context.Background(), file, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open image")
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/health", r.URL.Path)
			_, _ = w.Write([]byte(`{"status": "healthy"}`))
		}))
		defer server.Close()

		assert.NoError(t, newTestClient(server.URL+"/api").Health(context.Background()))
	})

	t.Run("unhealthy status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status": "degraded"}`))
		}))
		defer server.Close()

		err := newTestClient(server.URL).Health(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "degraded")
	})

	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		err := newTestClient(server.URL).Health(context.Background())
		var reqErr *domain.RequestError
		require.True(t, errors.As(err, &reqErr))
		assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	})

	t.Run("offline", func(t *testing.T) {
		err := newTestClient("http://127.0.0.1:1").Health(context.Background())
		assert.ErrorIs(t, err, domain.ErrServerOffline)
	})
}

func TestPercent(t *testing.T) {
	tests := []struct {
		sent, total int64
		want        int
	}{
		{0, 100, 0},
		{1, 3, 33},
		{2, 3, 66},
		{99, 100, 99},
		{100, 100, 100},
		{150, 100, 100},
		{10, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percent(tt.sent, tt.total), "Percent(%d, %d)", tt.sent, tt.total)
	}
}

func TestProgressReader_SkipsRepeats(t *testing.T) {
	var got []int
	r := newProgressReader(strings.NewReader(strings.Repeat("a", 1000)), 1000, func(p int) {
		got = append(got, p)
	})

	buf := make([]byte, 3)
	for {
		_, err := r.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i], got[i-1])
	}
	assert.Equal(t, 100, got[len(got)-1])
}

func TestParseDetail(t *testing.T) {
	assert.Equal(t, "boom", parseDetail([]byte(`{"detail":"boom"}`)))
	assert.Equal(t, "", parseDetail([]byte(`{}`)))
	assert.Equal(t, "", parseDetail([]byte(`not json`)))
	assert.Equal(t, `{"code":7}`, parseDetail([]byte(`{"detail":{"code":7}}`)))
}
