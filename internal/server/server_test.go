package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dygy/scorepipe/internal/pipeline"
)

// fakeRun stands in for the real pipeline: it writes one artifact of each
// kind into outputDir.
func fakeRun(ctx context.Context, inputPath, outputDir string, out io.Writer) (*pipeline.Artifacts, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}
	base := filepath.Base(inputPath)
	stem := base[:len(base)-len(filepath.Ext(base))]
	arts := &pipeline.Artifacts{
		Input:    inputPath,
		Notation: filepath.Join(outputDir, stem+".xml"),
		PDF:      filepath.Join(outputDir, stem+".pdf"),
		MIDI:     filepath.Join(outputDir, stem+".mid"),
		MP3:      filepath.Join(outputDir, stem+".mp3"),
	}
	for _, p := range []string{arts.Notation, arts.PDF, arts.MIDI, arts.MP3} {
		if err := os.WriteFile(p, []byte("artifact"), 0644); err != nil {
			return nil, err
		}
	}
	return arts, nil
}

func newTestServer(t *testing.T, run RunFunc) *Server {
	t.Helper()
	s, err := New(Config{Port: 0})
	require.NoError(t, err)
	if run != nil {
		s.jobs.run = run
	}
	return s
}

func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("sheet", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func waitForJob(t *testing.T, m *JobManager, id string) JobStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, _, _ := m.Get(id).snapshot()
		if status == StatusComplete || status == StatusFailed {
			return status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return ""
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "upload")
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, multipartUpload(t, "notes.txt", []byte("not a score")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unsupported format")
}

func TestUploadRejectsMissingFile(t *testing.T) {
	s := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadFlow(t *testing.T) {
	s := newTestServer(t, fakeRun)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, multipartUpload(t, "sonata.pdf", []byte("%PDF-1.4")))
	require.Equal(t, http.StatusOK, rec.Code)

	// The processing page carries the job ID; grab it from the manager.
	s.jobs.mu.RLock()
	require.Len(t, s.jobs.jobs, 1)
	var job *Job
	for _, j := range s.jobs.jobs {
		job = j
	}
	s.jobs.mu.RUnlock()
	t.Cleanup(func() { job.Workspace.Cleanup() })

	assert.Contains(t, rec.Body.String(), job.ID)
	assert.Equal(t, "sonata.pdf", job.Filename)

	status := waitForJob(t, s.jobs, job.ID)
	require.Equal(t, StatusComplete, status)

	t.Run("Status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/"+job.ID, nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp statusResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, StatusComplete, resp.Status)
		assert.Empty(t, resp.Error)
	})

	t.Run("Result", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/result/"+job.ID, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "sonata.mp3")
	})

	t.Run("Download", func(t *testing.T) {
		for _, kind := range []string{"notation", "pdf", "midi", "mp3"} {
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+job.ID+"/"+kind, nil))
			require.Equal(t, http.StatusOK, rec.Code, kind)
			assert.Equal(t, "artifact", rec.Body.String(), kind)
		}
	})

	t.Run("DownloadUnknownKind", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/"+job.ID+"/wav", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUploadFailedJob(t *testing.T) {
	failRun := func(ctx context.Context, inputPath, outputDir string, out io.Writer) (*pipeline.Artifacts, error) {
		return nil, fmt.Errorf("recognition produced nothing")
	}
	s := newTestServer(t, failRun)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, multipartUpload(t, "sonata.pdf", []byte("%PDF-1.4")))
	require.Equal(t, http.StatusOK, rec.Code)

	s.jobs.mu.RLock()
	var job *Job
	for _, j := range s.jobs.jobs {
		job = j
	}
	s.jobs.mu.RUnlock()
	require.NotNil(t, job)
	t.Cleanup(func() { job.Workspace.Cleanup() })

	status := waitForJob(t, s.jobs, job.ID)
	assert.Equal(t, StatusFailed, status)

	recStatus := httptest.NewRecorder()
	s.router.ServeHTTP(recStatus, httptest.NewRequest(http.MethodGet, "/status/"+job.ID, nil))

	var resp statusResponse
	require.NoError(t, json.Unmarshal(recStatus.Body.Bytes(), &resp))
	assert.Equal(t, StatusFailed, resp.Status)
	assert.Contains(t, resp.Error, "recognition produced nothing")

	recDl := httptest.NewRecorder()
	s.router.ServeHTTP(recDl, httptest.NewRequest(http.MethodGet, "/download/"+job.ID+"/mp3", nil))
	assert.Equal(t, http.StatusConflict, recDl.Code)
}

func TestStatusUnknownJob(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/12345", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadUnknownJob(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/12345/mp3", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
