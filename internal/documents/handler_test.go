package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-tailor/internal/documents"
	"resume-tailor/internal/shared/docxtest"
	"resume-tailor/resume/model"
)

type fakeRecords map[string]model.Record

func (f fakeRecords) Load(id string) (model.Record, error) {
	r, ok := f[id]
	if !ok {
		return model.Record{}, documents.ErrNotFound
	}
	return r, nil
}

type presigningMirror struct{}

func (presigningMirror) Put(ctx context.Context, key, contentType string, r io.Reader) (int64, error) {
	return 0, nil
}

func (presigningMirror) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (presigningMirror) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://mirror.test/" + key, nil
}

func newRouter(t *testing.T, svc *documents.Service, recs fakeRecords) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	documents.NewHandler(svc, recs).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func multipartBody(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadListDeleteBaseResume(t *testing.T) {
	dir := t.TempDir()
	svc := &documents.Service{BaseResumeDir: filepath.Join(dir, "BaseResumes"), ResultsDir: filepath.Join(dir, "Results")}
	router := newRouter(t, svc, nil)

	docx, err := docxtest.Build(docxtest.Spec{Body: docxtest.P(docxtest.R("Ava Smith, Go engineer"))})
	require.NoError(t, err)
	body, contentType := multipartBody(t, "Ava Resume.docx", docx)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/base-resumes", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created documents.Document
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, "Ava Resume.docx", created.FileName)
	assert.EqualValues(t, len(docx), created.SizeBytes)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/base-resumes", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	var listed struct {
		Items []documents.Document `json:"items"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listed))
	require.Len(t, listed.Items, 1)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodDelete, "/api/v1/base-resumes/Ava%20Resume.docx", nil))
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.NoFileExists(t, filepath.Join(svc.BaseResumeDir, "Ava Resume.docx"))
}

func TestUploadRejectsUnreadableResume(t *testing.T) {
	dir := t.TempDir()
	svc := &documents.Service{BaseResumeDir: dir}
	router := newRouter(t, svc, nil)

	for _, name := range []string{"notes.txt", "broken.docx"} {
		body, contentType := multipartBody(t, name, []byte("plain text"))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/base-resumes", body)
		req.Header.Set("Content-Type", contentType)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusBadRequest, resp.Code, name)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadResult(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Acme Resume.pdf"), []byte("%PDF-1.4"), 0o644))
	svc := &documents.Service{ResultsDir: dir}
	router := newRouter(t, svc, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/results/Acme%20Resume.pdf", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "%PDF-1.4", resp.Body.String())
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "attachment")

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/results/missing.pdf", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/results", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Acme Resume.pdf")
}

func TestLinksPresignsPromotedFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Acme Resume.docx", "Acme Resume.pdf", "Acme Cover Letter.docx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	svc := &documents.Service{ResultsDir: dir, Mirror: presigningMirror{}, Now: func() time.Time { return now }}
	recs := fakeRecords{"Acme": {Meta: model.Meta{
		FileName:        "Acme",
		ResumePath:      filepath.Join(dir, "Acme Resume.docx"),
		CoverLetterPath: filepath.Join(dir, "Acme Cover Letter.docx"),
	}}}
	router := newRouter(t, svc, recs)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/records/Acme/links", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var got struct {
		Items []documents.Link `json:"items"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Len(t, got.Items, 3)
	assert.Equal(t, "https://mirror.test/Acme/Acme Resume.docx", got.Items[0].URL)
	assert.Equal(t, "Acme Resume.pdf", got.Items[1].FileName)
	assert.Equal(t, "Acme Cover Letter.docx", got.Items[2].FileName)
	assert.True(t, got.Items[0].ExpiresAt.Equal(now.Add(15*time.Minute)))
}

func TestLinksWithoutMirror(t *testing.T) {
	svc := &documents.Service{ResultsDir: t.TempDir()}
	router := newRouter(t, svc, fakeRecords{"Acme": {Meta: model.Meta{FileName: "Acme"}}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/records/Acme/links", nil))
	assert.Equal(t, http.StatusConflict, resp.Code)
}
