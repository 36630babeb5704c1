package settings

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "Config.json"))
	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Settings": {"GPT Model": "gpt-4.1", "Auto Archive Expired Applications": true}}`), 0o644))

	s, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1", s.GPTModel)
	assert.True(t, s.AutoArchiveExpired)
	assert.Equal(t, DefaultSeparator, s.ListKeySeparator)
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Config.json")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))
	_, err := NewStore(path).Load()
	assert.Error(t, err)
}

func TestUpdateWritesIndentedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Config.json")
	store := NewStore(path)
	model := "modèle <x>"
	on := true

	s, err := store.Update(Patch{GPTModel: &model, AutoArchiveExpired: &on})
	require.NoError(t, err)
	assert.Equal(t, model, s.GPTModel)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{\n    \"Settings\": {\n        \"GPT Model\""))
	assert.Contains(t, string(raw), model)

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, s, reloaded)
}

func TestHandlerRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	(&Handler{Store: NewStore(filepath.Join(t.TempDir(), "Config.json"))}).RegisterRoutes(router.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(`{"List Key Separator": "_"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"List Key Separator":"_"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"List Key Separator":"_"`)

	req = httptest.NewRequest(http.MethodPut, "/api/v1/settings", strings.NewReader(`[`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateKeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
    "Window": {"Width": 1280},
    "Settings": {"Theme": "dark", "GPT Model": "gpt-4.1"}
}`), 0o644))
	on := true

	_, err := NewStore(path).Update(Patch{AutoArchiveExpired: &on})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	written := string(raw)
	assert.True(t, strings.HasPrefix(written, "{\n    \"Window\": {\n        \"Width\": 1280\n    },"))
	assert.Contains(t, written, `"Theme": "dark"`)
	assert.Contains(t, written, `"GPT Model": "gpt-4.1"`)
	assert.Contains(t, written, `"Auto Archive Expired Applications": true`)
}

func TestDefaultModelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Config.json")
	store := NewStore(path).WithDefaultModel("gpt-4.1-mini")

	s, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", s.GPTModel)

	require.NoError(t, os.WriteFile(path, []byte(`{"Settings": {"GPT Model": "  "}}`), 0o644))
	s, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", s.GPTModel)

	s, err = NewStore(path).WithDefaultModel("").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, s.GPTModel)
}
