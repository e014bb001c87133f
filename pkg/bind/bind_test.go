package bind_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/muestras/config"
	"github.com/shashiranjanraj/muestras/pkg/bind"
)

func TestJSON(t *testing.T) {
	var dest struct {
		From int `json:"from"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"from":3}`))
	require.NoError(t, bind.JSON(req, &dest))
	assert.Equal(t, 3, dest.From)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.ErrorContains(t, bind.JSON(req, &dest), "invalid JSON")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorContains(t, bind.JSON(req, &dest), "empty")
}

func TestJSON_TooLarge(t *testing.T) {
	config.Set("MAX_BODY_BYTES", "8")
	t.Cleanup(func() { config.Set("MAX_BODY_BYTES", "") })

	var dest map[string]string
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nombre":"a long value"}`))
	assert.ErrorContains(t, bind.JSON(req, &dest), "too large")
}

func TestFiles(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range []struct{ name, body string }{{"a.pdf", "A"}, {"b.pdf", "B"}} {
		w, err := mw.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, _ = w.Write([]byte(f.body))
	}
	require.NoError(t, mw.WriteField("names", "Front"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	files, release, err := bind.Files(req)
	require.NoError(t, err)
	defer release()

	require.Len(t, files, 2)
	assert.Equal(t, "a.pdf", files[0].Filename)
	assert.Equal(t, "Front", files[0].Name)
	assert.Equal(t, "", files[1].Name)
	data, _ := io.ReadAll(files[1].Content)
	assert.Equal(t, "B", string(data))
}

func TestFiles_None(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("names", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, release, err := bind.Files(req)
	defer release()
	assert.ErrorIs(t, err, bind.ErrNoFiles)
}
