package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storageStub captures what the handler hands to object storage.
type storageStub struct {
	uploadFn func(ctx context.Context, ownerID, fileName string, file io.Reader, size int64) (string, string, error)
}

func (s *storageStub) Upload(ctx context.Context, ownerID, fileName string, file io.Reader, size int64) (string, string, error) {
	return s.uploadFn(ctx, ownerID, fileName, file, size)
}

func (s *storageStub) Delete(context.Context, string) error { return nil }

func mediaApp(s *Server) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("viewerID", "u1")
		return c.Next()
	})
	app.Post("/api/media", s.UploadMedia)
	return app
}

func multipartUpload(t *testing.T, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := bytes.NewBuffer(nil)
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestUploadMedia_NormalizesToWebP(t *testing.T) {
	var gotName string
	var gotOwner string
	var gotBytes []byte
	store := &storageStub{
		uploadFn: func(_ context.Context, ownerID, fileName string, file io.Reader, size int64) (string, string, error) {
			gotOwner = ownerID
			gotName = fileName
			var err error
			gotBytes, err = io.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, int64(len(gotBytes)), size)
			return "media/u1/obj.webp", "http://store/media/u1/obj.webp", nil
		},
	}
	s := &Server{config: testConfig(), storage: store}
	app := mediaApp(s)

	body, contentType := multipartUpload(t, "avatar.png", smallPNG(t))
	req := httptest.NewRequest(http.MethodPost, "/api/media", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, "u1", gotOwner)
	assert.Equal(t, "avatar.webp", gotName)
	// The stored object is the re-encoded WebP, not the original PNG.
	require.Greater(t, len(gotBytes), 12)
	assert.Equal(t, "RIFF", string(gotBytes[:4]))
	assert.Equal(t, "WEBP", string(gotBytes[8:12]))
}

func TestUploadMedia_RejectsNonImage(t *testing.T) {
	store := &storageStub{
		uploadFn: func(context.Context, string, string, io.Reader, int64) (string, string, error) {
			t.Fatal("storage must not see a rejected upload")
			return "", "", nil
		},
	}
	s := &Server{config: testConfig(), storage: store}
	app := mediaApp(s)

	body, contentType := multipartUpload(t, "notes.txt", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/api/media", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadMedia_UnavailableWithoutStorage(t *testing.T) {
	s := &Server{config: testConfig()}
	app := mediaApp(s)

	body, contentType := multipartUpload(t, "avatar.png", smallPNG(t))
	req := httptest.NewRequest(http.MethodPost, "/api/media", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
