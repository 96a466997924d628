package cytomine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
)

func writeTestFile(t *testing.T, fsys billy.Filesystem, path, content string) {
	t.Helper()
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		require.NoError(t, fsys.MkdirAll(dir, 0o755))
	}
	file, err := fsys.Create(path)
	require.NoError(t, err)
	_, err = file.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, file.Close())
}

func readTestFile(t *testing.T, fsys billy.Filesystem, path string) string {
	t.Helper()
	file, err := fsys.Open(path)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	return string(data)
}

func TestFileExists(t *testing.T) {
	fsys := memfs.New()
	writeTestFile(t, fsys, "/present.txt", "x")

	client, err := New("demo.cytomine.local", "public", "private", WithFilesystem(fsys))
	require.NoError(t, err)

	exists, err := client.FileExists("/present.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.FileExists("/absent.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/userannotation/42/crop.jpg", r.URL.Path)
		assert.Equal(t, "256", r.URL.Query().Get("maxSize"))
		fmt.Fprint(w, "jpeg-bytes")
	}))
	defer srv.Close()

	fsys := memfs.New()
	client := testClient(t, srv, WithFilesystem(fsys))

	query := url.Values{}
	query.Set("maxSize", "256")
	require.NoError(t, client.DownloadFile(context.Background(),
		"userannotation/42/crop.jpg", "crops/3/42.jpg", true, query))

	assert.Equal(t, "jpeg-bytes", readTestFile(t, fsys, "crops/3/42.jpg"))
}

func TestDownloadFileMergesQueryIntoAbsoluteURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("colormap"))
		assert.Equal(t, "512", q.Get("maxSize"))
		fmt.Fprint(w, "png-bytes")
	}))
	defer srv.Close()

	fsys := memfs.New()
	client := testClient(t, srv, WithFilesystem(fsys))

	query := url.Values{}
	query.Set("maxSize", "512")
	fileURL := srv.URL + "/api/userannotation/42/crop.png?colormap=2"
	require.NoError(t, client.DownloadFile(context.Background(), fileURL, "42.png", true, query))

	assert.Equal(t, "png-bytes", readTestFile(t, fsys, "42.png"))
}

func TestDownloadFileKeepsExistingWithoutOverride(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, "fresh")
	}))
	defer srv.Close()

	fsys := memfs.New()
	writeTestFile(t, fsys, "out/kept.jpg", "old")
	client := testClient(t, srv, WithFilesystem(fsys))

	require.NoError(t, client.DownloadFile(context.Background(),
		"userannotation/42/crop.jpg", "out/kept.jpg", false, nil))

	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Equal(t, "old", readTestFile(t, fsys, "out/kept.jpg"))
}

func TestDownloadFileServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errors": "crop not found"}`)
	}))
	defer srv.Close()

	fsys := memfs.New()
	client := testClient(t, srv, WithFilesystem(fsys))

	err := client.DownloadFile(context.Background(),
		"userannotation/42/crop.jpg", "out/42.jpg", true, nil)

	assert.True(t, errors.IsNotFound(err))
	exists, statErr := client.FileExists("out/42.jpg")
	require.NoError(t, statErr)
	assert.False(t, exists)
}

func TestUploadFile(t *testing.T) {
	fsys := memfs.New()
	writeTestFile(t, fsys, "/data/report.pdf", "%PDF-1.4 fake content")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/attachedfile.json", r.URL.Path)
		assert.Equal(t, "be.cytomine.project.Project", r.URL.Query().Get("domainClassName"))
		assert.Equal(t, "3", r.URL.Query().Get("domainIdent"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("files[]")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "report.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 fake content", string(data))

		fmt.Fprint(w, `{"id": 77, "filename": "report.pdf"}`)
	}))
	defer srv.Close()

	client := testClient(t, srv, WithFilesystem(fsys))

	query := url.Values{}
	query.Set("domainClassName", "be.cytomine.project.Project")
	query.Set("domainIdent", "3")
	var out map[string]any
	require.NoError(t, client.UploadFile(context.Background(),
		"attachedfile.json", "/data/report.pdf", query, &out))

	assert.Equal(t, float64(77), out["id"])
}

func TestUploadImage(t *testing.T) {
	fsys := memfs.New()
	writeTestFile(t, fsys, "/data/slide.png", "\x89PNG\r\n\x1a\nfake image body")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "12", q.Get("idStorage"))
		assert.Equal(t, "12", q.Get("storage"))
		assert.Equal(t, "true", q.Get("sync"))
		assert.Equal(t, "3", q.Get("idProject"))
		assert.Equal(t, "3", q.Get("projects"))
		assert.Equal(t, "sample,stain", q.Get("keys"))
		assert.Equal(t, "lung,HE", q.Get("values"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("files[]")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "slide.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))

		fmt.Fprint(w, `[{
			"status": 200,
			"uploadedFile": {"id": 88, "originalFilename": "slide.png", "status": 2},
			"images": [{
				"image": {"id": 101, "originalFilename": "slide.png", "width": 512},
				"imageInstances": [{"id": 201, "project": 3}]
			}]
		}]`)
	}))
	defer srv.Close()

	client := testClient(t, srv, WithFilesystem(fsys))

	upload, err := client.UploadImage(context.Background(), "/data/slide.png", 12,
		WithUploadProject(3), WithUploadSync(),
		WithUploadProperties(map[string]string{"stain": "HE", "sample": "lung"}))

	require.NoError(t, err)
	assert.Equal(t, int64(88), upload.File.ID())
	require.Len(t, upload.Images, 1)
	assert.Equal(t, int64(101), upload.Images[0].ID())
	require.Len(t, upload.Instances, 1)
	project, ok := upload.Instances[0].ProjectID()
	require.True(t, ok)
	assert.Equal(t, int64(3), project)
}

func TestUploadResponseValidation(t *testing.T) {
	_, err := uploadFromPayload(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	_, err = uploadFromPayload([]map[string]any{{"status": float64(200)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uploadedFile")
}

func TestImportDatasets(t *testing.T) {
	var host string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/import", r.URL.Path)
		assert.Equal(t, "text/plain", r.Header.Get("Content-Type"))
		q := r.URL.Query()
		assert.Equal(t, "/data/datasets", q.Get("path"))
		assert.Equal(t, "12", q.Get("storage_id"))
		host = q.Get("host")
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	client := testClient(t, srv)

	require.NoError(t, client.ImportDatasets(context.Background(), "/data/datasets", 12))
	assert.Equal(t, srv.URL, host)
}
