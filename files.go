package cytomine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Cytomine-ULiege/cytomine-go-client/errors"
	"github.com/Cytomine-ULiege/cytomine-go-client/models"
)

// FileExists reports whether a path exists on the client filesystem.
func (c *Client) FileExists(path string) (bool, error) {
	_, err := c.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// DownloadFile retrieves a server file into destination on the client
// filesystem, creating missing parent directories. A relative URL is
// resolved against the API base. An existing destination is kept and
// counted as success unless override is set.
func (c *Client) DownloadFile(ctx context.Context, fileURL, destination string, override bool, query url.Values) error {
	if !override {
		exists, err := c.FileExists(destination)
		if err != nil {
			return errors.NewPathError("download", destination, err)
		}
		if exists {
			c.logger.Debug().Str("path", destination).Msg("file exists, download skipped")
			return nil
		}
	}

	if !strings.HasPrefix(fileURL, "http") {
		fileURL = c.baseURL(true) + fileURL
	}
	u, err := url.Parse(fileURL)
	if err != nil {
		return errors.NewPathError("download", fileURL, err)
	}
	if len(query) > 0 {
		merged := u.Query()
		for key, values := range query {
			for _, value := range values {
				merged.Add(key, value)
			}
		}
		u.RawQuery = merged.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, u.String(), "application/json", nil, c.baseURL(true), c.basePath)
	if err != nil {
		return errors.NewPathError("download", destination, err)
	}
	if err := c.checkResponse(resp); err != nil {
		return errors.NewPathError("download", destination, err)
	}
	defer resp.Body.Close()

	if dir := filepath.Dir(destination); dir != "" && dir != "." {
		if err := c.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.NewPathError("download", destination, err)
		}
	}
	file, err := c.fs.Create(destination)
	if err != nil {
		return errors.NewPathError("download", destination, err)
	}
	written, err := io.Copy(file, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.NewPathError("download", destination, err)
	}
	c.logger.Info().Str("path", destination).Int64("bytes", written).
		Msg("file downloaded")
	return nil
}

// postMultipart streams a local file as a multipart POST and decodes the
// JSON response into out. The part content type is sniffed from the file
// head.
func (c *Client) postMultipart(ctx context.Context, fullURL, signBase, signPath, filename string, out any) error {
	file, err := c.fs.Open(filename)
	if err != nil {
		return errors.NewPathError("upload", filename, err)
	}
	defer file.Close()

	head := make([]byte, 3072)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return errors.NewPathError("upload", filename, err)
	}
	head = head[:n]
	content := io.MultiReader(bytes.NewReader(head), file)

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="files[]"; filename=%q`, filepath.Base(filename)))
		header.Set("Content-Type", mimetype.Detect(head).String())
		part, err := writer.CreatePart(header)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	resp, err := c.do(ctx, http.MethodPost, fullURL, writer.FormDataContentType(), pr, signBase, signPath)
	if err != nil {
		return errors.NewPathError("upload", filename, err)
	}
	if err := c.checkResponse(resp); err != nil {
		return errors.NewPathError("upload", filename, err)
	}
	defer resp.Body.Close()
	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.NewPathError("upload", filename, err)
	}
	return nil
}

// UploadFile posts a local file to an API path as multipart form data and
// decodes the JSON response into out. Attached files reach the server this
// way.
func (c *Client) UploadFile(ctx context.Context, path, filename string, query url.Values, out any) error {
	full := c.endpointURL(path, query, true)
	return c.postMultipart(ctx, full, c.baseURL(true), c.basePath, filename, out)
}

// Upload reports the outcome of an image upload: the tracking file on the
// server, the abstract images built from it and their project instances.
type Upload struct {
	File      *models.UploadedFile
	Images    []*models.AbstractImage
	Instances []*models.ImageInstance
}

type uploadConfig struct {
	projectID  int64
	sync       bool
	properties map[string]string
}

// UploadOption tunes an image upload.
type UploadOption func(*uploadConfig)

// WithUploadProject attaches the deployed image to a project.
func WithUploadProject(id int64) UploadOption {
	return func(cfg *uploadConfig) { cfg.projectID = id }
}

// WithUploadSync makes the server deploy the image before answering.
func WithUploadSync() UploadOption {
	return func(cfg *uploadConfig) { cfg.sync = true }
}

// WithUploadProperties attaches key-value properties to the deployed image.
func WithUploadProperties(properties map[string]string) UploadOption {
	return func(cfg *uploadConfig) { cfg.properties = properties }
}

// UploadImage sends a local image file to the upload service and deploys
// it into the given storage.
func (c *Client) UploadImage(ctx context.Context, filename string, storageID int64, opts ...UploadOption) (*Upload, error) {
	cfg := &uploadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	storage := strconv.FormatInt(storageID, 10)
	query := url.Values{}
	query.Set("idStorage", storage)
	query.Set("storage", storage)
	query.Set("sync", strconv.FormatBool(cfg.sync))
	if cfg.projectID != 0 {
		project := strconv.FormatInt(cfg.projectID, 10)
		query.Set("idProject", project)
		query.Set("projects", project)
	}
	if len(cfg.properties) > 0 {
		keys := make([]string, 0, len(cfg.properties))
		for key := range cfg.properties {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		values := make([]string, len(keys))
		for i, key := range keys {
			values[i] = cfg.properties[key]
		}
		query.Set("keys", strings.Join(keys, ","))
		query.Set("values", strings.Join(values, ","))
	}

	full := c.baseURL(false) + "/upload?" + query.Encode()
	var payload []map[string]any
	if err := c.postMultipart(ctx, full, c.baseURL(false), "", filename, &payload); err != nil {
		return nil, err
	}
	return uploadFromPayload(payload)
}

// uploadFromPayload rebuilds the upload outcome from the service response.
func uploadFromPayload(payload []map[string]any) (*Upload, error) {
	if len(payload) == 0 {
		return nil, errors.NewError("upload", fmt.Errorf("empty upload response"))
	}
	fileData, ok := payload[0]["uploadedFile"].(map[string]any)
	if !ok {
		return nil, errors.NewError("upload",
			fmt.Errorf("upload response carries no uploadedFile"))
	}
	upload := &Upload{File: models.NewUploadedFile()}
	upload.File.Populate(fileData)

	images, _ := payload[0]["images"].([]any)
	for _, entry := range images {
		data, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if raw, ok := data["image"].(map[string]any); ok {
			image := models.NewAbstractImage()
			image.Populate(raw)
			upload.Images = append(upload.Images, image)
		}
		instances, _ := data["imageInstances"].([]any)
		for _, rawInstance := range instances {
			instanceData, ok := rawInstance.(map[string]any)
			if !ok {
				continue
			}
			instance := models.NewImageInstance(0, 0)
			instance.Populate(instanceData)
			upload.Instances = append(upload.Instances, instance)
		}
	}
	return upload, nil
}

// ImportDatasets asks the upload service to import the datasets already
// present on its filesystem under path into the given storage.
func (c *Client) ImportDatasets(ctx context.Context, path string, storageID int64) error {
	query := url.Values{}
	query.Set("host", c.baseURL(false))
	query.Set("path", path)
	query.Set("storage_id", strconv.FormatInt(storageID, 10))

	full := c.baseURL(false) + "/import?" + query.Encode()
	resp, err := c.do(ctx, http.MethodPost, full, "text/plain", nil, c.baseURL(false), "")
	if err != nil {
		return errors.NewPathError("import", path, err)
	}
	if err := c.checkResponse(resp); err != nil {
		return errors.NewPathError("import", path, err)
	}
	defer resp.Body.Close()
	_, err = io.Copy(io.Discard, resp.Body)
	return err
}
