// Package testutil provides mocks for the transport interfaces of the
// resource layer. The package is internal and only used by tests.
package testutil

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"
)

// MockAPI is a mock implementation of the transport interfaces the resource
// layer depends on. Each operation is customized through a function field;
// operations without one succeed and leave their output untouched.
type MockAPI struct {
	GetJSONFunc      func(ctx context.Context, path string, query url.Values, out any) error
	PostJSONFunc     func(ctx context.Context, path string, body, out any) error
	PutJSONFunc      func(ctx context.Context, path string, body, out any) error
	DeleteJSONFunc   func(ctx context.Context, path string, query url.Values) error
	DownloadFileFunc func(ctx context.Context, url, destination string, override bool, query url.Values) error
	FileExistsFunc   func(path string) (bool, error)
	UploadFileFunc   func(ctx context.Context, path, filename string, query url.Values, out any) error

	// Log is returned by Logger when set.
	Log *zerolog.Logger
}

// GetJSON mocks the GET verb.
func (m *MockAPI) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	if m.GetJSONFunc != nil {
		return m.GetJSONFunc(ctx, path, query, out)
	}
	return nil
}

// PostJSON mocks the POST verb.
func (m *MockAPI) PostJSON(ctx context.Context, path string, body, out any) error {
	if m.PostJSONFunc != nil {
		return m.PostJSONFunc(ctx, path, body, out)
	}
	return nil
}

// PutJSON mocks the PUT verb.
func (m *MockAPI) PutJSON(ctx context.Context, path string, body, out any) error {
	if m.PutJSONFunc != nil {
		return m.PutJSONFunc(ctx, path, body, out)
	}
	return nil
}

// DeleteJSON mocks the DELETE verb.
func (m *MockAPI) DeleteJSON(ctx context.Context, path string, query url.Values) error {
	if m.DeleteJSONFunc != nil {
		return m.DeleteJSONFunc(ctx, path, query)
	}
	return nil
}

// DownloadFile mocks a file download.
func (m *MockAPI) DownloadFile(ctx context.Context, url, destination string, override bool, query url.Values) error {
	if m.DownloadFileFunc != nil {
		return m.DownloadFileFunc(ctx, url, destination, override, query)
	}
	return nil
}

// FileExists mocks the destination existence check.
func (m *MockAPI) FileExists(path string) (bool, error) {
	if m.FileExistsFunc != nil {
		return m.FileExistsFunc(path)
	}
	return false, nil
}

// UploadFile mocks a multipart file upload.
func (m *MockAPI) UploadFile(ctx context.Context, path, filename string, query url.Values, out any) error {
	if m.UploadFileFunc != nil {
		return m.UploadFileFunc(ctx, path, filename, query, out)
	}
	return nil
}

// Logger returns the configured logger, or a disabled one.
func (m *MockAPI) Logger() zerolog.Logger {
	if m.Log != nil {
		return *m.Log
	}
	return zerolog.Nop()
}
