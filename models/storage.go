package models

import (
	"context"
	"fmt"
)

// Storage is a per-user area holding uploaded files on the server.
type Storage struct {
	Model
}

// NewStorage creates a storage owned by a user.
func NewStorage(name string, userID int64) *Storage {
	s := &Storage{Model: newModel("storage")}
	s.attrs.Set("name", name)
	if userID != 0 {
		s.attrs.Set("user", userID)
	}
	return s
}

// Name returns the storage name.
func (s *Storage) Name() string {
	name, _ := s.attrs.String("name")
	return name
}

// UserID returns the user owning the storage.
func (s *Storage) UserID() (int64, bool) { return s.attrs.Int64("user") }

// String formats the storage for diagnostics.
func (s *Storage) String() string {
	return fmt.Sprintf("[%s] %d : %s", s.Kind(), s.ID(), s.Name())
}

// StorageCollection lists the storages visible to the current user.
type StorageCollection struct {
	Collection
	Items []*Storage
}

// NewStorageCollection creates a storage listing.
func NewStorageCollection() *StorageCollection {
	return &StorageCollection{Collection: newCollection("storage", true)}
}

// Fetch retrieves the storages, bounded by the Max and Offset window.
func (c *StorageCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, func() *Storage {
		return NewStorage("", 0)
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}

// UploadedFile tracks a file sent to the upload service and its deployment
// state.
type UploadedFile struct {
	Model
}

// NewUploadedFile creates an empty uploaded file record.
func NewUploadedFile() *UploadedFile {
	return &UploadedFile{Model: newModel("uploadedfile")}
}

// OriginalFilename returns the filename the file was uploaded under.
func (f *UploadedFile) OriginalFilename() string {
	name, _ := f.attrs.String("originalFilename")
	return name
}

// Filename returns the path of the file inside its storage.
func (f *UploadedFile) Filename() string {
	name, _ := f.attrs.String("filename")
	return name
}

// Size returns the file size in bytes.
func (f *UploadedFile) Size() int64 {
	size, _ := f.attrs.Int64("size")
	return size
}

// ContentType returns the detected content type of the file.
func (f *UploadedFile) ContentType() string {
	contentType, _ := f.attrs.String("contentType")
	return contentType
}

// Status returns the deployment status code reported by the server.
func (f *UploadedFile) Status() int64 {
	status, _ := f.attrs.Int64("status")
	return status
}

// StorageID returns the storage the file was deployed into.
func (f *UploadedFile) StorageID() (int64, bool) { return f.attrs.Int64("storage") }

// UserID returns the user who uploaded the file.
func (f *UploadedFile) UserID() (int64, bool) { return f.attrs.Int64("user") }

// String formats the uploaded file for diagnostics.
func (f *UploadedFile) String() string {
	return fmt.Sprintf("[%s] %d : %s", f.Kind(), f.ID(), f.OriginalFilename())
}

// UploadedFileCollection lists the files sent to the upload service.
type UploadedFileCollection struct {
	Collection
	Items []*UploadedFile
}

// NewUploadedFileCollection creates an uploaded file listing.
func NewUploadedFileCollection() *UploadedFileCollection {
	return &UploadedFileCollection{Collection: newCollection("uploadedfile", true)}
}

// Fetch retrieves the uploaded files, bounded by the Max and Offset window.
func (c *UploadedFileCollection) Fetch(ctx context.Context, api Caller) error {
	items, err := fetchItems(ctx, api, &c.Collection, c.Path(), nil, func() *UploadedFile {
		return NewUploadedFile()
	})
	if err != nil {
		return err
	}
	c.Items = items
	return nil
}
