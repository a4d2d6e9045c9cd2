package storage

import (
	"context"
	"io"
	"time"
)

// Package storage abstracts the S3-compatible object store that holds
// receiving photo evidence. Implementations stream content and never
// touch local disk.

// PutObjectOptions carries optional upload parameters.
// Size must be the exact byte count when known; -1 lets the backend
// buffer or chunk as it supports.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the object store client used for photo evidence.
type Storage interface {
	// Put uploads an object under the given key.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get returns the object content as a streaming reader with its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited download URL requiring no credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
