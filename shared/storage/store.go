package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"learning-path/shared/config"
)

// ErrNotFound is returned by Get when no course exists under the key.
var ErrNotFound = errors.New("course not found")

// CourseStore persists assembled course documents as opaque JSON blobs.
// Keys have the form {folder}/{sanitized_title}_{unix_timestamp}.
type CourseStore interface {
	// Put stores doc under key and returns a URI locating it.
	Put(ctx context.Context, key string, doc []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns the keys stored under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// NewStore builds the configured backend.
func NewStore(ctx context.Context, cfg *config.StorageConfig) (CourseStore, error) {
	switch cfg.Backend {
	case config.StorageGCS:
		return NewGCSStore(ctx, cfg.Bucket)
	case config.StorageLocal:
		return NewLocalStore(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

var unsafeTitleChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SanitizeTitle turns a course title into a key-safe name.
func SanitizeTitle(title string) string {
	name := unsafeTitleChars.ReplaceAllString(strings.TrimSpace(title), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "course"
	}
	return name
}

// CourseKey derives the storage key for a course created at ts.
func CourseKey(folder, title string, ts time.Time) string {
	return fmt.Sprintf("%s/%s_%d", strings.Trim(folder, "/"), SanitizeTitle(title), ts.Unix())
}

// CourseName is the last path element of a key, used as the public name.
func CourseName(key string) string {
	return path.Base(key)
}

// KeyForName resolves a public course name inside folder.
func KeyForName(folder, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid course name %q", name)
	}
	return strings.Trim(folder, "/") + "/" + strings.TrimSuffix(name, jsonExt), nil
}

const jsonExt = ".json"

func objectName(key string) string {
	return key + jsonExt
}

func listPrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
