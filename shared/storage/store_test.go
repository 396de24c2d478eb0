package storage

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"learning-path/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Linear Algebra", want: "Linear_Algebra"},
		{title: "  Linear Algebra: A Beginner's Guide!  ", want: "Linear_Algebra_A_Beginner_s_Guide"},
		{title: "C++ & Go / Rust", want: "C_Go_Rust"},
		{title: "already_safe-name", want: "already_safe-name"},
		{title: "???", want: "course"},
		{title: "", want: "course"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.title))
		})
	}
}

func TestCourseKey(t *testing.T) {
	ts := time.Unix(1735689600, 0)

	key := CourseKey("courses", "Linear Algebra Foundations", ts)
	assert.Equal(t, "courses/Linear_Algebra_Foundations_1735689600", key)
	assert.Regexp(t, regexp.MustCompile(`^courses/Linear_Algebra_Foundations_\d+$`), key)
	assert.Equal(t, "Linear_Algebra_Foundations_1735689600", CourseName(key))

	assert.Equal(t, "courses/X_1", CourseKey("/courses/", "X", time.Unix(1, 0)))
}

func TestKeyForName(t *testing.T) {
	key, err := KeyForName("courses", "Linear_Algebra_1735689600")
	require.NoError(t, err)
	assert.Equal(t, "courses/Linear_Algebra_1735689600", key)

	key, err = KeyForName("courses", "Linear_Algebra_1735689600.json")
	require.NoError(t, err)
	assert.Equal(t, "courses/Linear_Algebra_1735689600", key)

	for _, bad := range []string{"", "..", "../etc/passwd", `a\b`} {
		_, err := KeyForName("courses", bad)
		assert.Error(t, err, bad)
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	uri, err := store.Put(ctx, "courses/Vectors_1", []byte(`{"course_title":"Vectors"}`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file://"))
	assert.True(t, strings.HasSuffix(uri, "courses/Vectors_1.json"))

	data, err := store.Get(ctx, "courses/Vectors_1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"course_title":"Vectors"}`, string(data))

	_, err = store.Put(ctx, "courses/Vectors_1", []byte(`{"course_title":"Vectors v2"}`))
	require.NoError(t, err)
	data, err = store.Get(ctx, "courses/Vectors_1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"course_title":"Vectors v2"}`, string(data))
}

func TestLocalStoreGetMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "courses/nope_1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreList(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	keys, err := store.List(ctx, "courses")
	require.NoError(t, err)
	assert.Empty(t, keys)

	for _, key := range []string{"courses/b_2", "courses/a_1", "drafts/c_3"} {
		_, err := store.Put(ctx, key, []byte(`{}`))
		require.NoError(t, err)
	}

	keys, err = store.List(ctx, "courses")
	require.NoError(t, err)
	assert.Equal(t, []string{"courses/a_1", "courses/b_2"}, keys)

	keys, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 3)
}

func TestNewStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	store, err := NewStore(context.Background(), &config.StorageConfig{Backend: config.StorageLocal, DataDir: dir})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)
	assert.DirExists(t, dir)

	_, err = NewStore(context.Background(), &config.StorageConfig{Backend: "s3"})
	assert.Error(t, err)
}

func TestGCSStoreURI(t *testing.T) {
	s := &GCSStore{bucket: "learning-paths"}
	assert.Equal(t, "gs://learning-paths/courses/Vectors_1.json", s.uri("courses/Vectors_1"))
	assert.Equal(t, "courses/", listPrefix("/courses"))
	assert.Equal(t, "", listPrefix(""))
}
