package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lalith-99/reelroom/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_PutOverwriteDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFSStore(root, "http://localhost:8081/files/")
	require.NoError(t, err)

	url, err := s.Put(ctx, "ws1/1700000000000-clip.mp4", []byte("first"), "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/files/ws1/1700000000000-clip.mp4", url)

	_, err = s.Put(ctx, "ws1/1700000000000-clip.mp4", []byte("second"), "video/mp4")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "ws1", "1700000000000-clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	require.NoError(t, s.Delete(ctx, "ws1/1700000000000-clip.mp4"))
	_, err = os.Stat(filepath.Join(root, "ws1", "1700000000000-clip.mp4"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(ctx, "ws1/1700000000000-clip.mp4"), "deleting a missing key succeeds")
}

func TestFSStore_RejectsEscapingKeys(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "http://x")
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../../etc/passwd", []byte("x"), "")
	// The key is re-rooted, not rejected, so it lands safely inside root.
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "", []byte("x"), "")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("https://cdn.example")

	url, err := s.Put(ctx, "k", []byte("abc"), "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/k", url)

	obj, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "video/mp4", obj.ContentType)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore("").Put(ctx, "k", nil, "")
	assert.ErrorIs(t, err, ErrStorage)
}

func TestS3Store_URL(t *testing.T) {
	client := s3.New(s3.Options{Region: "us-east-1", Credentials: aws.AnonymousCredentials{}})

	tests := []struct {
		name string
		opts S3Options
		want string
	}{
		{
			name: "aws default",
			opts: S3Options{Region: "eu-west-1", Bucket: "videos"},
			want: "https://videos.s3.eu-west-1.amazonaws.com/w/1-a.mp4",
		},
		{
			name: "public base url",
			opts: S3Options{Bucket: "videos", PublicBaseURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com/w/1-a.mp4",
		},
		{
			name: "path style endpoint",
			opts: S3Options{Bucket: "videos", Endpoint: "http://localhost:9000", UsePathStyle: true},
			want: "http://localhost:9000/videos/w/1-a.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewS3StoreFromClient(client, tt.opts).URL("w/1-a.mp4"))
		})
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	cfg := &config.Config{BlobBackend: config.BlobFS, FSDir: t.TempDir(), FSBaseURL: "http://x"}
	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "fs", s.Name())

	cfg.BlobBackend = config.BlobMemory
	s, err = New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Name())

	cfg.BlobBackend = "tape"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}
