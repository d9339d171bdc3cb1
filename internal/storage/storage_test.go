package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"animator/internal/domain"
)

func TestFileStoreWriteAndSanitize(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	key, err := store.Write(context.Background(), "/./generated//videos/a/video.mp4", []byte("mp4"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "generated/videos/a/video.mp4" {
		t.Fatalf("key = %q", key)
	}
	data, err := os.ReadFile(filepath.Join(store.BasePath(), filepath.FromSlash(key)))
	if err != nil || string(data) != "mp4" {
		t.Fatalf("read back = %q, %v", data, err)
	}

	for _, bad := range []string{"", "  ", "../escape", "a/../../escape", ".."} {
		if _, err := store.Write(context.Background(), bad, []byte("x")); err == nil {
			t.Fatalf("Write(%q) succeeded, want error", bad)
		}
	}
}

func TestFileStoreHonorsCancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Write(ctx, "a.mp4", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Write error = %v, want context.Canceled", err)
	}
}

func TestSaveArtifactUsesVideoKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	key, err := store.SaveArtifact(context.Background(), &domain.VideoArtifact{ID: "abc", MIMEType: "video/mp4", Data: []byte("v")})
	if err != nil {
		t.Fatalf("SaveArtifact: %v", err)
	}
	if key != "generated/videos/abc/video.mp4" {
		t.Fatalf("key = %q", key)
	}
	if _, err := store.SaveArtifact(context.Background(), &domain.VideoArtifact{ID: "x"}); err == nil {
		t.Fatal("expected error for empty artifact")
	}
}

func TestVideoKey(t *testing.T) {
	cases := []struct {
		id, mime, want string
	}{
		{"abc", "video/mp4", "generated/videos/abc/video.mp4"},
		{"abc", "", "generated/videos/abc/video.mp4"},
		{"abc", "video/webm; codecs=vp9", "generated/videos/abc/video.webm"},
		{" ", "video/mp4", "generated/videos/unnamed/video.mp4"},
	}
	for _, tc := range cases {
		if got := VideoKey(tc.id, tc.mime); got != tc.want {
			t.Fatalf("VideoKey(%q, %q) = %q, want %q", tc.id, tc.mime, got, tc.want)
		}
	}
}

func TestBlobStorePublishGetRelease(t *testing.T) {
	store := NewBlobStore(0)
	artifact, err := store.Publish([]byte("video"), "")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !strings.HasPrefix(artifact.URL, BlobScheme) || IDFromURL(artifact.URL) != artifact.ID {
		t.Fatalf("URL = %q, id = %q", artifact.URL, artifact.ID)
	}
	if artifact.MIMEType != "video/mp4" {
		t.Fatalf("mime = %q", artifact.MIMEType)
	}

	got, err := store.Get(artifact.URL)
	if err != nil || got != artifact {
		t.Fatalf("Get by URL = %v, %v", got, err)
	}
	if err := store.Release(artifact.ID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := store.Get(artifact.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get after release = %v, want ErrNotFound", err)
	}
	if err := store.Release(artifact.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Release = %v, want ErrNotFound", err)
	}
	if _, err := store.Publish(nil, "video/mp4"); err == nil {
		t.Fatal("expected error for empty blob")
	}
}

func TestBlobStoreEvictsOldest(t *testing.T) {
	store := NewBlobStore(2)
	first, _ := store.Publish([]byte("1"), "video/mp4")
	second, _ := store.Publish([]byte("2"), "video/mp4")
	third, _ := store.Publish([]byte("3"), "video/mp4")

	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
	if _, err := store.Get(first.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("oldest not evicted: %v", err)
	}
	for _, a := range []string{second.ID, third.ID} {
		if _, err := store.Get(a); err != nil {
			t.Fatalf("Get(%s): %v", a, err)
		}
	}
}
