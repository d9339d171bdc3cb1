// Package video drives a remote image-to-video operation from submission to a
// playable artifact.
package video

import (
	"context"

	"animator/internal/domain"
	"animator/internal/providers/genai"
)

// Generator turns a still image and a prompt into a video artifact. Errors
// returned from Generate are always *ClassifiedError.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.VideoArtifact, error)
}

// Backend is the remote long-running video API. *genai.Client implements it.
type Backend interface {
	Model() string
	HasCredentials() bool
	GenerateVideos(ctx context.Context, req genai.VideoRequest) (*genai.Operation, error)
	GetOperation(ctx context.Context, name string) (*genai.Operation, error)
	Download(ctx context.Context, uri string) ([]byte, string, error)
}

// ArtifactPublisher makes downloaded bytes addressable by the caller.
type ArtifactPublisher interface {
	Publish(data []byte, mime string) (*domain.VideoArtifact, error)
}

var (
	_ Backend   = (*genai.Client)(nil)
	_ Generator = (*Animator)(nil)
)
