package domain

import "errors"

var (
	ErrConfiguration  = errors.New("configuration error")
	ErrEncoding       = errors.New("image encoding failed")
	ErrTransport      = errors.New("transport error")
	ErrGeneration     = errors.New("video generation failed")
	ErrMissingResult  = errors.New("video generation succeeded, but no download link was found")
	ErrInvalidRequest = errors.New("please upload an image and enter a prompt")
	ErrNotFound       = errors.New("not found")
)
