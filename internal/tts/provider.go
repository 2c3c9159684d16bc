// Package tts turns a broadcast script into an MP3 file on disk.
package tts

import (
	"context"
	"io"
)

// Request holds the parameters for one synthesis call.
type Request struct {
	Text   string
	Voice  string
	Model  string
	Format string
}

// Provider is the interface for text-to-speech backends. Stream returns the
// audio as it arrives; the caller closes it.
type Provider interface {
	Stream(ctx context.Context, req Request) (io.ReadCloser, error)
	Name() string
}
