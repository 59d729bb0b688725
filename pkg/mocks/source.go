// Package mocks provides mock implementations for testing.
package mocks

import (
	"io"

	"github.com/user/termplay/pkg/ports"
)

// FrameReader is a mock implementation of ports.FrameReader.
type FrameReader struct {
	MetaFunc      func() ports.SourceMeta
	ReadFrameFunc func(dst []byte) error
	CloseFunc     func() error
}

func (m *FrameReader) Meta() ports.SourceMeta {
	if m.MetaFunc != nil {
		return m.MetaFunc()
	}
	return ports.SourceMeta{Width: 2, Height: 2, FPS: 30}
}

func (m *FrameReader) ReadFrame(dst []byte) error {
	if m.ReadFrameFunc != nil {
		return m.ReadFrameFunc(dst)
	}
	return io.EOF
}

func (m *FrameReader) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
