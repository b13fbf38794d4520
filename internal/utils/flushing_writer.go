package utils

import "io"

// flushableWriter matches writers that buffer output and expose a Flush method.
type flushableWriter interface {
	Flush() error
}

// FlushingWriter forwards writes to an underlying writer and flushes it after
// every write when the writer supports flushing. Progress output depends on
// partial lines reaching the terminal immediately.
type FlushingWriter struct {
	underlyingWriter io.Writer
}

// NewFlushingWriter wraps underlyingWriter with per-write flushing.
func NewFlushingWriter(underlyingWriter io.Writer) *FlushingWriter {
	return &FlushingWriter{underlyingWriter: underlyingWriter}
}

// Write forwards data to the underlying writer and flushes when possible.
func (writer *FlushingWriter) Write(data []byte) (int, error) {
	writtenBytes, writeError := writer.underlyingWriter.Write(data)
	if writeError != nil {
		return writtenBytes, writeError
	}

	if flusher, supportsFlush := writer.underlyingWriter.(flushableWriter); supportsFlush {
		if flushError := flusher.Flush(); flushError != nil {
			return writtenBytes, flushError
		}
	}

	return writtenBytes, nil
}
