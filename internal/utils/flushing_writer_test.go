package utils_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/searchfix/search_scripts/internal/utils"
)

const (
	testFlushedPayloadConstant       = "progress frame"
	testContextConfigurationConstant = "/tmp/searchfix/config.yaml"
)

func TestFlushingWriterFlushesBufferedWriters(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	bufferedWriter := bufio.NewWriterSize(outputBuffer, 4096)
	flushingWriter := utils.NewFlushingWriter(bufferedWriter)

	writtenBytes, writeError := flushingWriter.Write([]byte(testFlushedPayloadConstant))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, len(testFlushedPayloadConstant), writtenBytes)
	require.Equal(testInstance, testFlushedPayloadConstant, outputBuffer.String())
}

func TestFlushingWriterPassesThroughUnbufferedWriters(testInstance *testing.T) {
	outputBuffer := &bytes.Buffer{}
	flushingWriter := utils.NewFlushingWriter(outputBuffer)

	_, writeError := flushingWriter.Write([]byte(testFlushedPayloadConstant))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, testFlushedPayloadConstant, outputBuffer.String())
}

func TestCommandContextAccessorRoundTrip(testInstance *testing.T) {
	contextAccessor := utils.NewCommandContextAccessor()

	_, pathAvailable := contextAccessor.ConfigurationFilePath(nil)
	require.False(testInstance, pathAvailable)

	decoratedContext := contextAccessor.WithConfigurationFilePath(nil, testContextConfigurationConstant)
	storedPath, storedPathAvailable := contextAccessor.ConfigurationFilePath(decoratedContext)
	require.True(testInstance, storedPathAvailable)
	require.Equal(testInstance, testContextConfigurationConstant, storedPath)
}
