package auditlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	successEntryTemplateConstant         = "[%s] CMD: %s\nOUT: %s\n"
	failureEntryTemplateConstant         = "[%s] ERROR: %s\n"
	entryTimestampLayoutConstant         = "2006-01-02 15:04:05"
	logFilePermissionsConstant           = 0o644
	logDirectoryPermissionsConstant      = 0o755
	logFileOpenFlagsConstant             = os.O_APPEND | os.O_CREATE | os.O_WRONLY
	logPathRequiredMessageConstant       = "audit log path must be provided"
	logDirectoryCreateTemplateConstant   = "unable to create audit log directory: %w"
	logFileOpenErrorTemplateConstant     = "unable to open audit log: %w"
	logFileWriteErrorTemplateConstant    = "unable to append audit log entry: %w"
	defaultLogFileRelativePathConstant   = "Library/Logs/searchfix.log"
	homeDirectoryResolutionErrorTemplate = "unable to resolve home directory: %w"
)

// ErrLogPathRequired indicates a FileRecorder was constructed without a path.
var ErrLogPathRequired = errors.New(logPathRequiredMessageConstant)

// Recorder persists one audit record per external command invocation.
type Recorder interface {
	// RecordSuccess appends an entry containing the literal command and its captured output.
	RecordSuccess(commandText string, capturedOutput string) error
	// RecordFailure appends an entry containing the failure description.
	RecordFailure(failureMessage string) error
}

// FileRecorder appends audit entries to a single plain-text log file. The file
// is opened and closed per write and is never rotated or truncated.
type FileRecorder struct {
	logFilePath       string
	timestampProvider func() time.Time
	writeMutex        sync.Mutex
}

// NewFileRecorder constructs a recorder appending to the provided log file path.
func NewFileRecorder(logFilePath string) (*FileRecorder, error) {
	return NewFileRecorderWithTimestampProvider(logFilePath, time.Now)
}

// NewFileRecorderWithTimestampProvider constructs a recorder with an explicit timestamp source.
func NewFileRecorderWithTimestampProvider(logFilePath string, timestampProvider func() time.Time) (*FileRecorder, error) {
	trimmedLogFilePath := strings.TrimSpace(logFilePath)
	if len(trimmedLogFilePath) == 0 {
		return nil, ErrLogPathRequired
	}
	if timestampProvider == nil {
		timestampProvider = time.Now
	}
	return &FileRecorder{logFilePath: trimmedLogFilePath, timestampProvider: timestampProvider}, nil
}

// LogFilePath reports the destination the recorder appends to.
func (recorder *FileRecorder) LogFilePath() string {
	return recorder.logFilePath
}

// RecordSuccess appends a command entry with its captured output.
func (recorder *FileRecorder) RecordSuccess(commandText string, capturedOutput string) error {
	entryTimestamp := recorder.timestampProvider().Format(entryTimestampLayoutConstant)
	entryText := fmt.Sprintf(successEntryTemplateConstant, entryTimestamp, commandText, strings.TrimRight(capturedOutput, "\n"))
	return recorder.appendEntry(entryText)
}

// RecordFailure appends a failure entry describing the failed invocation.
func (recorder *FileRecorder) RecordFailure(failureMessage string) error {
	entryTimestamp := recorder.timestampProvider().Format(entryTimestampLayoutConstant)
	entryText := fmt.Sprintf(failureEntryTemplateConstant, entryTimestamp, failureMessage)
	return recorder.appendEntry(entryText)
}

func (recorder *FileRecorder) appendEntry(entryText string) error {
	recorder.writeMutex.Lock()
	defer recorder.writeMutex.Unlock()

	logDirectory := filepath.Dir(recorder.logFilePath)
	if directoryError := os.MkdirAll(logDirectory, logDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(logDirectoryCreateTemplateConstant, directoryError)
	}

	logFile, openError := os.OpenFile(recorder.logFilePath, logFileOpenFlagsConstant, logFilePermissionsConstant)
	if openError != nil {
		return fmt.Errorf(logFileOpenErrorTemplateConstant, openError)
	}
	defer logFile.Close()

	if _, writeError := logFile.WriteString(entryText); writeError != nil {
		return fmt.Errorf(logFileWriteErrorTemplateConstant, writeError)
	}

	return nil
}

// DefaultLogFilePath resolves the well-known audit log location under the user's home directory.
func DefaultLogFilePath() (string, error) {
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil {
		return "", fmt.Errorf(homeDirectoryResolutionErrorTemplate, homeError)
	}
	return filepath.Join(homeDirectory, filepath.FromSlash(defaultLogFileRelativePathConstant)), nil
}

// NoopRecorder discards audit records.
type NoopRecorder struct{}

// NewNoopRecorder constructs a recorder that discards all records.
func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

// RecordSuccess implements Recorder for the no-op recorder.
func (*NoopRecorder) RecordSuccess(string, string) error {
	return nil
}

// RecordFailure implements Recorder for the no-op recorder.
func (*NoopRecorder) RecordFailure(string) error {
	return nil
}
