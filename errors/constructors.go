package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *ProjsyncError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *ProjsyncError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// ProviderUnavailable reports that the local data provider could not be reached
// or failed before returning data.
func ProviderUnavailable(provider string, err error) *ProjsyncError {
	return Wrap(err, ErrCodeProviderUnavailable,
		fmt.Sprintf("local data provider '%s' is unavailable", provider)).
		WithDetail("provider", provider)
}

// MalformedResponse reports that the local data provider answered with data
// that failed validation.
func MalformedResponse(provider string, err error) *ProjsyncError {
	return Wrap(err, ErrCodeMalformedResponse,
		fmt.Sprintf("local data provider '%s' returned malformed data", provider)).
		WithDetail("provider", provider)
}

// CloudFetchFailed reports that the cloud metadata source could not be read.
func CloudFetchFailed(source string, err error) *ProjsyncError {
	return Wrap(err, ErrCodeCloudFetchFailed,
		fmt.Sprintf("failed to fetch cloud project metadata from %s", source)).
		WithDetail("source", source)
}

// DuplicateProject reports a cloud record set that uses the same id twice.
func DuplicateProject(id int64) *ProjsyncError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("duplicate project id %d in cloud records", id)).
		WithDetail("projectId", id)
}

// DaemonRunning reports that another daemon instance holds the pidfile.
func DaemonRunning(pid int) *ProjsyncError {
	return New(ErrCodeDaemonRunning, fmt.Sprintf("daemon already running with PID %d", pid)).
		WithDetail("pid", pid)
}

// ProjectNotFound reports a project id that is not known locally or in the cloud.
func ProjectNotFound(id int64) *ProjsyncError {
	return New(ErrCodeNotFound, fmt.Sprintf("project %d not found", id)).
		WithDetail("projectId", id)
}

// DaemonNotRunning reports that no daemon owns the pidfile or socket.
func DaemonNotRunning(socketPath string) *ProjsyncError {
	return New(ErrCodeDaemonNotRunning, "daemon is not running").
		WithDetail("socket", socketPath)
}
