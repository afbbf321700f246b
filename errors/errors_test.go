package errors

import (
	"fmt"
	"testing"
)

func TestProjsyncError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeInvalidInput, "bad input")
	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidInput, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeProviderUnavailable, "provider down")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeProviderUnavailable) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeMalformedResponse) {
		t.Error("Is should return false for non-matching code")
	}

	// Test Is through fmt wrapping
	outer := fmt.Errorf("refresh: %w", wrapped)
	if !Is(outer, ErrCodeProviderUnavailable) {
		t.Error("Is should see through fmt.Errorf wrapping")
	}

	// Test WithDetail
	detailed := err.WithDetail("provider", "daemon").WithDetail("attempt", 2)
	if detailed.Details["provider"] != "daemon" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	cause := fmt.Errorf("dial unix: no such file")

	err := ProviderUnavailable("daemon", cause)
	if err.Code != ErrCodeProviderUnavailable {
		t.Errorf("expected code %s, got %s", ErrCodeProviderUnavailable, err.Code)
	}
	if err.Details["provider"] != "daemon" {
		t.Error("ProviderUnavailable should include provider detail")
	}

	err = MalformedResponse("daemon", cause)
	if err.Code != ErrCodeMalformedResponse {
		t.Errorf("expected code %s, got %s", ErrCodeMalformedResponse, err.Code)
	}

	err = DuplicateProject(7)
	if err.Code != ErrCodeInvalidInput {
		t.Errorf("expected code %s, got %s", ErrCodeInvalidInput, err.Code)
	}
	if err.Details["projectId"] != int64(7) {
		t.Error("DuplicateProject should include projectId detail")
	}

	err = DaemonNotRunning("/run/projsyncd.sock")
	if err.Code != ErrCodeDaemonNotRunning {
		t.Errorf("expected code %s, got %s", ErrCodeDaemonNotRunning, err.Code)
	}
	if err.Details["socket"] != "/run/projsyncd.sock" {
		t.Error("DaemonNotRunning should include socket detail")
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(nil) != "" {
		t.Error("GetCode(nil) should be empty")
	}
	if GetCode(fmt.Errorf("plain")) != "" {
		t.Error("GetCode of a plain error should be empty")
	}
	if HasCode(fmt.Errorf("plain")) {
		t.Error("HasCode of a plain error should be false")
	}
	err := CloudFetchFailed("https://example.invalid", fmt.Errorf("timeout"))
	if GetCode(fmt.Errorf("sync: %w", err)) != ErrCodeCloudFetchFailed {
		t.Error("GetCode should unwrap to the ProjsyncError")
	}
}
