package errors

import (
	"fmt"
	"testing"
)

func TestMiraError_Error(t *testing.T) {
	err := &MiraError{
		Code:    ErrNetwork,
		Message: "probe: connection refused",
	}

	expected := "NETWORK_ERROR: probe: connection refused"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewTranscriptMissing(t *testing.T) {
	err := NewTranscriptMissing("/tmp/does-not-exist.jsonl")

	if err.Code != ErrTranscriptMissing {
		t.Errorf("Code = %q, want %q", err.Code, ErrTranscriptMissing)
	}
	if err.Details["path"] != "/tmp/does-not-exist.jsonl" {
		t.Errorf("Details[path] = %v, want %q", err.Details["path"], "/tmp/does-not-exist.jsonl")
	}
}

func TestNewNetwork(t *testing.T) {
	err := NewNetwork("initialize", fmt.Errorf("dial tcp: connection refused"))

	if err.Code != ErrNetwork {
		t.Errorf("Code = %q, want %q", err.Code, ErrNetwork)
	}
	if err.Details["step"] != "initialize" {
		t.Errorf("Details[step] = %v, want %q", err.Details["step"], "initialize")
	}
}

func TestNewProtocol(t *testing.T) {
	err := NewProtocol("tools/call", "no data frame in response")

	if err.Code != ErrProtocol {
		t.Errorf("Code = %q, want %q", err.Code, ErrProtocol)
	}
	if err.Message != "tools/call: no data frame in response" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewStorage(t *testing.T) {
	err := NewStorage(fmt.Errorf("database is locked"))

	if err.Code != ErrStorage {
		t.Errorf("Code = %q, want %q", err.Code, ErrStorage)
	}
	if err.Message != "database is locked" {
		t.Errorf("Message = %q, want %q", err.Message, "database is locked")
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)

	if err.Code != ErrInternal {
		t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
	}
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	err := NewStorage(fmt.Errorf("disk I/O error"))

	if !Is(err, ErrStorage) {
		t.Error("Is(err, ErrStorage) = false, want true")
	}
	if Is(err, ErrNetwork) {
		t.Error("Is(err, ErrNetwork) = true, want false")
	}
	if Is(fmt.Errorf("plain"), ErrStorage) {
		t.Error("Is(plain error) = true, want false")
	}
	if Is(nil, ErrStorage) {
		t.Error("Is(nil) = true, want false")
	}
}
