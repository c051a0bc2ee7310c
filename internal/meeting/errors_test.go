package meeting

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "field and message",
			err:  &ValidationError{Field: "text", Message: "cannot be empty"},
			want: "validation error on field text: cannot be empty",
		},
		{
			name: "empty field",
			err:  &ValidationError{Field: "", Message: "invalid"},
			want: "validation error on field : invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ValidationError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTypedErrors_MatchSentinels(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", &ValidationError{Field: "top_k", Message: "must be positive"}, ErrInvalidInput},
		{"dimension mismatch", &DimensionMismatchError{Expected: 3, Got: 4}, ErrInvalidInput},
		{"session not found", &SessionNotFoundError{SessionID: "abc"}, ErrNotFound},
		{"search failed", &SearchFailedError{Err: cause}, ErrExternalService},
		{"ingestion failed", &IngestionFailedError{Stage: "embed", Err: cause}, ErrExternalService},
		{"wrapped validation", fmt.Errorf("ingest: %w", &ValidationError{Field: "text"}), ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.sentinel)
			}
		})
	}
}

func TestCollaboratorErrors_Unwrap(t *testing.T) {
	cause := errors.New("timeout")

	searchErr := &SearchFailedError{Err: cause}
	if !errors.Is(searchErr, cause) {
		t.Error("SearchFailedError should unwrap to its cause")
	}

	ingestErr := &IngestionFailedError{Stage: "transcribe", Err: cause}
	if !errors.Is(ingestErr, cause) {
		t.Error("IngestionFailedError should unwrap to its cause")
	}
	if got, want := ingestErr.Error(), "ingestion failed at transcribe: timeout"; got != want {
		t.Errorf("IngestionFailedError.Error() = %v, want %v", got, want)
	}

	var dimErr *DimensionMismatchError
	if errors.As(fmt.Errorf("insert: %w", &DimensionMismatchError{Expected: 384, Got: 768}), &dimErr) {
		if dimErr.Expected != 384 || dimErr.Got != 768 {
			t.Errorf("DimensionMismatchError = %+v, want expected 384 got 768", dimErr)
		}
	} else {
		t.Error("errors.As should find DimensionMismatchError")
	}
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		msg     string
		wantNil bool
		wantMsg string
	}{
		{name: "nil error", err: nil, msg: "context", wantNil: true},
		{name: "wrapped error", err: errors.New("original error"), msg: "context", wantMsg: "context: original error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapError(tt.err, tt.msg)
			if tt.wantNil {
				if got != nil {
					t.Errorf("WrapError() = %v, want nil", got)
				}
				return
			}
			if got == nil || got.Error() != tt.wantMsg {
				t.Errorf("WrapError() = %v, want %v", got, tt.wantMsg)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("WrapError() should wrap original error")
			}
		})
	}
}
