package sf2

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		limit   int
		wantErr error
	}{
		{"empty", "", 20, nil},
		{"exact limit", strings.Repeat("a", 20), 20, nil},
		{"over limit", strings.Repeat("a", 21), 20, ErrStringLimit},
		{"non-ascii", "Flügel", 20, ErrStringNonASCII},
		{"non-ascii and too long", strings.Repeat("ü", 30), 20, ErrStringNonASCII},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateString(tt.value, tt.limit)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStringLimitErrorCarriesLengths(t *testing.T) {
	err := ValidateString(strings.Repeat("x", 257), InfoStringLimit)

	var limitErr *StringLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected *StringLimitError, got %T", err)
	}
	if limitErr.Limit != 256 || limitErr.Len != 257 {
		t.Errorf("got limit=%d len=%d, want 256/257", limitErr.Limit, limitErr.Len)
	}
	if !strings.Contains(err.Error(), "256") || !strings.Contains(err.Error(), "257") {
		t.Errorf("message %q should mention both lengths", err.Error())
	}
}

func TestSampleHeaderValidate(t *testing.T) {
	tests := []struct {
		name    string
		header  SampleHeader
		wantErr error
	}{
		{
			name:   "minimal valid",
			header: SampleHeader{Name: "a", Start: 0, End: 48, StartLoop: 8, EndLoop: 40},
		},
		{
			name:   "relocated",
			header: SampleHeader{Name: "a", Start: 1000, End: 1100, StartLoop: 1008, EndLoop: 1092},
		},
		{
			name:    "too short",
			header:  SampleHeader{Name: "a", Start: 0, End: 47, StartLoop: 8, EndLoop: 39},
			wantErr: ErrSampleTooShort,
		},
		{
			name:    "loop too short",
			header:  SampleHeader{Name: "a", Start: 0, End: 100, StartLoop: 8, EndLoop: 39},
			wantErr: ErrSampleLoopTooShort,
		},
		{
			name:    "not enough lead",
			header:  SampleHeader{Name: "a", Start: 0, End: 100, StartLoop: 7, EndLoop: 90},
			wantErr: ErrSampleLoopNotEnoughLead,
		},
		{
			name:    "not enough tail",
			header:  SampleHeader{Name: "a", Start: 0, End: 100, StartLoop: 8, EndLoop: 93},
			wantErr: ErrSampleLoopNotEnoughTail,
		},
		{
			name:    "end before start",
			header:  SampleHeader{Name: "a", Start: 100, End: 10, StartLoop: 8, EndLoop: 40},
			wantErr: ErrSampleTooShort,
		},
		{
			name:   "terminal",
			header: TerminalSampleHeader(),
		},
		{
			name:    "terminal with data",
			header:  SampleHeader{Name: EndOfSamples, SampleRate: 44100},
			wantErr: ErrSampleTerminalNotNull,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.header.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}
