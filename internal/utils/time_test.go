package utils

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{name: "morning", input: "08:30", wantHour: 8, wantMinute: 30},
		{name: "midnight", input: "00:00", wantHour: 0, wantMinute: 0},
		{name: "last minute", input: "23:59", wantHour: 23, wantMinute: 59},
		{name: "hour out of range", input: "24:00", wantErr: true},
		{name: "missing minutes", input: "8", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m, err := ParseClock(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if h != tt.wantHour || m != tt.wantMinute {
				t.Errorf("ParseClock() = %d:%d, want %d:%d", h, m, tt.wantHour, tt.wantMinute)
			}
		})
	}
}

func TestClockAndDateUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 6, 11, 1, 5, 0, 0, loc)

	if got := ClockUTC(ts); got != "23:05" {
		t.Errorf("ClockUTC() = %q, want %q", got, "23:05")
	}
	if got := DateUTC(ts); got != "2024-06-10" {
		t.Errorf("DateUTC() = %q, want %q", got, "2024-06-10")
	}
}

func TestParseInstant(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "rfc3339 with offset",
			input: "2024-06-11T10:00:00+02:00",
			want:  time.Date(2024, 6, 11, 8, 0, 0, 0, time.UTC),
		},
		{
			name:  "date and time",
			input: "2024-06-11 07:45",
			want:  time.Date(2024, 6, 11, 7, 45, 0, 0, time.UTC),
		},
		{
			name:  "bare date",
			input: "2024-06-11",
			want:  time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			input:   "yesterday",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInstant(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseInstant() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseInstant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateTimeFormat(t *testing.T) {
	if !ValidateTimeFormat("12:00") {
		t.Error("ValidateTimeFormat(12:00) = false, want true")
	}
	if ValidateTimeFormat("noon") {
		t.Error("ValidateTimeFormat(noon) = true, want false")
	}
}

func TestMinutesBetween(t *testing.T) {
	start := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	if got := MinutesBetween(start, start.Add(90*time.Minute)); got != 90 {
		t.Errorf("MinutesBetween() = %v, want 90", got)
	}
	if got := MinutesBetween(start, start.Add(-time.Hour)); got != -60 {
		t.Errorf("MinutesBetween() = %v, want -60", got)
	}
}
