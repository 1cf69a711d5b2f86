package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		want     *time.Location
		wantErr  bool
	}{
		{name: "empty uses local", timezone: "", want: time.Local},
		{name: "Local keyword", timezone: "Local", want: time.Local},
		{name: "UTC", timezone: "UTC", want: time.UTC},
		{name: "invalid", timezone: "Mars/Olympus_Mons", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadLocation(%q) error = %v, wantErr %v", tt.timezone, err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want.String() {
				t.Errorf("LoadLocation(%q) = %v, want %v", tt.timezone, got, tt.want)
			}
		})
	}
}

func TestParseHourMinute(t *testing.T) {
	tests := []struct {
		input      string
		wantHour   int
		wantMinute int
		wantErr    bool
	}{
		{"21:00", 21, 0, false},
		{"09:05", 9, 5, false},
		{"00:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"9pm", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			hour, minute, err := ParseHourMinute(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHourMinute(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if hour != tt.wantHour || minute != tt.wantMinute {
				t.Errorf("ParseHourMinute(%q) = %d:%d, want %d:%d", tt.input, hour, minute, tt.wantHour, tt.wantMinute)
			}
			if got := FormatHourMinute(hour, minute); got != tt.input {
				t.Errorf("FormatHourMinute() = %q, want %q", got, tt.input)
			}
		})
	}
}

func TestParseDateInLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone database unavailable: %v", err)
	}

	got, err := ParseDateInLocation("2024-03-10", loc)
	if err != nil {
		t.Fatalf("ParseDateInLocation failed: %v", err)
	}
	want := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("ParseDateInLocation() = %v, want %v", got, want)
	}

	if _, err := ParseDateInLocation("2024/03/10", loc); err == nil {
		t.Error("expected error for invalid date format")
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2024, 1, 1, 14, 30, 15, 99, time.UTC)
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := StartOfDay(in); !got.Equal(want) {
		t.Errorf("StartOfDay() = %v, want %v", got, want)
	}
}

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		month     string
		wantFirst string
		wantLast  string
		wantErr   bool
	}{
		{"2024-01", "2024-01-01", "2024-01-31", false},
		{"2024-02", "2024-02-01", "2024-02-29", false},
		{"2023-02", "2023-02-01", "2023-02-28", false},
		{"2024-12", "2024-12-01", "2024-12-31", false},
		{"2024-13", "", "", true},
		{"january", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.month, func(t *testing.T) {
			first, last, err := MonthBounds(tt.month)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MonthBounds(%q) error = %v, wantErr %v", tt.month, err, tt.wantErr)
			}
			if first != tt.wantFirst || last != tt.wantLast {
				t.Errorf("MonthBounds(%q) = (%s, %s), want (%s, %s)", tt.month, first, last, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	if !ValidateTimeFormat("07:30") {
		t.Error("expected 07:30 to be valid")
	}
	if ValidateTimeFormat("7.30") {
		t.Error("expected 7.30 to be invalid")
	}
	if !ValidateDateFormat("2024-01-02") {
		t.Error("expected 2024-01-02 to be valid")
	}
	if ValidateDateFormat("02-01-2024") {
		t.Error("expected 02-01-2024 to be invalid")
	}
	if !ValidateTimezone("Local") || !ValidateTimezone("") || !ValidateTimezone("UTC") {
		t.Error("expected Local, empty and UTC to be valid timezones")
	}
	if ValidateTimezone("Not/AZone") {
		t.Error("expected Not/AZone to be invalid")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	if got := ExpandHome("~/.config/habithero/habithero.db"); got != filepath.Join(home, ".config/habithero/habithero.db") {
		t.Errorf("ExpandHome() = %q", got)
	}
	if got := ExpandHome("/tmp/habithero.db"); got != "/tmp/habithero.db" {
		t.Errorf("ExpandHome() changed an absolute path: %q", got)
	}
	if got := ExpandHome("~user/file"); got != "~user/file" {
		t.Errorf("ExpandHome() expanded another user's home: %q", got)
	}
}

func TestIsPostgresURL(t *testing.T) {
	if !IsPostgresURL("postgres://user@localhost/habithero") {
		t.Error("expected postgres:// to be detected")
	}
	if !IsPostgresURL("postgresql://localhost/habithero") {
		t.Error("expected postgresql:// to be detected")
	}
	if IsPostgresURL("/home/user/.config/habithero/habithero.db") {
		t.Error("expected file path not to be detected as postgres")
	}
}
