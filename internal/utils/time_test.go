package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		wantErr  bool
	}{
		{
			name:     "empty string returns local",
			timezone: "",
			wantErr:  false,
		},
		{
			name:     "Local returns local",
			timezone: "Local",
			wantErr:  false,
		},
		{
			name:     "valid timezone UTC",
			timezone: "UTC",
			wantErr:  false,
		},
		{
			name:     "valid timezone Asia/Tokyo",
			timezone: "Asia/Tokyo",
			wantErr:  false,
		},
		{
			name:     "invalid timezone",
			timezone: "Invalid/Timezone",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc == nil {
				t.Errorf("LoadLocation() returned nil location without error")
			}
			if ValidateTimezone(tt.timezone) == tt.wantErr {
				t.Errorf("ValidateTimezone(%q) disagrees with LoadLocation", tt.timezone)
			}
		})
	}
}

func TestTodayUsesLocation(t *testing.T) {
	// 23:30 UTC on Oct 18 is already Oct 19 in Tokyo.
	fixed := func() time.Time { return time.Date(2026, time.October, 18, 23, 30, 0, 0, time.UTC) }
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	got := Today(fixed, tokyo)
	if FormatDate(got) != "2026-10-19" {
		t.Errorf("Today() = %s, want 2026-10-19", FormatDate(got))
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("Today() should be midnight, got %v", got)
	}

	gotUTC := Today(fixed, time.UTC)
	if FormatDate(gotUTC) != "2026-10-18" {
		t.Errorf("Today() in UTC = %s, want 2026-10-18", FormatDate(gotUTC))
	}
}

func TestIsAfterDay(t *testing.T) {
	base := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a    time.Time
		want bool
	}{
		{"same day later hour", time.Date(2026, time.October, 18, 23, 59, 0, 0, time.UTC), false},
		{"next day", time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), true},
		{"previous day", time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC), false},
		{"next month earlier day", time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC), true},
		{"next year", time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAfterDay(tt.a, base); got != tt.want {
				t.Errorf("IsAfterDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDateInLocation(t *testing.T) {
	got, err := ParseDateInLocation("2026-02-28", time.UTC)
	if err != nil {
		t.Fatalf("ParseDateInLocation() failed: %v", err)
	}
	if !SameDay(got, time.Date(2026, time.February, 28, 15, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", got)
	}
	if _, err := ParseDateInLocation("28/02/2026", time.UTC); err == nil {
		t.Error("expected error for invalid format")
	}
}
