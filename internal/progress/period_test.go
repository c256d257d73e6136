package progress

import (
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/models"
)

func utc(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestResolvePeriod(t *testing.T) {
	tests := []struct {
		name               string
		unit               constants.FrequencyUnit
		ref                time.Time
		weekStartsAtMonday bool
		dayStart           *models.DayStart
		wantStart          time.Time
		wantEnd            time.Time
	}{
		{
			name:      "day at midnight boundaries",
			unit:      constants.UnitDay,
			ref:       utc(2024, 6, 11, 1, 0),
			wantStart: utc(2024, 6, 11, 0, 0),
			wantEnd:   utc(2024, 6, 12, 0, 0),
		},
		{
			name:      "day shifted by day start",
			unit:      constants.UnitDay,
			ref:       utc(2024, 6, 11, 9, 0),
			dayStart:  &models.DayStart{Hour: 6},
			wantStart: utc(2024, 6, 11, 6, 0),
			wantEnd:   utc(2024, 6, 12, 6, 0),
		},
		{
			name:      "before day start belongs to previous day",
			unit:      constants.UnitDay,
			ref:       utc(2024, 6, 11, 3, 0),
			dayStart:  &models.DayStart{Hour: 6},
			wantStart: utc(2024, 6, 10, 6, 0),
			wantEnd:   utc(2024, 6, 11, 6, 0),
		},
		{
			name:      "week starting sunday on a wednesday",
			unit:      constants.UnitWeek,
			ref:       utc(2024, 6, 12, 15, 0),
			wantStart: utc(2024, 6, 9, 0, 0),
			wantEnd:   utc(2024, 6, 16, 0, 0),
		},
		{
			name:      "week starting sunday on a sunday",
			unit:      constants.UnitWeek,
			ref:       utc(2024, 6, 16, 12, 0),
			wantStart: utc(2024, 6, 16, 0, 0),
			wantEnd:   utc(2024, 6, 23, 0, 0),
		},
		{
			name:               "week starting monday on a sunday stays in the current week",
			unit:               constants.UnitWeek,
			ref:                utc(2024, 6, 16, 12, 0),
			weekStartsAtMonday: true,
			wantStart:          utc(2024, 6, 10, 0, 0),
			wantEnd:            utc(2024, 6, 17, 0, 0),
		},
		{
			name:               "week starting monday on a monday",
			unit:               constants.UnitWeek,
			ref:                utc(2024, 6, 17, 0, 30),
			weekStartsAtMonday: true,
			wantStart:          utc(2024, 6, 17, 0, 0),
			wantEnd:            utc(2024, 6, 24, 0, 0),
		},
		{
			name:               "week starting monday on a saturday",
			unit:               constants.UnitWeek,
			ref:                utc(2024, 6, 15, 23, 59),
			weekStartsAtMonday: true,
			wantStart:          utc(2024, 6, 10, 0, 0),
			wantEnd:            utc(2024, 6, 17, 0, 0),
		},
		{
			name:               "week boundaries ignore day start",
			unit:               constants.UnitWeek,
			ref:                utc(2024, 6, 17, 4, 0),
			weekStartsAtMonday: true,
			dayStart:           &models.DayStart{Hour: 5},
			wantStart:          utc(2024, 6, 17, 0, 0),
			wantEnd:            utc(2024, 6, 24, 0, 0),
		},
		{
			name:      "sunday week boundaries ignore day start",
			unit:      constants.UnitWeek,
			ref:       utc(2024, 6, 12, 12, 0),
			dayStart:  &models.DayStart{Hour: 6},
			wantStart: utc(2024, 6, 9, 0, 0),
			wantEnd:   utc(2024, 6, 16, 0, 0),
		},
		{
			name:      "month",
			unit:      constants.UnitMonth,
			ref:       utc(2024, 6, 30, 23, 0),
			wantStart: utc(2024, 6, 1, 0, 0),
			wantEnd:   utc(2024, 7, 1, 0, 0),
		},
		{
			name:      "month boundaries ignore day start",
			unit:      constants.UnitMonth,
			ref:       utc(2024, 6, 1, 3, 0),
			dayStart:  &models.DayStart{Hour: 6},
			wantStart: utc(2024, 6, 1, 0, 0),
			wantEnd:   utc(2024, 7, 1, 0, 0),
		},
		{
			name:      "february in a leap year",
			unit:      constants.UnitMonth,
			ref:       utc(2024, 2, 29, 12, 0),
			wantStart: utc(2024, 2, 1, 0, 0),
			wantEnd:   utc(2024, 3, 1, 0, 0),
		},
		{
			name:      "december rolls into next year",
			unit:      constants.UnitMonth,
			ref:       utc(2024, 12, 15, 12, 0),
			wantStart: utc(2024, 12, 1, 0, 0),
			wantEnd:   utc(2025, 1, 1, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolvePeriod(tt.unit, tt.ref, tt.weekStartsAtMonday, tt.dayStart)
			if !ok {
				t.Fatalf("ResolvePeriod() reported untracked for %q", tt.unit)
			}
			if !got.Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v, want %v", got.Start, tt.wantStart)
			}
			if !got.End.Equal(tt.wantEnd) {
				t.Errorf("End = %v, want %v", got.End, tt.wantEnd)
			}
			if !got.Contains(tt.ref) {
				t.Errorf("period %v does not contain reference %v", got, tt.ref)
			}
		})
	}
}

func TestResolvePeriod_UnknownUnit(t *testing.T) {
	for _, unit := range []constants.FrequencyUnit{"", "year", "fortnight"} {
		if _, ok := ResolvePeriod(unit, utc(2024, 6, 11, 0, 0), false, nil); ok {
			t.Errorf("ResolvePeriod(%q) should report untracked", unit)
		}
	}
}

func TestResolvePeriod_NonUTCReference(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	// 2024-06-10 22:00 local is 2024-06-11 03:00 UTC
	ref := time.Date(2024, 6, 10, 22, 0, 0, 0, loc)

	got, ok := ResolvePeriod(constants.UnitDay, ref, false, nil)
	if !ok {
		t.Fatal("expected tracked period")
	}
	if want := utc(2024, 6, 11, 0, 0); !got.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", got.Start, want)
	}
}
