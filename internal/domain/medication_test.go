package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ClockTime
		wantErr bool
	}{
		{name: "padded", input: "08:00", want: ClockTime{Hour: 8, Minute: 0}},
		{name: "unpadded hour", input: "7:05", want: ClockTime{Hour: 7, Minute: 5}},
		{name: "surrounding spaces", input: " 21:30 ", want: ClockTime{Hour: 21, Minute: 30}},
		{name: "midnight", input: "00:00", want: ClockTime{}},
		{name: "last minute", input: "23:59", want: ClockTime{Hour: 23, Minute: 59}},
		{name: "missing separator", input: "0800", wantErr: true},
		{name: "hour out of range", input: "24:00", wantErr: true},
		{name: "minute out of range", input: "12:60", wantErr: true},
		{name: "negative hour", input: "-1:00", wantErr: true},
		{name: "letters", input: "ab:cd", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClockTime(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSchedule) {
					t.Fatalf("expected ErrInvalidSchedule, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClockTimeString(t *testing.T) {
	if got := (ClockTime{Hour: 7, Minute: 5}).String(); got != "07:05" {
		t.Errorf("got %q, want %q", got, "07:05")
	}
}

func TestMedicationActiveAt(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		med  Medication
		at   time.Time
		want bool
	}{
		{
			name: "continuous is always active",
			med:  Medication{Continuous: true, CreatedAt: created},
			at:   created.AddDate(5, 0, 0),
			want: true,
		},
		{
			name: "finite course within duration",
			med:  Medication{TreatmentDurationDays: 7, CreatedAt: created},
			at:   created.AddDate(0, 0, 3),
			want: true,
		},
		{
			name: "finite course on last instant",
			med:  Medication{TreatmentDurationDays: 7, CreatedAt: created},
			at:   created.AddDate(0, 0, 7),
			want: true,
		},
		{
			name: "finite course after duration",
			med:  Medication{TreatmentDurationDays: 7, CreatedAt: created},
			at:   created.AddDate(0, 0, 7).Add(time.Minute),
			want: false,
		},
		{
			name: "finite course without duration",
			med:  Medication{CreatedAt: created},
			at:   created,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.med.ActiveAt(tt.at); got != tt.want {
				t.Errorf("ActiveAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMedicationHasClockTime(t *testing.T) {
	med := Medication{ClockTimes: []string{"08:00", "20:00"}}

	if !med.HasClockTime("20:00") {
		t.Error("expected 20:00 to be scheduled")
	}
	if med.HasClockTime("12:00") {
		t.Error("expected 12:00 not to be scheduled")
	}
}
