package gdd

import (
	"errors"
	"testing"
	"time"
)

func TestValidateManualReset(t *testing.T) {
	existing := []Reset{
		{Date: day(1), Type: ResetInitial, RunNumber: 1},
		{Date: day(10), Type: ResetManual, RunNumber: 2},
	}

	tests := []struct {
		name    string
		date    time.Time
		wantErr error
	}{
		{"valid date in current run", day(15), nil},
		{"latest available date", day(20), nil},
		{"before start date", day(1).AddDate(0, 0, -5), ErrInvalidResetDate},
		{"after latest date", day(25), ErrInvalidResetDate},
		{"before current run start", day(5), ErrInvalidResetDate},
		{"duplicate of existing reset", day(10), ErrDuplicateResetDate},
		{"duplicate of initial reset", day(1), ErrDuplicateResetDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateManualReset(tt.date, day(1), day(20), existing)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateManualReset(%s) = %v, want %v", tt.date.Format("2006-01-02"), err, tt.wantErr)
			}
		})
	}
}
