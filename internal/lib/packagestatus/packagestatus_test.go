package packagestatus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMidnight(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "middle of the day",
			in:   time.Date(2024, 3, 10, 15, 45, 12, 99, time.UTC),
			want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "already midnight",
			in:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "other zone is normalized to utc day",
			in:   time.Date(2024, 3, 10, 1, 0, 0, 0, moscow),
			want: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(Midnight(tt.in)), "got %s", Midnight(tt.in))
		})
	}
}

func TestCompute_TableTests(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	day0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		reference  time.Time
		duration   int
		now        time.Time
		wantActive bool
		wantDays   int
		wantExpiry time.Time
	}{
		{
			name:       "at creation days remaining equals duration",
			reference:  created,
			duration:   30,
			now:        created,
			wantActive: true,
			wantDays:   30,
			wantExpiry: day0.AddDate(0, 0, 30),
		},
		{
			name:       "created exactly at midnight",
			reference:  day0,
			duration:   7,
			now:        day0,
			wantActive: true,
			wantDays:   7,
			wantExpiry: day0.AddDate(0, 0, 7),
		},
		{
			name:       "partial day is rounded up",
			reference:  created,
			duration:   30,
			now:        day0.AddDate(0, 0, 29).Add(time.Minute),
			wantActive: true,
			wantDays:   1,
			wantExpiry: day0.AddDate(0, 0, 30),
		},
		{
			name:       "exactly at expiry is expired",
			reference:  created,
			duration:   30,
			now:        day0.AddDate(0, 0, 30),
			wantActive: false,
			wantDays:   0,
			wantExpiry: day0.AddDate(0, 0, 30),
		},
		{
			name:       "long after expiry",
			reference:  created,
			duration:   30,
			now:        day0.AddDate(0, 0, 32),
			wantActive: false,
			wantDays:   0,
			wantExpiry: day0.AddDate(0, 0, 30),
		},
		{
			name:       "one day package",
			reference:  created,
			duration:   1,
			now:        created,
			wantActive: true,
			wantDays:   1,
			wantExpiry: day0.AddDate(0, 0, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.reference, tt.duration, tt.now)
			assert.Equal(t, tt.wantActive, got.IsActive)
			assert.Equal(t, tt.wantDays, got.DaysRemaining)
			assert.True(t, tt.wantExpiry.Equal(got.ExpiryDate), "expiry %s, want %s", got.ExpiryDate, tt.wantExpiry)
		})
	}
}

func TestCompute_Properties(t *testing.T) {
	reference := time.Date(2023, 11, 5, 17, 20, 0, 0, time.UTC)

	for d := 1; d <= 400; d += 13 {
		expiry := Midnight(reference).AddDate(0, 0, d)
		for offset := -48 * time.Hour; offset <= 48*time.Hour; offset += 7 * time.Hour {
			now := expiry.Add(offset)
			got := Compute(reference, d, now)

			assert.True(t, expiry.Equal(got.ExpiryDate))
			assert.Equal(t, now.Before(expiry), got.IsActive)
			assert.GreaterOrEqual(t, got.DaysRemaining, 0)
			if !got.IsActive {
				assert.Equal(t, 0, got.DaysRemaining)
			}
		}
	}
}
