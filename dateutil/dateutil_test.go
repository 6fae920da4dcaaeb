package dateutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToStorageDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "strips leading zeros",
			input:    "2024-03-05",
			expected: "5/3/24",
		},
		{
			name:     "double digit day and month",
			input:    "2024-12-25",
			expected: "25/12/24",
		},
		{
			name:     "start of century",
			input:    "2000-01-01",
			expected: "1/1/00",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "not a date",
			input:   "yesterday",
			wantErr: true,
		},
		{
			name:    "wrong separator",
			input:   "2024/03/05",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToStorageDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestToDisplayDate(t *testing.T) {
	t.Run("from storage text", func(t *testing.T) {
		assert.Equal(t, "2024-03-05", ToDisplayDate("5/3/24"))
		assert.Equal(t, "2024-12-25", ToDisplayDate("25/12/24"))
	})

	t.Run("from time.Time", func(t *testing.T) {
		d := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, "2024-03-05", ToDisplayDate(d))
		assert.Equal(t, "2024-03-05", ToDisplayDate(&d))
	})

	t.Run("malformed text", func(t *testing.T) {
		assert.Equal(t, "", ToDisplayDate("not-a-date"))
		assert.Equal(t, "", ToDisplayDate(nil))
		assert.Equal(t, "", ToDisplayDate((*time.Time)(nil)))
	})
}

// Round trip through the storage format must recover the original ISO date
// for every day of a 2000-2099 year.
func TestStorageDateRoundTrip(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 366; d++ {
		iso := start.AddDate(0, 0, d).Format("2006-01-02")
		stored, err := ToStorageDate(iso)
		require.NoError(t, err, iso)
		assert.Equal(t, iso, ToDisplayDate(stored), "round trip of %s via %s", iso, stored)
	}
}

func TestNormalizeTime(t *testing.T) {
	assert.Equal(t, "09:30:00", NormalizeTime("09:30"))
	assert.Equal(t, "09:30:15", NormalizeTime("09:30:15"))
	assert.Equal(t, "", NormalizeTime(""))
	// No range validation: nonsense of the right length passes through.
	assert.Equal(t, "25:99:00", NormalizeTime("25:99"))
}

func TestCompareDates(t *testing.T) {
	tests := []struct {
		a, b string
		sign int
	}{
		{"5/3/24", "5/3/24", 0},
		{"4/3/24", "5/3/24", -1},
		{"6/3/24", "5/3/24", 1},
		{"31/12/23", "1/1/24", -1},
		{"1/2/24", "31/1/24", 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s vs %s", tt.a, tt.b), func(t *testing.T) {
			got, err := CompareDates(tt.a, tt.b)
			require.NoError(t, err)
			switch {
			case tt.sign < 0:
				assert.Negative(t, got)
			case tt.sign > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}

	_, err := CompareDates("bogus", "5/3/24")
	assert.Error(t, err)
}

func TestVendorDateToStorage(t *testing.T) {
	got, err := VendorDateToStorage("8/2/2021")
	require.NoError(t, err)
	assert.Equal(t, "2/8/21", got)

	got, err = VendorDateToStorage("12/31/2024")
	require.NoError(t, err)
	assert.Equal(t, "31/12/24", got)

	_, err = VendorDateToStorage("2021-08-02")
	assert.Error(t, err)
}
