package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("m/d/Y")
	require.NoError(t, err)
	assert.Equal(t, "m/d/Y", f.Layout())

	_, err = ParseFormat("d/d/Y")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ParseFormat("d/m")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	assert.Equal(t, DayMonthYear, Format{}.Layout())
}

func TestParseDayMonthYear(t *testing.T) {
	f := MustFormat(DayMonthYear)
	cases := map[string]Date{
		"01/06/2024": MustNew(2024, time.June, 1),
		"1-6-2024":   MustNew(2024, time.June, 1),
		"07.06.2024": MustNew(2024, time.June, 7),
		"29 02 2024": MustNew(2024, time.February, 29),
	}
	for in, want := range cases {
		got, err := f.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseMonthDayYear(t *testing.T) {
	got, err := MustFormat(MonthDayYear).Parse("06/03/2024")
	require.NoError(t, err)
	assert.Equal(t, MustNew(2024, time.June, 3), got)
}

func TestParseRejects(t *testing.T) {
	f := MustFormat(DayMonthYear)
	for _, in := range []string{
		"31/02/2024",
		"31/04/2024",
		"00/01/2024",
		"01/13/2024",
		"aa/06/2024",
		"01/06",
		"01/06/2024/1",
		"01//2024",
		"+1/06/2024",
		"001/06/2024",
		"01/06/2",
		"01/06/20",
		"01/06/202",
		"01/06/20245",
		"",
	} {
		_, err := f.Parse(in)
		assert.ErrorIs(t, err, ErrParse, in)
	}
}

func TestFormatPadsAndRoundTrips(t *testing.T) {
	for _, layout := range []string{DayMonthYear, MonthDayYear, "Y-m-d"} {
		f := MustFormat(layout)
		for d := MustNew(2023, time.December, 25); d.Before(MustNew(2024, time.March, 5)); d = d.AddDays(1) {
			text := f.Format(d)
			back, err := f.Parse(text)
			require.NoError(t, err, text)
			assert.Equal(t, d, back, text)
		}
	}
	assert.Equal(t, "03/06/2024", MustFormat(DayMonthYear).Format(MustNew(2024, time.June, 3)))
	assert.Equal(t, "06/03/2024", MustFormat(MonthDayYear).Format(MustNew(2024, time.June, 3)))

	early := MustNew(812, time.January, 5)
	text := MustFormat(DayMonthYear).Format(early)
	assert.Equal(t, "05/01/0812", text)
	back, err := MustFormat(DayMonthYear).Parse(text)
	require.NoError(t, err)
	assert.Equal(t, early, back)
}

func TestCanonicalize(t *testing.T) {
	out, err := MustFormat(DayMonthYear).Canonicalize("1-6-2024")
	require.NoError(t, err)
	assert.Equal(t, "01/06/2024", out)

	_, err = MustFormat(DayMonthYear).Canonicalize("31/02/2024")
	assert.Error(t, err)
}
