package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 21, 30, 0, 0, time.UTC)
}

func TestComputePrices(t *testing.T) {
	want := map[Type]map[Period]Amount{
		TypeGold:     {PeriodWeekly: Units(50), PeriodMonthly: Units(150), PeriodAnnually: Units(1500)},
		TypePlatinum: {PeriodWeekly: Units(80), PeriodMonthly: Units(250), PeriodAnnually: Units(2500)},
		TypeDiamond:  {PeriodWeekly: Units(120), PeriodMonthly: Units(400), PeriodAnnually: Units(4000)},
	}

	start := date(2024, time.March, 10)
	for _, typ := range Types {
		for _, period := range Periods {
			q, err := Compute(typ, period, start)
			require.NoError(t, err)
			assert.Equal(t, want[typ][period], q.TotalAmount, "%s/%s", typ, period)
			assert.Equal(t, start, q.StartDate)
		}
	}
}

func TestComputeEndDates(t *testing.T) {
	tests := []struct {
		name   string
		period Period
		start  time.Time
		want   time.Time
	}{
		{"weekly", PeriodWeekly, date(2024, time.March, 10), date(2024, time.March, 17)},
		{"weekly across year end", PeriodWeekly, date(2024, time.December, 28), date(2025, time.January, 4)},
		{"monthly", PeriodMonthly, date(2024, time.March, 10), date(2024, time.April, 10)},
		{"monthly clamps to leap february", PeriodMonthly, date(2024, time.January, 31), date(2024, time.February, 29)},
		{"monthly clamps to february", PeriodMonthly, date(2023, time.January, 31), date(2023, time.February, 28)},
		{"monthly clamps to thirty days", PeriodMonthly, date(2024, time.March, 31), date(2024, time.April, 30)},
		{"monthly across year end", PeriodMonthly, date(2024, time.December, 31), date(2025, time.January, 31)},
		{"annually", PeriodAnnually, date(2024, time.March, 10), date(2025, time.March, 10)},
		{"annually clamps leap day", PeriodAnnually, date(2024, time.February, 29), date(2025, time.February, 28)},
		{"annually keeps leap day", PeriodAnnually, date(2027, time.February, 28), date(2028, time.February, 28)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Compute(TypeGold, tt.period, tt.start)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.EndDate)
		})
	}
}

func TestComputeRejectsUnknownParameters(t *testing.T) {
	_, err := Compute("unobtainium", PeriodMonthly, date(2024, time.March, 10))
	assert.ErrorIs(t, err, ErrInvalidMembershipParameter)

	_, err = Compute(TypeGold, "daily", date(2024, time.March, 10))
	assert.ErrorIs(t, err, ErrInvalidMembershipParameter)

	_, err = Compute("", "", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidMembershipParameter)
}

func genStart() *rapid.Generator[time.Time] {
	return rapid.Custom(func(t *rapid.T) time.Time {
		return time.Date(
			rapid.IntRange(1970, 2200).Draw(t, "year"),
			time.Month(rapid.IntRange(1, 12).Draw(t, "month")),
			rapid.IntRange(1, 31).Draw(t, "day"),
			rapid.IntRange(0, 23).Draw(t, "hour"),
			rapid.IntRange(0, 59).Draw(t, "minute"),
			0, 0, time.UTC,
		)
	})
}

func TestComputeProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		typ := rapid.SampledFrom(Types).Draw(t, "type")
		period := rapid.SampledFrom(Periods).Draw(t, "period")
		start := genStart().Draw(t, "start")

		first, err := Compute(typ, period, start)
		if err != nil {
			t.Fatalf("compute: %v", err)
		}
		second, _ := Compute(typ, period, start)
		if first != second {
			t.Fatalf("compute is not deterministic: %+v vs %+v", first, second)
		}
		if !first.EndDate.After(start) {
			t.Fatalf("end %v not after start %v", first.EndDate, start)
		}

		other, _ := Compute(typ, period, start.AddDate(0, 0, 3))
		if other.TotalAmount != first.TotalAmount {
			t.Fatalf("price depends on start date")
		}

		switch period {
		case PeriodWeekly:
			if got := first.EndDate.Sub(start); got != 7*24*time.Hour {
				t.Fatalf("weekly lasted %v", got)
			}
		case PeriodMonthly, PeriodAnnually:
			if first.EndDate.Day() > start.Day() {
				t.Fatalf("end day %d beyond start day %d", first.EndDate.Day(), start.Day())
			}
			if h, m, _ := first.EndDate.Clock(); h != start.Hour() || m != start.Minute() {
				t.Fatalf("time of day changed: %v -> %v", start, first.EndDate)
			}
		}
	})
}

func TestAmount(t *testing.T) {
	assert.Equal(t, "150.00", Units(150).String())
	assert.Equal(t, "-0.05", Amount(-5).String())

	a, err := ParseAmount("2500.5")
	require.NoError(t, err)
	assert.Equal(t, Amount(250050), a)

	_, err = ParseAmount("1.234")
	assert.Error(t, err)

	for _, bad := range []string{"1.-5", "1.+5", "--5", "+5", "", ".5", "1.", "1 .5", "1e2"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, "%q", bad)
	}

	neg, err := ParseAmount("-12.5")
	require.NoError(t, err)
	assert.Equal(t, Amount(-1250), neg)

	var scanned Amount
	require.NoError(t, scanned.Scan([]byte("4000.00")))
	assert.Equal(t, Units(4000), scanned)

	b, err := Units(80).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "80.00", string(b))

	var decoded Amount
	require.NoError(t, decoded.UnmarshalJSON([]byte("120.00")))
	assert.Equal(t, Units(120), decoded)
}
