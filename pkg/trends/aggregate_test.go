package trends

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmeter/solmeter/pkg/reading"
	"github.com/solmeter/solmeter/pkg/storage/memory"
	"github.com/solmeter/solmeter/pkg/timeline"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, store *memory.Storage, readings ...reading.Reading) {
	t.Helper()
	require.NoError(t, store.Write(context.Background(), readings))
}

func TestTrendsDailyBuckets(t *testing.T) {
	store := memory.New()
	agg := NewAggregator(store)
	seed(t, store,
		reading.Reading{Date: day(2025, 7, 1), M1: 10.123, M2: 4.456, Radiation: 180.0, Source: "manual"},
		reading.Reading{Date: day(2025, 7, 2), M1: 12.0, M2: 5.0, Source: "manual"},
	)

	points, err := agg.Trends(context.Background(), timeline.Daily, "", "")
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "2025-07-01", points[0].Key)
	assert.Equal(t, 10.12, points[0].M1)
	assert.Equal(t, 4.46, points[0].M2)
	assert.Equal(t, 14.58, points[0].Total)
	assert.Equal(t, 180.0, points[0].Radiation)
	assert.Equal(t, "2025-07-02", points[1].Key)
	assert.Equal(t, 17.0, points[1].Total)
}

func TestTrendsMonthlySumsAcrossDays(t *testing.T) {
	store := memory.New()
	agg := NewAggregator(store)
	seed(t, store,
		reading.Reading{Date: day(2025, 7, 1), M1: 10, M2: 4, Source: "manual"},
		reading.Reading{Date: day(2025, 7, 15), M1: 12, M2: 5, Source: "manual"},
		reading.Reading{Date: day(2025, 8, 1), M1: 9, M2: 3, Source: "manual"},
	)

	points, err := agg.Trends(context.Background(), timeline.Monthly, "", "")
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "2025-07", points[0].Key)
	assert.Equal(t, 22.0, points[0].M1)
	assert.Equal(t, 9.0, points[0].M2)
	assert.Equal(t, 31.0, points[0].Total)
	assert.Equal(t, "2025-08", points[1].Key)
	assert.Equal(t, 12.0, points[1].Total)
}

func TestTrendsFillsGaps(t *testing.T) {
	store := memory.New()
	agg := NewAggregator(store)
	seed(t, store,
		reading.Reading{Date: day(2025, 7, 1), M1: 10, Source: "manual"},
		reading.Reading{Date: day(2025, 7, 4), M1: 12, Source: "manual"},
	)

	points, err := agg.Trends(context.Background(), timeline.Daily, "", "")
	require.NoError(t, err)
	require.Len(t, points, 4)

	assert.Equal(t, "2025-07-02", points[1].Key)
	assert.Zero(t, points[1].Total)
	assert.Equal(t, "2025-07-03", points[2].Key)
	assert.Zero(t, points[2].Total)
}

func TestTrendsExplicitRange(t *testing.T) {
	store := memory.New()
	agg := NewAggregator(store)
	seed(t, store,
		reading.Reading{Date: day(2025, 7, 10), M1: 10, Source: "manual"},
	)

	points, err := agg.Trends(context.Background(), timeline.Daily, "2025-07-08", "2025-07-12")
	require.NoError(t, err)
	require.Len(t, points, 5)
	assert.Equal(t, "2025-07-08", points[0].Key)
	assert.Equal(t, "2025-07-12", points[4].Key)
	assert.Equal(t, 10.0, points[2].Total)
}

func TestTrendsWeeklyAcrossYearBoundary(t *testing.T) {
	store := memory.New()
	agg := NewAggregator(store)
	// Dec 30 2024 and Jan 2 2025 share ISO week 2025-W01.
	seed(t, store,
		reading.Reading{Date: day(2024, 12, 30), M1: 5, Source: "manual"},
		reading.Reading{Date: day(2025, 1, 2), M1: 7, Source: "manual"},
	)

	points, err := agg.Trends(context.Background(), timeline.Weekly, "", "")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2025-W01", points[0].Key)
	assert.Equal(t, 12.0, points[0].Total)
}

func TestTrendsEmptyStorage(t *testing.T) {
	store := memory.New()
	agg := NewAggregator(store)

	points, err := agg.Trends(context.Background(), timeline.Monthly, "", "")
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestTrendsInvalidRange(t *testing.T) {
	store := memory.New()
	agg := NewAggregator(store)

	_, err := agg.Trends(context.Background(), timeline.Daily, "not-a-date", "2025-07-12")
	assert.Error(t, err)
}

func TestRecords(t *testing.T) {
	store := memory.New()
	agg := NewAggregator(store)
	seed(t, store,
		reading.Reading{Date: day(2025, 6, 20), M1: 18, M2: 7, Source: "manual"},
		reading.Reading{Date: day(2025, 7, 1), M1: 10, M2: 4, Source: "manual"},
		reading.Reading{Date: day(2025, 7, 2), M1: 12, M2: 5, Source: "manual"},
	)

	records, err := agg.Records(context.Background())
	require.NoError(t, err)
	require.NotNil(t, records.BestDay)
	require.NotNil(t, records.BestMonth)

	assert.Equal(t, "2025-06-20", records.BestDay.Date)
	assert.Equal(t, 25.0, records.BestDay.Value)
	// July has 31 kWh total, June only 25.
	assert.Equal(t, "2025-07", records.BestMonth.Date)
	assert.Equal(t, 31.0, records.BestMonth.Value)
}

func TestRecordsTieGoesToEarlierDate(t *testing.T) {
	store := memory.New()
	agg := NewAggregator(store)
	seed(t, store,
		reading.Reading{Date: day(2025, 7, 1), M1: 10, Source: "manual"},
		reading.Reading{Date: day(2025, 7, 2), M1: 10, Source: "manual"},
	)

	records, err := agg.Records(context.Background())
	require.NoError(t, err)
	require.NotNil(t, records.BestDay)
	assert.Equal(t, "2025-07-01", records.BestDay.Date)
}

func TestRecordsEmptyStorage(t *testing.T) {
	store := memory.New()
	agg := NewAggregator(store)

	records, err := agg.Records(context.Background())
	require.NoError(t, err)
	assert.Nil(t, records.BestDay)
	assert.Nil(t, records.BestMonth)
}
