package series

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbell/tapescan/internal/models"
)

const header = "成交时间\t成交价格\t价格变动\t成交量(手)\t成交额(元)\t性质\n"

func TestBuildParsesTape(t *testing.T) {
	payload := header +
		"09:30:05\t10.50\t0.02\t120\t126000\t买盘\n" +
		"09:30:09\t10.48\t-0.02\t1500\t1572000\t中性盘\n" +
		"14:56:58\t10.60\t0.01\t300\t318000\t卖盘\n"

	series, err := Build(payload)
	require.NoError(t, err)
	require.Len(t, series, 3)

	assert.Equal(t, models.ClockTime(9, 30, 5), series[0].Time)
	assert.Equal(t, 10.50, series[0].Price)
	assert.Equal(t, int64(120), series[0].Volume)
	assert.Equal(t, models.SideBuy, series[0].Side)

	assert.Equal(t, models.SideNeutral, series[1].Side)
	assert.Equal(t, 1572000.0, series[1].TradedValue)

	assert.Equal(t, models.SideSell, series[2].Side)
}

func TestBuildPreservesArrivalOrder(t *testing.T) {
	// The feed is chronological; Build must keep arrival order untouched
	// even if rows share a timestamp.
	payload := header +
		"09:30:05\t10.50\t0.00\t10\t10500\t买盘\n" +
		"09:30:05\t10.50\t0.00\t20\t21000\t卖盘\n"

	series, err := Build(payload)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, int64(10), series[0].Volume)
	assert.Equal(t, int64(20), series[1].Volume)
}

func TestBuildNoTrades(t *testing.T) {
	_, err := Build(header)
	assert.ErrorIs(t, err, ErrNoTrades)

	_, err = Build("")
	assert.ErrorIs(t, err, ErrNoTrades)
}

func TestBuildBadRow(t *testing.T) {
	cases := map[string]string{
		"bad time":   "banana\t10.50\t0.02\t120\t126000\t买盘\n",
		"bad volume": "09:30:05\t10.50\t0.02\tlots\t126000\t买盘\n",
		"bad side":   "09:30:05\t10.50\t0.02\t120\t126000\tmystery\n",
		"short row":  "09:30:05\t10.50\n",
	}
	for name, row := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Build(header + row)
			require.Error(t, err)
			var rowErr *RowError
			assert.True(t, errors.As(err, &rowErr), "expected RowError, got %v", err)
			assert.NotErrorIs(t, err, ErrNoTrades)
		})
	}
}

func TestBuildSkipsBlankLines(t *testing.T) {
	payload := header +
		"09:30:05\t10.50\t0.02\t120\t126000\t买盘\n" +
		"\n" +
		"09:30:09\t10.48\t-0.02\t150\t157200\t卖盘\n"

	series, err := Build(payload)
	require.NoError(t, err)
	assert.Len(t, series, 2)
}
