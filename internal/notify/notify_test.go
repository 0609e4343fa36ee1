package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openbell/tapescan/internal/models"
)

func TestStatusRender(t *testing.T) {
	status := Status{
		Date:       "20190806",
		TradingDay: true,
		Counts: map[models.PatternCategory]int{
			models.Category1: 2,
			models.Category6: 1,
		},
		Dropped: DropCounts{FetchFailed: 3, NoData: 12, ParseFailed: 1},
		Elapsed: 42 * time.Second,
	}

	text := status.Render()
	assert.Contains(t, text, "20190806")
	assert.Contains(t, text, "category_1: 2")
	assert.Contains(t, text, "category_6: 1")
	assert.Contains(t, text, "category_7: 0")
	assert.Contains(t, text, "dropped: 16")
}

func TestStatusRenderMarketClosed(t *testing.T) {
	status := Status{Date: "20190810", TradingDay: false}
	assert.Contains(t, status.Render(), "market closed")
}

func TestDropCountsTotal(t *testing.T) {
	d := DropCounts{FetchFailed: 1, NoData: 2, ParseFailed: 3, StoreFailed: 4}
	assert.Equal(t, 10, d.Total())
}
