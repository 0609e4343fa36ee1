package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewHTTPClient(Config{BaseURL: srv.URL, TimeoutSeconds: 5})
	return client, srv
}

func TestFetchTape(t *testing.T) {
	var gotQuery map[string]string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"c": r.URL.Query().Get("c"),
			"d": r.URL.Query().Get("d"),
		}
		_, _ = w.Write([]byte("header\n09:30:05\t10.50\t0.02\t120\t126000\t买盘\n"))
	})
	defer srv.Close()

	payload, err := client.FetchTape(context.Background(), "20190806", "sz000004")
	require.NoError(t, err)
	assert.Contains(t, payload, "09:30:05")
	assert.Equal(t, "sz000004", gotQuery["c"])
	assert.Equal(t, "20190806", gotQuery["d"])
}

func TestFetchTapeNoData(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("暂无数据"))
	})
	defer srv.Close()

	_, err := client.FetchTape(context.Background(), "20190806", "sz000004")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFetchTapeBadStatus(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer srv.Close()

	_, err := client.FetchTape(context.Background(), "20190806", "sz000004")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoData)
}

func TestFetchTapeWithBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("tape"))
	}))
	defer srv.Close()

	client := NewHTTPClient(Config{BaseURL: srv.URL, TimeoutSeconds: 5, BreakerEnabled: true})
	payload, err := client.FetchTape(context.Background(), "20190806", "sz000004")
	require.NoError(t, err)
	assert.Equal(t, "tape", payload)
}

type stubOracleClient struct {
	payload string
	err     error
}

func (c stubOracleClient) FetchTape(context.Context, string, string) (string, error) {
	return c.payload, c.err
}

func TestProbeOracle(t *testing.T) {
	open := NewProbeOracle(stubOracleClient{payload: "tape"}, "sz000004")
	trading, err := open.IsTradingDay(context.Background(), "20190806")
	require.NoError(t, err)
	assert.True(t, trading)

	closed := NewProbeOracle(stubOracleClient{err: ErrNoData}, "sz000004")
	trading, err = closed.IsTradingDay(context.Background(), "20190810")
	require.NoError(t, err)
	assert.False(t, trading)

	broken := NewProbeOracle(stubOracleClient{err: assert.AnError}, "sz000004")
	_, err = broken.IsTradingDay(context.Background(), "20190806")
	assert.Error(t, err)
}
