package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minesweeper-engine/internal/placement"
)

func newTestApp(t *testing.T, placer placement.Placer) (*httptest.Server, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	srv := httptest.NewServer(newApplication(logger, placer).ServeMux())
	t.Cleanup(srv.Close)
	return srv, hook
}

func TestPlace(t *testing.T) {
	srv, hook := newTestApp(t, placement.NewRandom(rand.New(rand.NewPCG(1, 2))))

	res, err := http.Get(srv.URL + "/place?width=9&height=9&mine_count=10&row=4&col=4")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var body placement.Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))

	req := placement.Request{Width: 9, Height: 9, MineCount: 10, Row: 4, Col: 4}
	layout, err := body.Layout(req)
	require.NoError(t, err)
	assert.False(t, layout.At(4, 4))
	assert.Equal(t, [2]int{4, 4}, body.FirstClick)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "placed mines", entry.Message)
	assert.Equal(t, req.Key(), entry.Data["key"])
}

func TestPlaceRejects(t *testing.T) {
	srv, _ := newTestApp(t, placement.NewRandom(rand.New(rand.NewPCG(1, 2))))

	tests := []struct {
		name    string
		query   string
		message string
	}{
		{"missing params", "width=9&height=9&row=0&col=0", "mine_count"},
		{"not a number", "width=x&height=9&mine_count=1&row=0&col=0", "width"},
		{"too many mines", "width=2&height=2&mine_count=4&row=0&col=0", "invalid board config"},
		{"click off board", "width=2&height=2&mine_count=1&row=2&col=0", "first click"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res, err := http.Get(srv.URL + "/place?" + test.query)
			require.NoError(t, err)
			defer res.Body.Close()
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), test.message)
		})
	}
}

func TestPlaceInternalError(t *testing.T) {
	srv, hook := newTestApp(t, placement.PlacerFunc(
		func(context.Context, placement.Request) (*placement.Response, error) {
			return nil, errors.New("out of entropy")
		},
	))

	res, err := http.Get(srv.URL + "/place?width=2&height=2&mine_count=1&row=0&col=0")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestApp(t, placement.NewRandom(nil))
	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}
