package router

import (
	"net/http/httptest"
	"testing"

	"anihan-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateApp_HealthWithoutDatabase(t *testing.T) {
	app, db, rdb, err := CreateApp(&config.Config{
		Port:              "8080",
		Env:               "test",
		MatchEventChannel: "preorder-matches",
	})
	require.NoError(t, err)
	assert.Nil(t, db)
	assert.Nil(t, rdb)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	// Domain routes are only registered once a database is configured.
	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/harvests/get-seller-harvests", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestCreateApp_BadRedisURL(t *testing.T) {
	_, _, _, err := CreateApp(&config.Config{
		Port:     "8080",
		Env:      "test",
		RedisURL: "://not-a-url",
	})
	require.Error(t, err)
}
