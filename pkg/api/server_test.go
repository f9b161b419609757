package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/statekeep/pkg/algorithm"
	"github.com/cuemby/statekeep/pkg/api"
	"github.com/cuemby/statekeep/pkg/auth"
	"github.com/cuemby/statekeep/pkg/engine"
	"github.com/cuemby/statekeep/pkg/instance"
	"github.com/cuemby/statekeep/pkg/types"
)

const adminKey = "admin-secret"

func testConfig() *types.GameConfig {
	return &types.GameConfig{
		ConfigID: "test_v1",
		MaxLevel: 10,
		Stats:    []string{"power"},
		Slots:    []string{"weapon"},
		Classes: map[string]types.ClassDef{
			"warrior": {BaseStats: map[string]float64{"power": 10}},
		},
		GearDefs: map[string]types.GearDef{
			"sword": {BaseStats: map[string]float64{"power": 5}, EquipPatterns: [][]string{{"weapon"}}},
		},
		Algorithms: types.AlgorithmsConfig{
			Growth:             types.AlgorithmRef{AlgorithmID: "linear"},
			LevelCostCharacter: types.AlgorithmRef{AlgorithmID: "flat"},
			LevelCostGear:      types.AlgorithmRef{AlgorithmID: "flat"},
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg, err := instance.New(instance.Config{
		IdempotencyBound: 10,
		SnapshotDir:      t.TempDir(),
		SnapshotInterval: 0,
	}, testConfig(), algorithm.NewRegistry(), auth.New(adminKey), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Shutdown() })

	srv := api.NewServer(reg, true)
	return httptest.NewServer(srv.Handler())
}

func TestHandleHealth_RequiresNoAuth(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body api.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
}

func TestHandleStateVersion_UnknownInstanceReturns404(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/not_a_real_instance/stateVersion")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body engine.TransportError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, engine.ErrorCode("INSTANCE_NOT_FOUND"), body.ErrorCode)
}

func TestHandleTx_CreateActorThenPlayerStateRoundTrips(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	createActor := engine.Request{
		TxID: "tx1", Type: engine.TxCreateActor, GameInstanceID: instance.DefaultInstanceID,
		ActorID: "actor_1", APIKey: "actor-key-1",
	}
	postTx(t, ts, instance.DefaultInstanceID, adminKey, createActor)

	createPlayer := engine.Request{
		TxID: "tx2", Type: engine.TxCreatePlayer, GameInstanceID: instance.DefaultInstanceID,
		PlayerID: "player_1", ActorID: "actor_1",
	}
	resp := postTx(t, ts, instance.DefaultInstanceID, "actor-key-1", createPlayer)
	require.True(t, resp.Accepted)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/"+instance.DefaultInstanceID+"/state/player/player_1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer actor-key-1")

	httpResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer httpResp.Body.Close()
	assert.Equal(t, http.StatusOK, httpResp.StatusCode)

	var view engine.PlayerView
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&view))
	assert.Equal(t, "player_1", view.ID)
}

func TestHandlePlayerState_WrongActorIsUnauthorized(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	postTx(t, ts, instance.DefaultInstanceID, adminKey, engine.Request{
		TxID: "tx1", Type: engine.TxCreateActor, GameInstanceID: instance.DefaultInstanceID,
		ActorID: "actor_1", APIKey: "actor-key-1",
	})
	postTx(t, ts, instance.DefaultInstanceID, adminKey, engine.Request{
		TxID: "tx2", Type: engine.TxCreateActor, GameInstanceID: instance.DefaultInstanceID,
		ActorID: "actor_2", APIKey: "actor-key-2",
	})
	postTx(t, ts, instance.DefaultInstanceID, "actor-key-1", engine.Request{
		TxID: "tx3", Type: engine.TxCreatePlayer, GameInstanceID: instance.DefaultInstanceID,
		PlayerID: "player_1", ActorID: "actor_1",
	})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/"+instance.DefaultInstanceID+"/state/player/player_1", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer actor-key-2")

	httpResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer httpResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, httpResp.StatusCode)
}

func TestHandleShutdown_ClosesShutdownChannel(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/__shutdown", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func postTx(t *testing.T, ts *httptest.Server, instanceID, token string, req engine.Request) engine.Response {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, err := http.NewRequest(http.MethodPost, ts.URL+"/"+instanceID+"/tx", bytes.NewReader(payload))
	require.NoError(t, err)
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	defer httpResp.Body.Close()

	var resp engine.Response
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&resp))
	return resp
}
