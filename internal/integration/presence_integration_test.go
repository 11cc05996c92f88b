package integration

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Pulsar1722/homeIoTServer/internal/config"
	"github.com/Pulsar1722/homeIoTServer/internal/service/common"
	"github.com/Pulsar1722/homeIoTServer/internal/service/server"
)

const triggerToken = "s3cret"

// switchBotAPI is an in-process SwitchBot API that records executed scenes.
type switchBotAPI struct {
	mu       sync.Mutex
	executed []string
}

func (s *switchBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := `{"statusCode":100,"message":"success","body":{}}`

	switch r.Method + " " + r.URL.Path {
	case "GET /scenes":
		body = `{"statusCode":100,"message":"success","body":[
			{"sceneId":"s-living","sceneName":"Living room on"},
			{"sceneId":"s-end","sceneName":"End cleaning"},
			{"sceneId":"s-shutdown","sceneName":"Shutdown appliances"},
			{"sceneId":"s-clean","sceneName":"Start cleaning"}
		]}`
	case "GET /devices":
		body = `{"statusCode":100,"message":"success","body":{"deviceList":[
			{"deviceId":"d-1","deviceName":"Robot Vacuum K10+","deviceType":"K10+"}
		]}}`
	case "GET /devices/d-1/status":
		body = `{"statusCode":100,"message":"success","body":{"deviceId":"d-1","onlineStatus":"online"}}`
	}

	if r.Method == http.MethodPost {
		s.mu.Lock()
		s.executed = append(s.executed, r.URL.Path)
		s.mu.Unlock()
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (s *switchBotAPI) scenes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.executed...)
}

// freeAddress reserves a loopback port.
func freeAddress(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// startServer runs server.Run with a temporary config and waits until it answers /healthz.
// The returned function stops the server and reports the Run result.
func startServer(t *testing.T, apiURL, httpAddr, grpcAddr, statePath string) (stop func() error) {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "settings.yaml")

	require.NoError(t, config.Save(cfgPath, &config.Config{
		Server: config.ServerConfig{
			HTTPAddress:  httpAddr,
			GRPCAddress:  grpcAddr,
			TriggerToken: triggerToken,
		},
		Timeout: 5 * time.Second,
		SwitchBot: config.SwitchBotConfig{
			BaseURL:            apiURL,
			Token:              "T",
			Secret:             "S",
			Nonce:              "N",
			CleaningIntervalMs: 3_600_000,
		},
		Scenes: config.ScenesConfig{
			LivingRoomOn:       "Living room on",
			EndCleaning:        "End cleaning",
			ShutdownAppliances: "Shutdown appliances",
			StartCleaning:      "Start cleaning",
		},
		Cleaning: config.CleaningConfig{Device: "Robot Vacuum K10+"},
		Mail: config.MailConfig{
			SMTPHost:   "127.0.0.1",
			SMTPPort:   1,
			From:       "home@example.com",
			Password:   "app-password",
			Recipients: []string{"haruki@example.com"},
		},
		Members: []config.MemberConfig{
			{Name: "Haruki"},
			{Name: "Kako"},
		},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)

	go func() {
		result <- server.Run(ctx, &server.Options{ConfigPath: cfgPath, StateFile: statePath})
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + httpAddr + "/healthz") //nolint:noctx // Test polling.
		if err != nil {
			return false
		}

		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	return func() error {
		cancel()

		return <-result
	}
}

// TestPresence_EndToEnd drives a whole day through both transports.
func TestPresence_EndToEnd(t *testing.T) {
	t.Parallel()

	api := new(switchBotAPI)
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	httpAddr := freeAddress(t)
	grpcAddr := freeAddress(t)
	statePath := filepath.Join(t.TempDir(), "state.json")

	stop := startServer(t, apiServer.URL, httpAddr, grpcAddr, statePath)

	ctx := context.Background()

	c, err := common.Dial(ctx, grpcAddr,
		common.WithCallTimeout(3*time.Second),
		common.WithActor(common.Actor{Hostname: "phone", Username: "haruki"}),
		common.WithTriggerToken(triggerToken),
	)
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	// Both members leave: the second departure shuts everything down and starts cleaning.
	_, err = c.Depart(ctx, "Haruki")
	require.NoError(t, err)

	status, err := c.Depart(ctx, "Kako")
	require.NoError(t, err)
	require.InDelta(t, 0, status.GetFields()["at_home"].GetNumberValue(), 0)

	require.Equal(t, []string{"/scenes/s-shutdown/execute", "/scenes/s-clean/execute"}, api.scenes())

	_, err = os.Stat(statePath)
	require.NoError(t, err)

	// The first arrival comes over HTTP, as a geofencing app would send it.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+httpAddr+"/arrivedHome/Kako", http.NoBody)
	require.NoError(t, err)
	req.Header.Set("X-Trigger-Token", triggerToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	var view struct {
		AtHome int `json:"at_home"`
		Total  int `json:"total"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	_ = resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, view.AtHome)
	require.Equal(t, 2, view.Total)

	require.Equal(t, []string{
		"/scenes/s-shutdown/execute",
		"/scenes/s-clean/execute",
		"/scenes/s-living/execute",
		"/scenes/s-end/execute",
	}, api.scenes())

	require.NoError(t, stop())
}
