// Package roomprobe periodically checks, on a ticker with one pooled HTTP
// client, whether locally-probable rooms are still responding and
// joinable.
package roomprobe

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bomberman-gg/hub/internal/clusterstate"
)

// Config holds the prober's timing and probe-contract knobs.
type Config struct {
	CheckInterval  time.Duration
	Timeout        time.Duration
	Port           int
	ExpectedStatus string
}

// DefaultConfig returns the default probe configuration.
func DefaultConfig() Config {
	return Config{
		CheckInterval:  15 * time.Second,
		Timeout:        3 * time.Second,
		Port:           8080,
		ExpectedStatus: "WAITING_FOR_PLAYERS",
	}
}

type statusResponse struct {
	Status string `json:"status"`
}

// Prober polls every active, locally-probable room's /status endpoint.
type Prober struct {
	config Config
	state  *clusterstate.State
	client *http.Client

	onRoomUnhealthy func(room *clusterstate.Room)

	stop chan struct{}
	done chan struct{}
}

// New creates a Prober with a pooled HTTP client.
func New(state *clusterstate.State, config Config, onRoomUnhealthy func(*clusterstate.Room)) *Prober {
	return &Prober{
		config:          config,
		state:           state,
		client:          &http.Client{Timeout: config.Timeout},
		onRoomUnhealthy: onRoomUnhealthy,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// Start launches the periodic probe loop.
func (p *Prober) Start() {
	go p.loop()
}

// Stop signals the loop to exit and waits for it to do so.
func (p *Prober) Stop() {
	close(p.stop)
	<-p.done
}

func (p *Prober) loop() {
	defer close(p.done)

	ticker := time.NewTicker(p.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.checkAllRooms()
		}
	}
}

func (p *Prober) checkAllRooms() {
	for _, room := range p.state.SnapshotRooms() {
		room := room
		if room.Status != clusterstate.RoomActive {
			continue
		}
		// Remote rooms: we don't know their probe address, so we can't
		// be authoritative about their health. Skip rather than guess.
		if room.InternalService == "" {
			continue
		}

		if !p.isRoomHealthy(&room) {
			fmt.Printf("🔍 [roomprobe] room %s is unhealthy\n", room.RoomID)
			p.onRoomUnhealthy(&room)
		}
	}
}

func (p *Prober) isRoomHealthy(room *clusterstate.Room) bool {
	url := fmt.Sprintf("http://%s:%d/status", room.InternalService, p.config.Port)

	resp, err := p.client.Get(url)
	if err != nil {
		fmt.Printf("❌ [roomprobe] room %s health check failed: %v\n", room.RoomID, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("❌ [roomprobe] room %s returned status code %d\n", room.RoomID, resp.StatusCode)
		return false
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		fmt.Printf("❌ [roomprobe] room %s returned malformed body: %v\n", room.RoomID, err)
		return false
	}

	if body.Status != p.config.ExpectedStatus {
		fmt.Printf("⚠️ [roomprobe] room %s status is %q (expected %q)\n", room.RoomID, body.Status, p.config.ExpectedStatus)
		return false
	}

	return true
}
