package gateway

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// HealthTopics builds the gateway health topic name.
type HealthTopics interface {
	GatewayHealth(family string) string
}

// healthStatus is the payload the gateway publishes on its health topic.
type healthStatus struct {
	Status string `json:"status"`
}

// HealthMonitor tracks gateway liveness from its retained health topic.
//
// Any publication counts as a sign of life; an explicit "offline" status
// (typically the gateway's broker last-will) marks it down. The monitor
// only observes; the transport keeps issuing requests either way and
// fails them on its own timeout.
type HealthMonitor struct {
	pubsub PubSub
	topics HealthTopics
	logger Logger
	family string
	qos    byte

	mu       sync.RWMutex
	online   bool
	lastSeen time.Time
}

// NewHealthMonitor creates a monitor for one gateway.
func NewHealthMonitor(pubsub PubSub, topics HealthTopics, family string, qos byte) *HealthMonitor {
	return &HealthMonitor{
		pubsub: pubsub,
		topics: topics,
		logger: noopLogger{},
		family: family,
		qos:    qos,
	}
}

// SetLogger sets the logger for the monitor.
func (hm *HealthMonitor) SetLogger(logger Logger) {
	hm.logger = logger
}

// Start subscribes to the gateway health topic.
func (hm *HealthMonitor) Start() error {
	return hm.pubsub.Subscribe(hm.topics.GatewayHealth(hm.family), hm.qos, hm.handleStatus)
}

// Online reports whether the gateway last announced itself as up.
// False until the first health message arrives.
func (hm *HealthMonitor) Online() bool {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return hm.online
}

// LastSeen returns when the last health message arrived.
func (hm *HealthMonitor) LastSeen() (time.Time, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	return hm.lastSeen, !hm.lastSeen.IsZero()
}

// handleStatus processes one health publication.
func (hm *HealthMonitor) handleStatus(_ string, payload []byte) error {
	var status healthStatus
	online := true
	// A payload that is not JSON, or carries no status field, is still a
	// heartbeat; only an explicit offline marks the gateway down.
	if err := json.Unmarshal(payload, &status); err == nil && strings.EqualFold(status.Status, "offline") {
		online = false
	}

	hm.mu.Lock()
	changed := online != hm.online || hm.lastSeen.IsZero()
	hm.online = online
	hm.lastSeen = time.Now().UTC()
	hm.mu.Unlock()

	if changed {
		if online {
			hm.logger.Debug("gateway online")
		} else {
			hm.logger.Warn("gateway offline")
		}
	}
	return nil
}
