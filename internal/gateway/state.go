package gateway

import (
	"encoding/json"

	"github.com/washtower/zeo-core/internal/zeo"
)

// StateTopics builds per-attribute state topic names.
type StateTopics interface {
	AttributeState(family, key string) string
}

// StatePublisher mirrors merged attribute values onto retained MQTT
// topics, one topic per attribute. Retention means late subscribers
// (dashboards, automations) see the last known state immediately.
type StatePublisher struct {
	pubsub PubSub
	topics StateTopics
	logger Logger
	family string
	qos    byte
}

// NewStatePublisher creates a publisher for one device's attributes.
func NewStatePublisher(pubsub PubSub, topics StateTopics, family string, qos byte) *StatePublisher {
	return &StatePublisher{
		pubsub: pubsub,
		topics: topics,
		logger: noopLogger{},
		family: family,
		qos:    qos,
	}
}

// SetLogger sets the logger for the publisher.
func (p *StatePublisher) SetLogger(logger Logger) {
	p.logger = logger
}

// PublishMerge publishes one merge batch. The signature matches
// coordinator.Listener so the publisher can be registered directly as a
// merge listener. Publish failures are logged, not escalated; the
// refresh path never depends on the broker accepting state mirrors.
func (p *StatePublisher) PublishMerge(changed map[zeo.Protocol]any) {
	for protocol, value := range changed {
		payload, err := json.Marshal(value)
		if err != nil {
			p.logger.Warn("marshalling state value failed",
				"attribute", protocol,
				"error", err)
			continue
		}

		topic := p.topics.AttributeState(p.family, string(protocol))
		if err := p.pubsub.Publish(topic, payload, p.qos, true); err != nil {
			p.logger.Warn("publishing state failed",
				"topic", topic,
				"error", err)
		}
	}
}
