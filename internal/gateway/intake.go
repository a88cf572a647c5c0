package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// commandTimeout bounds one MQTT-initiated command, including its
// follow-up refresh.
const commandTimeout = 30 * time.Second

// CommandTopics builds command topic names.
type CommandTopics interface {
	AllCommands(family string) string
}

// Commander is the slice of the coordinator the intake needs.
type Commander interface {
	SendCommand(ctx context.Context, key string, value any) error
}

// CommandIntake routes MQTT command publications to the coordinator.
//
// Automations and panels write a JSON value to
// zeocore/command/{family}/{key}; the intake decodes it and hands it to
// the command path. Failures are logged only; MQTT has no reply channel
// here, so callers wanting confirmation watch the retained state topic.
type CommandIntake struct {
	pubsub    PubSub
	topics    CommandTopics
	commander Commander
	logger    Logger
	family    string
	qos       byte
}

// NewCommandIntake creates an intake for one device.
func NewCommandIntake(pubsub PubSub, topics CommandTopics, commander Commander, family string, qos byte) *CommandIntake {
	return &CommandIntake{
		pubsub:    pubsub,
		topics:    topics,
		commander: commander,
		logger:    noopLogger{},
		family:    family,
		qos:       qos,
	}
}

// SetLogger sets the logger for the intake.
func (ci *CommandIntake) SetLogger(logger Logger) {
	ci.logger = logger
}

// Start subscribes to the command wildcard topic.
func (ci *CommandIntake) Start() error {
	return ci.pubsub.Subscribe(ci.topics.AllCommands(ci.family), ci.qos, ci.handleCommand)
}

// handleCommand decodes one command publication and dispatches it.
func (ci *CommandIntake) handleCommand(topic string, payload []byte) error {
	key := keyFromCommandTopic(topic)
	if key == "" {
		ci.logger.Warn("command topic missing attribute key", "topic", topic)
		return nil
	}

	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		// Bare strings arrive unquoted from simple publishers.
		value = string(payload)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := ci.commander.SendCommand(ctx, key, value); err != nil {
		ci.logger.Warn("mqtt command rejected",
			"attribute", key,
			"error", err)
	}
	return nil
}

// keyFromCommandTopic extracts the attribute key from the last topic
// segment.
func keyFromCommandTopic(topic string) string {
	idx := strings.LastIndex(topic, "/")
	if idx < 0 || idx == len(topic)-1 {
		return ""
	}
	return topic[idx+1:]
}
