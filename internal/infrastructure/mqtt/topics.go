package mqtt

import "fmt"

// Topic prefixes for the Zeo Core MQTT hierarchy.
//
// All topics use the flat scheme: zeocore/{category}/{protocol}/{key_or_id}
// where {protocol} is the gateway protocol segment (normally "zeo").
const (
	// TopicPrefix is the base for all Zeo Core topics.
	TopicPrefix = "zeocore"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "zeocore/system"
)

// Topics provides builders for Zeo Core MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.AttributeState("zeo", "countdown")
//	// Returns: "zeocore/state/zeo/countdown"
type Topics struct{}

// AttributeState returns the retained-state topic for one attribute.
//
// Example: zeocore/state/zeo/countdown
func (Topics) AttributeState(protocol, key string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, protocol, key)
}

// Command returns the command intake topic for one attribute.
//
// Example: zeocore/command/zeo/temp
func (Topics) Command(protocol, key string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, protocol, key)
}

// AllCommands returns the wildcard pattern matching every command topic
// for a protocol.
//
// Example: zeocore/command/zeo/+
func (Topics) AllCommands(protocol string) string {
	return fmt.Sprintf("%s/command/%s/+", TopicPrefix, protocol)
}

// GatewayRequest returns the topic for requests to the gateway daemon.
//
// Example: zeocore/request/zeo/req-abc123
func (Topics) GatewayRequest(protocol, requestID string) string {
	return fmt.Sprintf("%s/request/%s/%s", TopicPrefix, protocol, requestID)
}

// GatewayResponse returns the topic for gateway responses to a request.
//
// Example: zeocore/response/zeo/req-abc123
func (Topics) GatewayResponse(protocol, requestID string) string {
	return fmt.Sprintf("%s/response/%s/%s", TopicPrefix, protocol, requestID)
}

// GatewayHealth returns the topic for gateway health status.
//
// Example: zeocore/health/zeo
func (Topics) GatewayHealth(protocol string) string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, protocol)
}

// SystemStatus returns the coordinator online/offline status topic.
//
// Example: zeocore/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
