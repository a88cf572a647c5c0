// Package gateway implements the device transport over MQTT.
//
// Zeo Core never speaks the vendor protocol itself; a separate gateway
// process owns that link and exposes a request/response surface on the
// broker. This package correlates requests and responses by UUID-topic
// pairs and adapts the exchange to the transport contract the
// coordinator consumes.
package gateway
