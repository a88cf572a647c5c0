// Package mqtt provides MQTT client connectivity for Zeo Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Zeo Core uses MQTT for three things: the request/response channel to the
// Zeo gateway daemon (which speaks the proprietary device protocol), the
// retained per-attribute state topics consumed by dashboards, and the
// command intake topics that route writes into the coordinator.
//
//	Zeo Core ↔ MQTT Broker ↔ Zeo Gateway Daemon
//
// # Security Considerations
//
//   - TLS is recommended for non-local deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.AttributeState("zeo", "state")
//	client.PublishRetained(topic, []byte(`"running"`))
package mqtt
