// Package mqtt publishes backend status to an MQTT broker.
//
// The supervisor keeps a single retained status message per backend on
// <prefix>/backend/status. The broker's Last Will replaces it with an
// offline payload if the supervisor itself disappears without a clean
// disconnect, so dashboards never show a stale "running".
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix)
//	err = client.PublishRetained(topics.BackendStatus(), payload)
package mqtt
