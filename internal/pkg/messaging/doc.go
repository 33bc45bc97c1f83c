// Package messaging publishes messages to a broker without tying callers to a
// specific one. Kafka, NATS, NSQ and Google Pub/Sub are supported, plus a noop
// driver that discards everything.
package messaging
