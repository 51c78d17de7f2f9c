// Package messaging publishes domain events to a broker selected at
// runtime: NATS, NSQ, Kafka or Google Pub/Sub. The "none" driver discards
// messages and Memory keeps them for inspection.
package messaging
