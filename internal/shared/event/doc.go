// Package event holds message contracts shared between publishers and any
// downstream consumer.
package event
