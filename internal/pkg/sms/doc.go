// Package sms delivers one-time codes by text message.
package sms
