package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationURL(t *testing.T) {
	tests := []struct {
		name   string
		server string
		want   string
	}{
		{"https upgrades to wss", "https://bkm.example.com/api", "wss://bkm.example.com/api/notify"},
		{"http upgrades to ws", "http://localhost:8080/api", "ws://localhost:8080/api/notify"},
		{"unknown scheme passed through", "bkm.example.com/api", "bkm.example.com/api/notify"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, notificationURL(tt.server))
		})
	}
}
