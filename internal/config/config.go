// Package config provides configuration for the realtime service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int // HTTP API + WebSocket port

	// Database settings
	DatabaseURL string

	// WebSocket settings
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64

	// WhatsApp settings
	WhatsappGatewayURL     string // empty disables the WhatsApp adapter
	WhatsappAuthDir        string
	WhatsappConnectTimeout time.Duration
	WhatsappReconnectDelay time.Duration
	WhatsappMaxReconnects  int
	WhatsappKeepalive      time.Duration

	// Notification fan-out to AMQP (optional)
	AMQPURL string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort:               getEnvInt("HTTP_PORT", 3001),
		DatabaseURL:            getEnv("DATABASE_URL", "pedefacil.db"),
		PingInterval:           time.Duration(getEnvInt("WS_PING_INTERVAL_MS", 30000)) * time.Millisecond,
		WriteTimeout:           time.Duration(getEnvInt("WS_WRITE_TIMEOUT_MS", 10000)) * time.Millisecond,
		ReadTimeout:            time.Duration(getEnvInt("WS_READ_TIMEOUT_MS", 60000)) * time.Millisecond,
		MaxMessageSize:         int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 65536)),
		WhatsappGatewayURL:     getEnv("WHATSAPP_GATEWAY_URL", ""),
		WhatsappAuthDir:        getEnv("WHATSAPP_AUTH_DIR", "./whatsapp_auth"),
		WhatsappConnectTimeout: time.Duration(getEnvInt("WHATSAPP_CONNECT_TIMEOUT_MS", 60000)) * time.Millisecond,
		WhatsappReconnectDelay: time.Duration(getEnvInt("WHATSAPP_RECONNECT_DELAY_MS", 5000)) * time.Millisecond,
		WhatsappMaxReconnects:  getEnvInt("WHATSAPP_MAX_RECONNECTS", 5),
		WhatsappKeepalive:      time.Duration(getEnvInt("WHATSAPP_KEEPALIVE_MS", 30000)) * time.Millisecond,
		AMQPURL:                getEnv("AMQP_URL", ""),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
