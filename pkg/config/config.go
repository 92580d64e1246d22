package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the process-level configuration, loaded from the environment
// with an optional .env file. Physics coefficients live in their packages'
// DefaultConfig tables; only deployment knobs belong here.
type Config struct {
	// Storage
	ParamsDBPath  string
	HistoryDBPath string

	// MQTT streaming
	MQTTEnabled    bool
	MQTTBroker     string
	MQTTClientID   string
	MQTTUsername   string
	MQTTPassword   string
	MQTTTopicState string

	// Live loop
	TickSeconds float64 // simulated seconds per wall-clock tick
	MaxParallel int     // what-if worker bound

	// Plant overrides
	OxygenFlowNm3H float64
	BathWeightT    float64
}

// Load reads the environment, honoring a .env file when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ParamsDBPath:  getEnv("PARAMS_DB_PATH", "./twin_params.db"),
		HistoryDBPath: getEnv("HISTORY_DB_PATH", "./twin_history.db"),

		MQTTEnabled:    getEnvBool("MQTT_ENABLED", false),
		MQTTBroker:     getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:   getEnv("MQTT_CLIENT_ID", "converter-twin"),
		MQTTUsername:   getEnv("MQTT_USERNAME", ""),
		MQTTPassword:   getEnv("MQTT_PASSWORD", ""),
		MQTTTopicState: getEnv("MQTT_TOPIC_STATE", "plant/converter/{heat_id}/state"),

		TickSeconds: getEnvFloat("TICK_SECONDS", 1.0),
		MaxParallel: getEnvInt("MAX_PARALLEL", 4),

		OxygenFlowNm3H: getEnvFloat("OXYGEN_FLOW_NM3H", 22000.0),
		BathWeightT:    getEnvFloat("BATH_WEIGHT_T", 100.0),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return floatValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}
