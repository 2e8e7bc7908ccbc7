package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	RabbitMQ RabbitMQConfig
	Game     GameConfig
}

type ServerConfig struct {
	Port         string
	AllowOrigins []string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RabbitMQConfig struct {
	URI      string
	Exchange string
}

// GameConfig names every gameplay tunable. The two policy flags whose
// behavior differs between deployments (XP at zero hearts, XP for practicing
// a completed unit) default to off; the heart regeneration policy must be one
// of "cooldown" or "daily_reset" and is applied consistently, never mixed.
type GameConfig struct {
	MaxHearts              int
	HeartRegenPolicy       string
	HeartRegenCooldown     time.Duration
	SuppressXPAtZeroHearts bool
	PracticeXPEnabled      bool
	XPPerExercise          int
	TopicBonusXP           int
	QuizBonusXP            int
	QuizPassingScore       float64
	StreakMilestones       []int
	MilestoneBonusXP       int
	Timezone               *time.Location
}

const (
	RegenPolicyCooldown   = "cooldown"
	RegenPolicyDailyReset = "daily_reset"
)

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "6670"),
			AllowOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "progress_service"),
			Timeout:  getEnvAsDuration("MONGO_TIMEOUT", 10*time.Second),
		},
		RabbitMQ: RabbitMQConfig{
			URI:      getEnv("RABBITMQ_URI", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", ""),
		},
		Game: GameConfig{
			MaxHearts:              getEnvAsInt("MAX_HEARTS", 50),
			HeartRegenPolicy:       getEnv("HEART_REGEN_POLICY", RegenPolicyCooldown),
			HeartRegenCooldown:     getEnvAsDuration("HEART_REGEN_COOLDOWN", 30*time.Minute),
			SuppressXPAtZeroHearts: getEnvAsBool("SUPPRESS_XP_AT_ZERO_HEARTS", false),
			PracticeXPEnabled:      getEnvAsBool("PRACTICE_XP_ENABLED", false),
			XPPerExercise:          getEnvAsInt("XP_PER_EXERCISE", 10),
			TopicBonusXP:           getEnvAsInt("XP_TOPIC_BONUS", 50),
			QuizBonusXP:            getEnvAsInt("XP_QUIZ_BONUS", 50),
			QuizPassingScore:       getEnvAsFloat("QUIZ_PASSING_SCORE", 70),
			StreakMilestones:       getEnvAsInts("STREAK_MILESTONES", []int{7, 30, 100}),
			MilestoneBonusXP:       getEnvAsInt("XP_STREAK_MILESTONE", 25),
			Timezone:               getEnvAsLocation("STREAK_TIMEZONE", time.UTC),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		n, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid int for %s: %s", key, err)
			return defaultValue
		}
		return n
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			log.Printf("invalid float for %s: %s", key, err)
			return defaultValue
		}
		return f
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("invalid bool for %s: %s", key, err)
			return defaultValue
		}
		return b
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("invalid duration for %s: %s", key, err)
			return defaultValue
		}
		return d
	}
	return defaultValue
}

func getEnvAsInts(key string, defaultValue []int) []int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			log.Printf("invalid int list for %s: %s", key, err)
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}

func getEnvAsLocation(key string, defaultValue *time.Location) *time.Location {
	if value, exists := os.LookupEnv(key); exists {
		loc, err := time.LoadLocation(value)
		if err != nil {
			log.Printf("invalid timezone for %s: %s", key, err)
			return defaultValue
		}
		return loc
	}
	return defaultValue
}
