package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	PostgresDSN   string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheTTLSecs  int

	BotToken      string
	DefaultChatID int64

	HTTPAddr  string
	StaticDir string

	NotifyInterval  time.Duration
	NotifyTimezone  string
	NotifyDateField string
	SendTimeout     time.Duration

	FollowUpWeekday time.Weekday
}

func Load() Config {
	return Config{
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTLSecs:  getEnvInt("CACHE_TTL_SECONDS", 30),

		BotToken:      os.Getenv("BOT_TOKEN"),
		DefaultChatID: getEnvInt64("DEFAULT_CHAT_ID", 0),

		HTTPAddr:  getEnv("HTTP_ADDR", ":4000"),
		StaticDir: getEnv("STATIC_DIR", "public"),

		NotifyInterval:  getEnvDuration("NOTIFY_INTERVAL", 12*time.Hour),
		NotifyTimezone:  getEnv("NOTIFY_TZ", "Asia/Kolkata"),
		NotifyDateField: getEnv("NOTIFY_DATE_FIELD", "follow_up"),
		SendTimeout:     getEnvDuration("SEND_TIMEOUT", 15*time.Second),

		FollowUpWeekday: getEnvWeekday("FOLLOWUP_WEEKDAY", time.Tuesday),
	}
}

func getEnv(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid %s value %q, using default: %d", name, v, def)
		return def
	}
	return n
}

func getEnvInt64(name string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("Invalid %s value %q, using default: %d", name, v, def)
		return def
	}
	return n
}

func getEnvDuration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s value %q, using default: %s", name, v, def)
		return def
	}
	return d
}

func getEnvWeekday(name string, def time.Weekday) time.Weekday {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	if v == "" {
		return def
	}
	days := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	if d, ok := days[v]; ok {
		return d
	}
	log.Printf("Invalid %s value %q, using default: %s", name, v, def)
	return def
}
