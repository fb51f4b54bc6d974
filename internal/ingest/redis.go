package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	latestKey = "enviro:sensor-data:latest"

	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
)

// NewRedisClient returns a configured go-redis client and validates the connection with PING.
func NewRedisClient(addr string) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// RedisLatest caches the last inserted row under a single key.
type RedisLatest struct {
	client *redis.Client
}

// NewRedisLatest returns a redis-backed latest-row cache.
func NewRedisLatest(client *redis.Client) *RedisLatest {
	return &RedisLatest{client: client}
}

// cachedRow is the stored form; the alarm column is fixed here since the
// cache never leaves this service.
type cachedRow struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Temperature    float64   `json:"temperature"`
	Humidity       float64   `json:"humidity"`
	LightIntensity int       `json:"light_intensity"`
	Fan            bool      `json:"fan"`
	FanLED         bool      `json:"fan_led"`
	Light          bool      `json:"light"`
	LightLED       bool      `json:"light_led"`
	AlarmLED       bool      `json:"alarm_led"`
	Buzzer         bool      `json:"buzzer"`
}

func marshalCached(row Row) ([]byte, error) {
	return json.Marshal(cachedRow{
		ID:             row.ID,
		CreatedAt:      row.CreatedAt,
		Temperature:    row.Temperature,
		Humidity:       row.Humidity,
		LightIntensity: row.LightIntensity,
		Fan:            row.Fan,
		FanLED:         row.FanLED,
		Light:          row.Light,
		LightLED:       row.LightLED,
		AlarmLED:       row.AlarmLED,
		Buzzer:         row.Buzzer,
	})
}

func unmarshalCached(data []byte) (Row, error) {
	var c cachedRow
	if err := json.Unmarshal(data, &c); err != nil {
		return Row{}, err
	}
	row := Row{ID: c.ID, CreatedAt: c.CreatedAt}
	row.Temperature = c.Temperature
	row.Humidity = c.Humidity
	row.LightIntensity = c.LightIntensity
	row.Fan = c.Fan
	row.FanLED = c.FanLED
	row.Light = c.Light
	row.LightLED = c.LightLED
	row.AlarmLED = c.AlarmLED
	row.Buzzer = c.Buzzer
	return row, nil
}

// Put replaces the cached row.
func (c *RedisLatest) Put(ctx context.Context, row Row) error {
	data, err := marshalCached(row)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, latestKey, data, 0).Err()
}

// Latest returns the cached row; ok is false when nothing is cached.
func (c *RedisLatest) Latest(ctx context.Context) (Row, bool, error) {
	result, err := c.client.Get(ctx, latestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Row{}, false, nil
	}
	if err != nil {
		return Row{}, false, fmt.Errorf("get latest: %w", err)
	}
	row, err := unmarshalCached(result)
	if err != nil {
		return Row{}, false, fmt.Errorf("decode latest: %w", err)
	}
	return row, true, nil
}
