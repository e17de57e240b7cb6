package busyintervals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const keyPrefix = "appointments:busy:"

// Config параметры подключения к Redis
type Config struct {
	Addr     string
	DB       int
	Password string
}

// NewClient создает клиент Redis и проверяет соединение
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is empty")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

type interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Cache кеширует листинг занятых интервалов job sink на (ресурс, дата).
// Недоступность Redis не ломает запрос: читаем напрямую из источника
type Cache struct {
	rdb    *goredis.Client
	source Source
	ttl    time.Duration
	log    Logger
}

// New создает кеш поверх источника
func New(rdb *goredis.Client, source Source, ttl time.Duration, log Logger) *Cache {
	return &Cache{rdb: rdb, source: source, ttl: ttl, log: log}
}

// ListBusy возвращает интервалы из кеша или из источника с записью в кеш
func (c *Cache) ListBusy(ctx context.Context, date time.Time, resourceID string) ([]domain.TimeSlot, error) {
	key := cacheKey(date, resourceID)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		slots, decodeErr := decode(cached, resourceID)
		if decodeErr == nil {
			return slots, nil
		}
		c.log.Warn("BusyCache: drop corrupt entry %s: %v", key, decodeErr)
	case errors.Is(err, goredis.Nil):
	default:
		c.log.Warn("BusyCache: redis get %s failed: %v", key, err)
	}

	slots, err := c.source.ListBusy(ctx, date, resourceID)
	if err != nil {
		return nil, err
	}

	if payload, err := encode(slots); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.log.Warn("BusyCache: redis set %s failed: %v", key, err)
		}
	}

	return slots, nil
}

// Invalidate сбрасывает запись после подтвержденного бронирования
func (c *Cache) Invalidate(ctx context.Context, date time.Time, resourceID string) {
	key := cacheKey(date, resourceID)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.Warn("BusyCache: redis del %s failed: %v", key, err)
	}
}

func cacheKey(date time.Time, resourceID string) string {
	return keyPrefix + resourceID + ":" + date.Format(domain.DateFormat)
}

func encode(slots []domain.TimeSlot) ([]byte, error) {
	items := make([]interval, 0, len(slots))
	for _, s := range slots {
		items = append(items, interval{Start: s.Start, End: s.End})
	}
	return json.Marshal(items)
}

func decode(data []byte, resourceID string) ([]domain.TimeSlot, error) {
	var items []interval
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	slots := make([]domain.TimeSlot, 0, len(items))
	for _, it := range items {
		slots = append(slots, domain.TimeSlot{Start: it.Start, End: it.End, ResourceID: resourceID})
	}
	return slots, nil
}
