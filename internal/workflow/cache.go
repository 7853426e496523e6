package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"nutriplan-crm/internal/analytics"
)

const reportCacheTTL = 5 * time.Minute

// RedisReportCache кэширует отчёты аналитики в Redis. Клиент может быть nil
// (Redis не настроен) — тогда кэш молча выключен.
type RedisReportCache struct {
	client *redis.Client
}

func NewRedisReportCache(client *redis.Client) *RedisReportCache {
	return &RedisReportCache{client: client}
}

func reportKey(planID uint) string {
	return fmt.Sprintf("plan:%d:analytics", planID)
}

func (c *RedisReportCache) GetReport(ctx context.Context, planID uint) (*analytics.Report, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, reportKey(planID)).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Error("Redis GET для отчёта аналитики не удался", "plan_id", planID, "error", err)
		}
		return nil, false
	}
	var report analytics.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		slog.Warn("Кэшированный отчёт аналитики не разобрался, пересчитываем", "plan_id", planID, "error", err)
		return nil, false
	}
	return &report, true
}

func (c *RedisReportCache) SetReport(ctx context.Context, planID uint, report *analytics.Report) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		slog.Error("Не удалось сериализовать отчёт аналитики для кэша", "plan_id", planID, "error", err)
		return
	}
	if err := c.client.Set(ctx, reportKey(planID), data, reportCacheTTL).Err(); err != nil {
		slog.Error("Redis SET для отчёта аналитики не удался", "plan_id", planID, "error", err)
	}
}

func (c *RedisReportCache) Invalidate(ctx context.Context, planID uint) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, reportKey(planID)).Err(); err != nil {
		slog.Error("Не удалось сбросить кэш отчёта аналитики", "plan_id", planID, "error", err)
	}
}
