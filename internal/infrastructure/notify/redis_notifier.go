// Package notify publica los cambios de stock confirmados en Redis pub/sub
// para los suscriptores de UI (paneles de stock en tiempo real).
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tu-usuario/pos-backoffice/internal/application/ports"
	"github.com/tu-usuario/pos-backoffice/pkg/config"
)

var _ ports.Notifier = (*RedisNotifier)(nil)

// RedisNotifier publica cada StockChange en el canal de su empresa
// ("stock-changes:<companyID>"). Best-effort: el caller decide qué hacer con
// el error (los motores lo registran y lo tragan).
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier conecta con Redis y verifica con un Ping.
func NewRedisNotifier(ctx context.Context, cfg config.RedisConfig) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisNotifier{client: client}, nil
}

// Channel nombre del canal pub/sub de una empresa.
func Channel(companyID string) string {
	return "stock-changes:" + companyID
}

// StockChanged serializa el evento y lo publica en el canal de la empresa.
func (n *RedisNotifier) StockChanged(ctx context.Context, change ports.StockChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal stock change: %w", err)
	}
	if err := n.client.Publish(ctx, Channel(change.CompanyID), payload).Err(); err != nil {
		return fmt.Errorf("publish stock change: %w", err)
	}
	return nil
}

// Close cierra la conexión con Redis.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
