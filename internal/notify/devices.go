// internal/notify/devices.go
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "coincoach-backend/internal/common/errors"
	"coincoach-backend/internal/common/logger"
	"coincoach-backend/internal/models"
)

const deviceSetKey = "devices:registered"

// DeviceRegistry tracks push targets in a Redis hash keyed by token.
// Registration is idempotent; re-registering a token overwrites its
// metadata.
type DeviceRegistry struct {
	client *redis.Client
	logger logger.Logger
	now    func() time.Time
}

func NewDeviceRegistry(client *redis.Client, log logger.Logger) *DeviceRegistry {
	return &DeviceRegistry{
		client: client,
		logger: log,
		now:    time.Now,
	}
}

func (r *DeviceRegistry) Register(ctx context.Context, token, platform string) (models.Device, error) {
	device := models.Device{
		Token:        token,
		Platform:     platform,
		RegisteredAt: r.now().UTC().Format(time.RFC3339),
	}

	raw, err := json.Marshal(device)
	if err != nil {
		return models.Device{}, apperrors.NewNotificationSendFailedError("registry", err)
	}
	if err := r.client.HSet(ctx, deviceSetKey, token, raw).Err(); err != nil {
		return models.Device{}, apperrors.NewNotificationSendFailedError("registry", err)
	}

	r.logger.Info("device registered", map[string]interface{}{
		"platform": platform,
	})
	return device, nil
}

func (r *DeviceRegistry) Unregister(ctx context.Context, token string) error {
	if err := r.client.HDel(ctx, deviceSetKey, token).Err(); err != nil {
		return apperrors.NewNotificationSendFailedError("registry", err)
	}
	return nil
}

// Devices returns every registered push target.
func (r *DeviceRegistry) Devices(ctx context.Context) ([]models.Device, error) {
	entries, err := r.client.HGetAll(ctx, deviceSetKey).Result()
	if err != nil {
		return nil, apperrors.NewNotificationSendFailedError("registry", err)
	}

	devices := make([]models.Device, 0, len(entries))
	for token, raw := range entries {
		var device models.Device
		if err := json.Unmarshal([]byte(raw), &device); err != nil {
			// Skip unreadable entries rather than failing the batch.
			r.logger.Warn("skipping corrupt device record", map[string]interface{}{
				"token": token,
			})
			continue
		}
		devices = append(devices, device)
	}
	return devices, nil
}
