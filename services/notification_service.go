package services

import (
	"context"
	"time"

	"github.com/anjiri1684/elevate_lms/logger"
	"github.com/anjiri1684/elevate_lms/models"
	"github.com/anjiri1684/elevate_lms/utils"
	"github.com/anjiri1684/elevate_lms/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const EventNotification = "notification"

type Notice struct {
	Type    string
	Title   string
	Message string
	Link    string
}

// Notify stores the notification and pushes it to any open socket of the
// recipient. Failures are logged, never returned: a notification must not undo
// the operation that caused it.
func Notify(ctx context.Context, role models.Role, recipient uuid.UUID, n Notice) {
	row := models.Notification{
		RecipientID:   recipient,
		RecipientRole: role,
		Type:          n.Type,
		Title:         n.Title,
		Message:       n.Message,
	}
	if n.Link != "" {
		row.Link = &n.Link
	}
	if err := db(ctx).Create(&row).Error; err != nil {
		logger.Module("notifications").Error("failed to store notification",
			zap.String("recipient", recipient.String()), zap.String("title", n.Title), zap.Error(err))
		return
	}
	websocket.Default.Send(role, recipient, EventNotification, row)
}

// NotifyAdmins fans a notice out to every active admin.
func NotifyAdmins(ctx context.Context, n Notice) {
	var ids []uuid.UUID
	if err := db(ctx).Model(&models.Admin{}).Where("is_active = ?", true).Pluck("id", &ids).Error; err != nil {
		logger.Module("notifications").Error("failed to load admins", zap.Error(err))
		return
	}
	for _, id := range ids {
		Notify(ctx, models.RoleAdmin, id, n)
	}
}

type NotificationPage struct {
	Paged[models.Notification]
	Unread int64
}

func ListNotifications(ctx context.Context, role models.Role, id uuid.UUID, p utils.Page) (*NotificationPage, error) {
	q := db(ctx).Model(&models.Notification{}).Where("recipient_id = ? AND recipient_role = ?", id, role)
	page, err := paginate[models.Notification](q, p, "created_at DESC")
	if err != nil {
		return nil, wrap(err, "list notifications")
	}
	out := &NotificationPage{Paged: page}
	err = db(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND recipient_role = ? AND is_read = ?", id, role, false).
		Count(&out.Unread).Error
	return out, wrap(err, "count unread notifications")
}

// MarkRead marks the given ids (or everything when all is set) as read and
// returns the number of rows changed.
func MarkRead(ctx context.Context, role models.Role, id uuid.UUID, ids []string, all bool) (int64, error) {
	q := db(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND recipient_role = ? AND is_read = ?", id, role, false)
	if !all {
		parsed := make([]uuid.UUID, 0, len(ids))
		for _, raw := range ids {
			nid, err := ParseID(raw)
			if err != nil {
				return 0, err
			}
			parsed = append(parsed, nid)
		}
		if len(parsed) == 0 {
			return 0, badRequest("No notifications selected")
		}
		q = q.Where("id IN ?", parsed)
	}
	res := q.Update("is_read", true)
	return res.RowsAffected, wrap(res.Error, "mark notifications read")
}

// PurgeReadNotifications deletes read notifications older than the cutoff.
func PurgeReadNotifications(ctx context.Context, olderThan time.Duration) (int64, error) {
	res := db(ctx).Where("is_read = ? AND created_at < ?", true, time.Now().Add(-olderThan)).
		Delete(&models.Notification{})
	return res.RowsAffected, wrap(res.Error, "purge notifications")
}
