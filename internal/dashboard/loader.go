package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/medhealth/fieldforce-backend/internal/kpi"
	"github.com/medhealth/fieldforce-backend/pkg/db/models"
	"github.com/medhealth/fieldforce-backend/pkg/enums"
)

// NotificationTally counts live notifications of one recipient.
type NotificationTally struct {
	Total  int
	Unread int
}

// Snapshot is everything the dashboard is assembled from.
type Snapshot struct {
	Users         []models.User
	Plans         []kpi.PlanCounts
	Locations     map[uuid.UUID]int
	Notifications map[uuid.UUID]NotificationTally
}

// Loader fetches a Snapshot for the year containing now.
type Loader interface {
	Load(ctx context.Context, now time.Time) (*Snapshot, error)
}

type loader struct {
	db     *gorm.DB
	counts kpi.Repository
}

// NewLoader returns a Loader reading from db.
func NewLoader(db *gorm.DB, counts kpi.Repository) Loader {
	return &loader{db: db, counts: counts}
}

// Load runs the four dashboard queries concurrently.
func (l *loader) Load(ctx context.Context, now time.Time) (*Snapshot, error) {
	now = now.UTC()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := yearStart.AddDate(1, 0, 0)

	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.db.WithContext(gctx).Order("name ASC").Order("id ASC").Find(&snap.Users).Error
	})
	g.Go(func() error {
		rows, err := l.counts.PlanCounts(gctx, yearStart, yearEnd, nil)
		snap.Plans = rows
		return err
	})
	g.Go(func() error {
		counts, err := l.locationCounts(gctx)
		snap.Locations = counts
		return err
	})
	g.Go(func() error {
		counts, err := l.notificationCounts(gctx, now)
		snap.Notifications = counts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (l *loader) locationCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	var rows []struct {
		UserID uuid.UUID `gorm:"column:user_id"`
		Count  int       `gorm:"column:count"`
	}
	err := l.db.WithContext(ctx).
		Model(&models.Location{}).
		Select("user_id, COUNT(*) AS count").
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.UserID] = row.Count
	}
	return out, nil
}

func (l *loader) notificationCounts(ctx context.Context, now time.Time) (map[uuid.UUID]NotificationTally, error) {
	var rows []struct {
		RecipientID uuid.UUID                `gorm:"column:recipient_id"`
		Status      enums.NotificationStatus `gorm:"column:status"`
		Count       int                      `gorm:"column:count"`
	}
	err := l.db.WithContext(ctx).
		Model(&models.Notification{}).
		Select("recipient_id, status, COUNT(*) AS count").
		Where("expires_at IS NULL OR expires_at > ?", now).
		Group("recipient_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]NotificationTally)
	for _, row := range rows {
		tally := out[row.RecipientID]
		tally.Total += row.Count
		if row.Status == enums.NotificationStatusUnread {
			tally.Unread += row.Count
		}
		out[row.RecipientID] = tally
	}
	return out, nil
}
