package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gorm.io/gorm"

	"event-tracker/internal/store"
)

// eventRow is one tracked event in the events table.
type eventRow struct {
	Uid          uint        `gorm:"primaryKey;autoIncrement:false"`
	Text         string      `gorm:"not null"`
	Interval     string      `gorm:"not null"`
	Stacks       bool        `gorm:"not null;default:false"`
	Phase        string      `gorm:"not null"`
	PhaseAt      *time.Time
	TriggerTimes []time.Time `gorm:"serializer:json"`
	UpdatedAt    time.Time
}

func (eventRow) TableName() string { return "events" }

// DBRepository keeps the store in a SQLite database through gorm.
type DBRepository struct {
	db  *gorm.DB
	dsn string
	// fresh is set when the database file did not exist before opening.
	fresh bool
}

// NewDBRepository opens (and creates when missing) the database at dsn.
func NewDBRepository(dsn string) (*DBRepository, error) {
	fresh := false
	if !isMemoryDSN(dsn) {
		if _, err := os.Stat(sqliteFile(dsn)); errors.Is(err, fs.ErrNotExist) {
			fresh = true
		}
	}
	db, err := NewDB(dsn)
	if err != nil {
		return nil, err
	}
	return &DBRepository{db: db, dsn: dsn, fresh: fresh}, nil
}

// Close releases the underlying connection pool.
func (r *DBRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}

func (r *DBRepository) Load(ctx context.Context) (*store.EventStore, error) {
	var rows []eventRow
	if err := r.db.WithContext(ctx).Order("uid").Find(&rows).Error; err != nil {
		return nil, &LoadError{Kind: Malformed, Path: r.dsn, Cause: fmt.Errorf("list events: %w", err)}
	}
	if r.fresh && len(rows) == 0 {
		return nil, &LoadError{Kind: NotFound, Path: r.dsn}
	}

	records := make([]record, 0, len(rows))
	for _, row := range rows {
		records = append(records, record{
			Uid:          row.Uid,
			Text:         row.Text,
			Interval:     row.Interval,
			Stacks:       row.Stacks,
			Phase:        row.Phase,
			At:           row.PhaseAt,
			TriggerTimes: row.TriggerTimes,
		})
	}
	events, err := fromRecords(records)
	if err != nil {
		return nil, &LoadError{Kind: Malformed, Path: r.dsn, Cause: err, Raw: fmt.Sprintf("%+v", rows)}
	}
	return events, nil
}

// Store replaces every row in one transaction.
func (r *DBRepository) Store(ctx context.Context, events *store.EventStore) error {
	records := toRecords(events)
	rows := make([]eventRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, eventRow{
			Uid:          rec.Uid,
			Text:         rec.Text,
			Interval:     rec.Interval,
			Stacks:       rec.Stacks,
			Phase:        rec.Phase,
			PhaseAt:      rec.At,
			TriggerTimes: rec.TriggerTimes,
		})
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&eventRow{}).Error; err != nil {
			return fmt.Errorf("clear events: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert events: %w", err)
		}
		return nil
	})
	if err != nil {
		return &StoreError{Path: r.dsn, Cause: err}
	}
	r.fresh = false
	return nil
}
