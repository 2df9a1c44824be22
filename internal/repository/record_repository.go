package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jefersongoes36-cmd/dns-controlo-v2/internal/domain"
)

// RecordRepository keeps time records in process memory, keyed per owner
// and date. Date uniqueness is scoped to the owner: two employees can both
// have an entry for the same day.
type RecordRepository struct {
	mu      sync.RWMutex
	records map[string]map[string]domain.TimeRecord // ownerID -> date -> record
}

func NewRecordRepository() *RecordRepository {
	return &RecordRepository{records: make(map[string]map[string]domain.TimeRecord)}
}

// Upsert replaces any existing record for (owner, date) and inserts the
// given one. The replacement is whole-record; fields are never merged.
func (r *RecordRepository) Upsert(ctx context.Context, rec domain.TimeRecord) (*domain.TimeRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now()
	rec.UpdatedAt = now
	rec.CreatedAt = now

	byDate, ok := r.records[rec.OwnerID]
	if !ok {
		byDate = make(map[string]domain.TimeRecord)
		r.records[rec.OwnerID] = byDate
	}
	if prev, exists := byDate[rec.Date]; exists {
		rec.CreatedAt = prev.CreatedAt
	}
	byDate[rec.Date] = *cloneRecord(rec)
	stored := byDate[rec.Date]
	return cloneRecord(stored), nil
}

// ListByOwner returns the owner's records ordered by date ascending,
// optionally bounded by an inclusive [from, to] date range.
func (r *RecordRepository) ListByOwner(ctx context.Context, ownerID string, from, to *time.Time) ([]domain.TimeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.TimeRecord, 0)
	for _, rec := range r.records[ownerID] {
		if !dateInRange(rec.Date, from, to) {
			continue
		}
		out = append(out, *cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Delete removes the owner's record for the given date.
func (r *RecordRepository) Delete(ctx context.Context, ownerID, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byDate, ok := r.records[ownerID]
	if !ok {
		return ErrNotFound
	}
	if _, exists := byDate[date]; !exists {
		return ErrNotFound
	}
	delete(byDate, date)
	return nil
}

// Snapshot returns every record, ordered by owner then date.
func (r *RecordRepository) Snapshot(ctx context.Context) ([]domain.TimeRecord, error) {
	return r.SnapshotRange(ctx, nil, nil)
}

// SnapshotRange is Snapshot bounded by an inclusive [from, to] date
// range, still covering every owner.
func (r *RecordRepository) SnapshotRange(ctx context.Context, from, to *time.Time) ([]domain.TimeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.TimeRecord, 0)
	for _, byDate := range r.records {
		for _, rec := range byDate {
			if !dateInRange(rec.Date, from, to) {
				continue
			}
			out = append(out, *cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OwnerID != out[j].OwnerID {
			return out[i].OwnerID < out[j].OwnerID
		}
		return out[i].Date < out[j].Date
	})
	return out, nil
}

// ReplaceAll swaps the entire collection, used by full backup restore.
func (r *RecordRepository) ReplaceAll(ctx context.Context, recs []domain.TimeRecord) error {
	next := make(map[string]map[string]domain.TimeRecord)
	for _, rec := range recs {
		byDate, ok := next[rec.OwnerID]
		if !ok {
			byDate = make(map[string]domain.TimeRecord)
			next[rec.OwnerID] = byDate
		}
		byDate[rec.Date] = *cloneRecord(rec)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = next
	return nil
}

// MergeForOwner applies a single-user backup's record set: the owner's
// records on the backup's dates are dropped, then the backup's records are
// inserted. Other owners and other dates stay untouched.
func (r *RecordRepository) MergeForOwner(ctx context.Context, ownerID string, recs []domain.TimeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byDate, ok := r.records[ownerID]
	if !ok {
		byDate = make(map[string]domain.TimeRecord)
		r.records[ownerID] = byDate
	}
	for _, rec := range recs {
		delete(byDate, rec.Date)
	}
	now := time.Now()
	for _, rec := range recs {
		rec.OwnerID = ownerID
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if rec.UpdatedAt.IsZero() {
			rec.UpdatedAt = now
		}
		byDate[rec.Date] = *cloneRecord(rec)
	}
	return nil
}

func dateInRange(date string, from, to *time.Time) bool {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && d.After(*to) {
		return false
	}
	return true
}

func cloneRecord(rec domain.TimeRecord) *domain.TimeRecord {
	c := rec
	if rec.ManualSocialSecurity != nil {
		v := *rec.ManualSocialSecurity
		c.ManualSocialSecurity = &v
	}
	return &c
}
