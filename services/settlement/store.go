package settlement

import (
	"context"

	"bountyhub/pkg/repository"
	"bountyhub/services/issue"

	"gorm.io/gorm"
)

// SnapshotStore persists frozen settlements. It depends on the database only,
// so project and issue services can consult it without importing Service.
type SnapshotStore struct {
	db   *gorm.DB
	repo repository.Repository[Snapshot]
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db, repo: repository.ProvideStore[Snapshot](db)}
}

func (s *SnapshotStore) WithTrx(tx *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: tx, repo: s.repo.WithTrx(tx)}
}

// Find returns the snapshot of a project, or nil.
func (s *SnapshotStore) Find(ctx context.Context, projectID string) (*Snapshot, error) {
	return s.repo.FindOne(ctx, &Snapshot{ProjectID: projectID})
}

func (s *SnapshotStore) Create(ctx context.Context, snap *Snapshot) error {
	return s.repo.Create(ctx, snap)
}

func (s *SnapshotStore) IsSettled(ctx context.Context, projectID string) (bool, error) {
	n, err := s.repo.Count(ctx, &Snapshot{ProjectID: projectID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SnapshotStore) DiscardSnapshot(ctx context.Context, projectID string) error {
	return s.db.WithContext(ctx).Where("project_id = ?", projectID).Delete(&Snapshot{}).Error
}

// Checker adapts the store to issue.SettlementChecker.
func (s *SnapshotStore) Checker() issue.SettlementChecker {
	return settledChecker{store: s}
}

type settledChecker struct {
	store *SnapshotStore
}

func (c settledChecker) IsSettled(ctx context.Context, projectID string) (bool, error) {
	return c.store.IsSettled(ctx, projectID)
}

func (c settledChecker) WithTrx(tx *gorm.DB) issue.SettlementChecker {
	return settledChecker{store: c.store.WithTrx(tx)}
}
