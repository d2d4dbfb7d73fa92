package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noted-app/noted-api/internal/storage"
)

// MigrateStandaloneTasks converts legacy standalone tasks into notes with a
// single task-formatted entry, if the backend supports it. Backends without
// the capability make this a no-op; running against an already-migrated
// store is also a no-op, so the call is safe on every startup.
func (e *Engine) MigrateStandaloneTasks(ctx context.Context) error {
	migrator, ok := e.store.(storage.TaskMigrator)
	if !ok {
		e.logger.Debug("task_migration_unsupported")
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	before := len(e.standalone)
	if err := migrator.MigrateStandaloneTasksToNotes(ctx); err != nil {
		return fmt.Errorf("migrate standalone tasks: %w", err)
	}
	if err := e.reload(ctx); err != nil {
		return err
	}
	if migrated := before - len(e.standalone); migrated > 0 {
		e.logger.Info("standalone_tasks_migrated", zap.Int("count", migrated))
	}
	return nil
}
