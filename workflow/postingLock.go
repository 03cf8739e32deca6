package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// Settlement serializes per entity and per ref-no scope using MySQL advisory
// locks. GET_LOCK is connection-scoped, so these must be called on the same
// *gorm.DB that performs the posting transaction. On non-MySQL dialects
// (sqlite test databases) the locks degrade to no-ops; sqlite serializes
// writers itself.

func acquireNamedLock(tx *gorm.DB, name string) error {
	if tx.Dialector.Name() != "mysql" {
		return nil
	}
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", name).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock %q", name)
	}
	return nil
}

func releaseNamedLock(tx *gorm.DB, name string) {
	if tx.Dialector.Name() != "mysql" {
		return
	}
	var ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", name).Scan(&ok).Error
}

// AcquireEntityLock serializes balance mutations against one entity.
func AcquireEntityLock(tx *gorm.DB, ref EntityRef) error {
	return acquireNamedLock(tx, fmt.Sprintf("settle:%s:%d", ref.Kind, ref.ID))
}

func ReleaseEntityLock(tx *gorm.DB, ref EntityRef) {
	releaseNamedLock(tx, fmt.Sprintf("settle:%s:%d", ref.Kind, ref.ID))
}

// AcquireRefNoLock serializes reference-number allocation per (year, prefix)
// scope, e.g. "2026/T".
func AcquireRefNoLock(tx *gorm.DB, scope string) error {
	return acquireNamedLock(tx, "refno:"+scope)
}

func ReleaseRefNoLock(tx *gorm.DB, scope string) {
	releaseNamedLock(tx, "refno:"+scope)
}

// RefNoScope builds the lock scope for a booking kind or transaction type.
func RefNoScope(year int, prefix string) string {
	return fmt.Sprintf("%d/%s", year, prefix)
}
