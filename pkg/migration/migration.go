// Package migration runs and tracks schema migrations.
//
// Migrations register themselves from init functions:
//
//	func init() {
//	    migration.Register("20260101000000_create_products_table", &CreateProductsTable{})
//	}
//
// and are applied in name order, one batch per Run. Rollback reverses the
// most recent batch.
package migration

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Migration is one reversible schema change.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "storefront_migrations" }

// ─── Registry ─────────────────────────────────────────────────────────────────

type entry struct {
	name string
	m    Migration
}

var (
	mu       sync.Mutex
	registry []entry
)

// Register adds a migration. Names are timestamp-prefixed so that sorting
// them gives the order they must run in. Registering a name twice panics.
func Register(name string, m Migration) {
	mu.Lock()
	defer mu.Unlock()
	for _, e := range registry {
		if e.name == name {
			panic("migration: duplicate name " + name)
		}
	}
	registry = append(registry, entry{name: name, m: m})
}

func registered() []entry {
	mu.Lock()
	out := append([]entry(nil), registry...)
	mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ─── Runner ───────────────────────────────────────────────────────────────────

// Runner applies registered migrations to one database.
type Runner struct {
	db  *gorm.DB
	out io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sends progress lines to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

func New(db *gorm.DB, opts ...Option) *Runner {
	r := &Runner{db: db, out: os.Stdout}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Runner) ensureTable() error {
	if err := r.db.AutoMigrate(&record{}); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	return nil
}

func (r *Runner) ran() (map[string]record, error) {
	var rows []record
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]record, len(rows))
	for _, row := range rows {
		out[row.Name] = row
	}
	return out, nil
}

// Pending lists migrations that have not been applied, in run order.
func (r *Runner) Pending() ([]string, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range registered() {
		if _, ok := done[e.name]; !ok {
			names = append(names, e.name)
		}
	}
	return names, nil
}

// Run applies every pending migration as one batch. Each migration and its
// tracking row commit together, so a failure leaves earlier ones recorded.
func (r *Runner) Run() error {
	if err := r.ensureTable(); err != nil {
		return err
	}
	done, err := r.ran()
	if err != nil {
		return fmt.Errorf("migration: fetch applied: %w", err)
	}

	batch := r.lastBatch() + 1
	count := 0
	for _, e := range registered() {
		if _, ok := done[e.name]; ok {
			continue
		}
		fmt.Fprintf(r.out, "  ▶ Migrating: %s\n", e.name)
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := e.m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&record{Name: e.name, Batch: batch}).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %s up: %w", e.name, err)
		}
		logger.Info("migration: applied", "name", e.name, "batch", batch)
		fmt.Fprintf(r.out, "  ✅ Migrated:  %s\n", e.name)
		count++
	}

	if count == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
	}
	return nil
}

// Rollback reverses the most recent batch, newest first.
func (r *Runner) Rollback() error {
	if err := r.ensureTable(); err != nil {
		return err
	}
	batch := r.lastBatch()
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return nil
	}

	var rows []record
	if err := r.db.Where("batch = ?", batch).Order("id desc").Find(&rows).Error; err != nil {
		return err
	}

	byName := make(map[string]Migration)
	for _, e := range registered() {
		byName[e.name] = e.m
	}

	for _, row := range rows {
		m, ok := byName[row.Name]
		if !ok {
			return fmt.Errorf("migration: cannot roll back %s: not registered", row.Name)
		}
		fmt.Fprintf(r.out, "  ◀ Rolling back: %s\n", row.Name)
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&record{}, row.ID).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %s down: %w", row.Name, err)
		}
		logger.Info("migration: rolled back", "name", row.Name, "batch", batch)
		fmt.Fprintf(r.out, "  ✅ Rolled back: %s\n", row.Name)
	}
	return nil
}

// Status prints every registered migration with its batch, or Pending.
func (r *Runner) Status() error {
	if err := r.ensureTable(); err != nil {
		return err
	}
	done, err := r.ran()
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%-60s  %-8s  %s\n", "Migration", "Status", "Batch")
	fmt.Fprintln(r.out, strings.Repeat("─", 80))
	for _, e := range registered() {
		if row, ok := done[e.name]; ok {
			fmt.Fprintf(r.out, "%-60s  %-8s  %d\n", e.name, "Ran", row.Batch)
		} else {
			fmt.Fprintf(r.out, "%-60s  %-8s  -\n", e.name, "Pending")
		}
	}
	return nil
}

func (r *Runner) lastBatch() int {
	var batch struct{ Max int }
	r.db.Model(&record{}).Select("COALESCE(MAX(batch), 0) AS max").Scan(&batch)
	return batch.Max
}
