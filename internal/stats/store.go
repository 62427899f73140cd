package stats

import (
	"context"
	"errors"
	"regexp"

	"exstats/internal/model"
	"exstats/internal/model/enum"
	"exstats/pkg/conn"
	"exstats/pkg/exception"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	tableSuffix    = "_hits"
	identityColumn = "steam_id"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,57}$`)

// counterColumns lists every additive column in table order.
var counterColumns = func() []string {
	cols := []string{"dmg_health", "dmg_armor"}
	for _, r := range enum.Regions() {
		cols = append(cols, r.Column())
	}
	return cols
}()

// TableName derives the hits table from the configured base name.
func TableName(base string) (string, error) {
	if !tableNamePattern.MatchString(base) {
		return "", &Error{Kind: exception.ErrInvalidTableName, Op: "table name", Err: errors.New(base)}
	}
	return base + tableSuffix, nil
}

// Store applies hits to the per-player statistics table.
type Store struct {
	db    *gorm.DB
	table string
	merge clause.OnConflict
}

// NewStore binds a store to db and the table derived from base.
func NewStore(db *gorm.DB, base string) (*Store, error) {
	if db == nil {
		return nil, exception.ErrBackendUnavailable
	}
	table, err := TableName(base)
	if err != nil {
		return nil, err
	}

	dialect := ""
	if db.Dialector != nil {
		dialect = db.Dialector.Name()
	}
	set := make(clause.Set, 0, len(counterColumns))
	for _, col := range counterColumns {
		set = append(set, clause.Assignment{
			Column: clause.Column{Name: col},
			Value:  mergeValue(dialect, table, col),
		})
	}

	return &Store{
		db:    db,
		table: table,
		merge: clause.OnConflict{
			Columns:   []clause.Column{{Name: identityColumn}},
			DoUpdates: set,
		},
	}, nil
}

// mergeValue is the additive update for col when the row already exists.
// mysql renders OnConflict as ON DUPLICATE KEY UPDATE, where the inserted
// value is VALUES(col) and the bare column is the stored one.
func mergeValue(dialect, table, col string) clause.Expr {
	if dialect == conn.DriverMySQL {
		return gorm.Expr("? + VALUES(?)", clause.Column{Name: col}, clause.Column{Name: col})
	}
	return gorm.Expr("? + ?",
		clause.Column{Table: table, Name: col},
		clause.Column{Table: "excluded", Name: col},
	)
}

// Table returns the hits table name.
func (s *Store) Table() string {
	return s.table
}

// ApplyHit adds one hit to the identity's row in a single upsert.
//
// A missing row is inserted with the hit's deltas and a region counter of 1
// (or none). An existing row gets every counter increased by the inserted
// value, so concurrent hits for the same identity commute.
func (s *Store) ApplyHit(ctx context.Context, hit model.Hit) error {
	if hit.Identity.IsZero() {
		return exception.ErrInvalidIdentity
	}
	if hit.DmgHealth < 0 || hit.DmgArmor < 0 {
		return exception.ErrNegativeDamage
	}

	row := model.StatsFromHit(hit)
	err := s.db.WithContext(ctx).
		Table(s.table).
		Clauses(s.merge).
		Create(&row).Error
	return classify("apply hit", hit.Identity, err)
}

// Get reads the row for id.
func (s *Store) Get(ctx context.Context, id model.Identity) (model.PlayerStats, error) {
	var row model.PlayerStats
	err := s.db.WithContext(ctx).
		Table(s.table).
		Where(identityColumn+" = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PlayerStats{}, exception.ErrStatsNotFound
	}
	if err != nil {
		return model.PlayerStats{}, classify("get", id, err)
	}
	return row, nil
}
