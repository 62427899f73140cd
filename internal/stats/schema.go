package stats

import (
	"context"
	"strings"

	"github.com/yanun0323/logs"
	"gorm.io/gorm/clause"
)

func createTableSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ? (")
	b.WriteString(identityColumn)
	b.WriteString(" VARCHAR(32) NOT NULL PRIMARY KEY")
	for _, col := range counterColumns {
		b.WriteString(", ")
		b.WriteString(col)
		b.WriteString(" BIGINT NOT NULL DEFAULT 0")
	}
	b.WriteString(")")
	return b.String()
}

// EnsureSchema creates the hits table when it does not exist.
// Safe to call repeatedly and from several processes at once.
func (s *Store) EnsureSchema(ctx context.Context) error {
	err := s.db.WithContext(ctx).Exec(createTableSQL(), clause.Table{Name: s.table}).Error
	if err != nil && isCreateRace(err) {
		logs.Infof("hits table %s created concurrently by another instance", s.table)
		return nil
	}
	return classify("ensure schema", "", err)
}
