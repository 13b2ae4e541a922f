package repo

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	entschema "github.com/healthalyze/healthalyze_backend/internal/schema"
)

// Tables returns the SQL tables described by the ent schema definitions.
func Tables() []*schema.Table {
	return []*schema.Table{tableFor(Table, entschema.Assessment{})}
}

// tableFor turns an ent schema into a migration table. A field named "id"
// becomes the primary key.
func tableFor(name string, s ent.Interface) *schema.Table {
	t := schema.NewTable(name)

	var fields []ent.Field
	fields = append(fields, s.Fields()...)
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
	}

	for _, f := range fields {
		d := f.Descriptor()
		col := &schema.Column{
			Name:     d.Name,
			Type:     d.Info.Type,
			Size:     int64(d.Size),
			Nullable: d.Optional,
			Unique:   d.Unique,
			Comment:  d.Comment,
		}
		if d.StorageKey != "" {
			col.Name = d.StorageKey
		}
		if d.Name == "id" {
			t.AddPrimary(col)
			continue
		}
		t.AddColumn(col)
	}

	for _, idx := range s.Indexes() {
		d := idx.Descriptor()
		key := d.StorageKey
		if key == "" {
			key = name + "_" + strings.Join(d.Fields, "_")
		}
		t.AddIndex(key, d.Unique, d.Fields)
	}
	return t
}

// Migrate creates or updates the assessments table for the store's dialect.
func (s *Store) Migrate(ctx context.Context) error {
	drv := entsql.OpenDB(s.dialect, s.db)
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := m.Create(ctx, Tables()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
