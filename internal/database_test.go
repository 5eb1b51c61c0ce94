package internal

import (
	"path/filepath"
	"testing"

	"DF-DOCGEN/internal/config"
	"DF-DOCGEN/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDBCreatesSchema(t *testing.T) {
	cfg := &config.DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "docgen.db")}

	db, err := InitDB(cfg)
	require.NoError(t, err)
	defer CloseDB(db)

	for _, table := range []string{"templates", "generated_documents", "activity_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Document{}, "idx_generated_documents_sequence"))
	assert.FileExists(t, cfg.Path)
}

func TestSequenceIsUnique(t *testing.T) {
	db, err := OpenDB("sqlite", ":memory:")
	require.NoError(t, err)
	defer CloseDB(db)

	tmpl := &models.Template{Name: "BuySellContract", FilePath: "templates/x/a.docx"}
	require.NoError(t, db.Create(tmpl).Error)

	first := &models.Document{TemplateID: tmpl.ID, Day: "240101", Sequence: 1, Filename: "a", FilePath: "documents/a"}
	require.NoError(t, db.Create(first).Error)

	dup := &models.Document{TemplateID: tmpl.ID, Day: "240101", Sequence: 1, Filename: "b", FilePath: "documents/b"}
	assert.Error(t, db.Create(dup).Error)
}
