package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/PradeepNukavarapu/local-rag-chatbot/internal/model"
)

// sqlRecorder captures the SQL gorm builds in dry-run mode, without a
// live database.
type sqlRecorder struct {
	statements []string
}

func (r *sqlRecorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})     {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})     {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{})    {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.statements = append(r.statements, sql)
}

func dryRunDB(t *testing.T, recorder *sqlRecorder) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=test dbname=test"), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 recorder,
	})
	require.NoError(t, err)
	return db
}

func TestDeleteByNameRemovesRowOutright(t *testing.T) {
	recorder := &sqlRecorder{}
	repo := NewDocumentRepository(dryRunDB(t, recorder))

	require.NoError(t, repo.DeleteByName(context.Background(), "guide_pdf"))
	require.NotEmpty(t, recorder.statements)

	// A soft delete would keep the row and leave its unique name index
	// entry behind, making the same name unusable for later uploads.
	sql := recorder.statements[len(recorder.statements)-1]
	assert.True(t, strings.HasPrefix(sql, "DELETE"), sql)
	assert.NotContains(t, sql, "deleted_at")
	assert.Contains(t, sql, "guide_pdf")
}

func TestFindByNameScopesOutDeletedRows(t *testing.T) {
	recorder := &sqlRecorder{}
	repo := NewDocumentRepository(dryRunDB(t, recorder))

	_, err := repo.FindByName(context.Background(), "guide_pdf")
	require.NoError(t, err)
	require.NotEmpty(t, recorder.statements)

	sql := recorder.statements[len(recorder.statements)-1]
	assert.Contains(t, sql, "deleted_at")
}

func TestCreateUsesDocumentTable(t *testing.T) {
	recorder := &sqlRecorder{}
	repo := NewDocumentRepository(dryRunDB(t, recorder))

	doc := &model.Document{Name: "guide_pdf", SourceType: model.SourceTypeFile}
	require.NoError(t, repo.Create(context.Background(), doc))
	require.NotEmpty(t, recorder.statements)

	sql := recorder.statements[len(recorder.statements)-1]
	assert.Contains(t, sql, "rag_documents")
	assert.True(t, strings.HasPrefix(sql, "INSERT"), sql)
}
