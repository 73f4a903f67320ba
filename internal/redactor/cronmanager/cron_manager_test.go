package cronmanager

import (
	"fmt"
	"testing"

	"github.com/aisa-it/redactor/internal/redactor/dao"
	"github.com/aisa-it/redactor/internal/redactor/editor"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLoadJobs(t *testing.T) {
	calls := 0
	cm := NewCronManager(JobRegistry{
		"ok":  {Schedule: "@every 1h", Func: func() { calls++ }},
		"bad": {Schedule: "not a schedule", Func: func() {}},
	})

	assert.Error(t, cm.LoadJobs())
	assert.Equal(t, []string{"ok"}, cm.Scheduled())

	require.NoError(t, cm.RunNow("ok"))
	assert.Equal(t, 1, calls)
	assert.Error(t, cm.RunNow("missing"))

	cm.RemoveJob("ok")
	assert.Empty(t, cm.Scheduled())

	cm.Start()
	cm.Stop()
}

func TestPruneJob(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, dao.Migrate(db))

	doc := &dao.Document{Title: "Doc"}
	require.NoError(t, dao.CreateDocument(db, doc, editor.HTMLToData(`<p>v1</p>`)))
	for i := 2; i <= 4; i++ {
		_, err := dao.SaveRevision(db, doc.ID, editor.HTMLToData(fmt.Sprintf(`<p>v%d</p>`, i)))
		require.NoError(t, err)
	}

	cm := NewCronManager(JobRegistry{PruneRevisionsJob: PruneJob(db, 1, "@hourly")})
	require.NoError(t, cm.LoadJobs())
	require.NoError(t, cm.RunNow(PruneRevisionsJob))

	revs, err := dao.GetRevisions(db, doc.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, 4, revs[0].Seq)
}
