package repositories

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/3Eeeecho/go-filebox/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) ShareRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Share{}))
	return NewShareRepository(db)
}

func int64Ptr(v int64) *int64 { return &v }

func TestCreateAndFindByUUID(t *testing.T) {
	repo := newTestRepo(t)

	share := &models.Share{UUID: "uuid-1", FileName: "a.txt"}
	require.NoError(t, repo.Create(share))

	found, err := repo.FindByUUID("uuid-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a.txt", found.FileName)
	assert.Equal(t, int64(0), found.DownloadCount)
}

func TestFindByUUIDNotFound(t *testing.T) {
	repo := newTestRepo(t)

	found, err := repo.FindByUUID("missing")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindAllByFileNameOrder(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		share := &models.Share{UUID: id, FileName: "doc.pdf", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(share))
	}
	require.NoError(t, repo.Create(&models.Share{UUID: "other", FileName: "other.pdf"}))

	shares, err := repo.FindAllByFileName("doc.pdf")
	require.NoError(t, err)
	require.Len(t, shares, 3)
	assert.Equal(t, "new", shares[0].UUID)
	assert.Equal(t, "old", shares[2].UUID)
}

func TestIncrementDownloadCountGuard(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Create(&models.Share{
		UUID:         "limited",
		FileName:     "a.txt",
		MaxDownloads: int64Ptr(2),
	}))

	now := time.Now()
	ok, err := repo.IncrementDownloadCount("limited", now)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.IncrementDownloadCount("limited", now)
	require.NoError(t, err)
	assert.True(t, ok)

	// 第三次必须被守卫条件拒绝
	ok, err = repo.IncrementDownloadCount("limited", now)
	require.NoError(t, err)
	assert.False(t, ok)

	share, err := repo.FindByUUID("limited")
	require.NoError(t, err)
	assert.Equal(t, int64(2), share.DownloadCount, "拒绝的请求不能增加计数")
}

func TestIncrementDownloadCountExpired(t *testing.T) {
	repo := newTestRepo(t)
	past := time.Now().Add(-time.Minute)
	require.NoError(t, repo.Create(&models.Share{
		UUID:      "expired",
		FileName:  "a.txt",
		ExpiresAt: &past,
	}))

	ok, err := repo.IncrementDownloadCount("expired", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIncrementDownloadCountUnlimited(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Create(&models.Share{UUID: "open", FileName: "a.txt"}))

	for i := 0; i < 5; i++ {
		ok, err := repo.IncrementDownloadCount("open", time.Now())
		require.NoError(t, err)
		assert.True(t, ok)
	}
	share, err := repo.FindByUUID("open")
	require.NoError(t, err)
	assert.Equal(t, int64(5), share.DownloadCount)
}

func TestIncrementDownloadCountConcurrent(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Create(&models.Share{
		UUID:         "race",
		FileName:     "a.txt",
		MaxDownloads: int64Ptr(3),
	}))

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.IncrementDownloadCount("race", time.Now())
			if err == nil {
				results <- ok
			}
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for ok := range results {
		if ok {
			succeeded++
		}
	}
	assert.Equal(t, 3, succeeded, "通过守卫的请求数必须精确等于下载次数上限")

	share, err := repo.FindByUUID("race")
	require.NoError(t, err)
	assert.Equal(t, int64(3), share.DownloadCount)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Create(&models.Share{UUID: "gone", FileName: "a.txt"}))

	deleted, err := repo.Delete("gone")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete("gone")
	require.NoError(t, err)
	assert.False(t, deleted)
}
