package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, chunkSize int) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(t.TempDir(), chunkSize)
	require.NoError(t, err)
	return s
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	data := make([]byte, n)
	_, err := rand.Read(data)
	require.NoError(t, err)
	return data
}

func TestStreamToDiskExactBytes(t *testing.T) {
	// 覆盖小于、等于、不整除、整除多个分块的情况
	const chunkSize = 1024
	sizes := []int{0, 1, chunkSize - 1, chunkSize, chunkSize + 1, chunkSize*7 + 13}

	for _, size := range sizes {
		s := newTestStorage(t, chunkSize)
		data := randomBytes(t, size)

		finalName, written, err := s.StreamToDisk(context.Background(), bytes.NewReader(data), "data.bin")
		require.NoError(t, err, "size=%d", size)
		assert.Equal(t, "data.bin", finalName)
		assert.Equal(t, int64(size), written)

		onDisk, err := os.ReadFile(filepath.Join(s.BaseDir(), finalName))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(data, onDisk), "落盘内容必须逐字节一致 size=%d", size)
	}
}

func TestStreamToDiskEquivalentToBuffered(t *testing.T) {
	s := newTestStorage(t, 64*1024)
	data := randomBytes(t, 300*1024)

	streamName, streamWritten, err := s.StreamToDisk(context.Background(), bytes.NewReader(data), "a.bin")
	require.NoError(t, err)
	bufName, bufWritten, err := s.SaveBuffered(data, "b.bin")
	require.NoError(t, err)

	assert.Equal(t, streamWritten, bufWritten)
	streamed, err := os.ReadFile(filepath.Join(s.BaseDir(), streamName))
	require.NoError(t, err)
	buffered, err := os.ReadFile(filepath.Join(s.BaseDir(), bufName))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(streamed, buffered))
}

// errReader 在吐出 payload 后返回一个读取错误，模拟客户端中途断开
type errReader struct {
	payload []byte
	offset  int
}

func (r *errReader) Read(p []byte) (int, error) {
	if r.offset < len(r.payload) {
		n := copy(p, r.payload[r.offset:])
		r.offset += n
		return n, nil
	}
	return 0, errors.New("connection reset")
}

func TestStreamToDiskCleansUpOnReadError(t *testing.T) {
	s := newTestStorage(t, 1024)

	_, _, err := s.StreamToDisk(context.Background(), &errReader{payload: randomBytes(t, 4096)}, "partial.bin")
	require.Error(t, err)

	// 半成品文件必须被删除
	_, statErr := os.Stat(filepath.Join(s.BaseDir(), "partial.bin"))
	assert.True(t, os.IsNotExist(statErr), "失败的上传不能留下部分写入的文件")
}

func TestStreamToDiskContextCancel(t *testing.T) {
	s := newTestStorage(t, 1024)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.StreamToDisk(ctx, bytes.NewReader(randomBytes(t, 4096)), "cancelled.bin")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(filepath.Join(s.BaseDir(), "cancelled.bin"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFileNameConflictSuffix(t *testing.T) {
	s := newTestStorage(t, 1024)

	name1, _, err := s.SaveBuffered([]byte("one"), "report.pdf")
	require.NoError(t, err)
	name2, _, err := s.SaveBuffered([]byte("two"), "report.pdf")
	require.NoError(t, err)
	name3, _, err := s.SaveBuffered([]byte("three"), "report.pdf")
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", name1)
	assert.Equal(t, "report_1.pdf", name2)
	assert.Equal(t, "report_2.pdf", name3)

	// 三个文件各自保留自己的内容
	data, err := os.ReadFile(filepath.Join(s.BaseDir(), "report_1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestFileNameConflictWithoutExtension(t *testing.T) {
	s := newTestStorage(t, 1024)

	name1, _, err := s.SaveBuffered([]byte("one"), "README")
	require.NoError(t, err)
	name2, _, err := s.SaveBuffered([]byte("two"), "README")
	require.NoError(t, err)

	assert.Equal(t, "README", name1)
	assert.Equal(t, "README_1", name2)
}

func TestStatAndOpen(t *testing.T) {
	s := newTestStorage(t, 1024)
	data := []byte("hello world")
	_, _, err := s.SaveBuffered(data, "hello.txt")
	require.NoError(t, err)

	info, err := s.Stat("hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", info.Name)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.Contains(t, info.MimeType, "text/plain")
	assert.False(t, info.Modified.IsZero())

	f, err := s.Open("hello.txt")
	require.NoError(t, err)
	defer f.Close()
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, data, content)
}

func TestStatMissingFile(t *testing.T) {
	s := newTestStorage(t, 1024)

	_, err := s.Stat("ghost.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = s.Open("ghost.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestRemove(t *testing.T) {
	s := newTestStorage(t, 1024)
	_, _, err := s.SaveBuffered([]byte("x"), "tmp.txt")
	require.NoError(t, err)

	require.NoError(t, s.Remove("tmp.txt"))
	assert.False(t, s.Exists("tmp.txt"))
	assert.ErrorIs(t, s.Remove("tmp.txt"), ErrObjectNotFound)
}

func TestListSkipsDirectories(t *testing.T) {
	s := newTestStorage(t, 1024)
	_, _, err := s.SaveBuffered([]byte("a"), "a.txt")
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(s.BaseDir(), "subdir"), 0755))

	files, err := s.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.txt", files[0].Name)
}

func TestUsedSpace(t *testing.T) {
	s := newTestStorage(t, 1024)
	_, _, err := s.SaveBuffered(randomBytes(t, 100), "a.bin")
	require.NoError(t, err)
	_, _, err = s.SaveBuffered(randomBytes(t, 250), "b.bin")
	require.NoError(t, err)

	total, count, err := s.UsedSpace()
	require.NoError(t, err)
	assert.Equal(t, int64(350), total)
	assert.Equal(t, 2, count)
}
