package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore 管理訊息附件在本地磁碟上的儲存
// 儲存時以 uuid 重新命名，避免原始檔名造成路徑衝突
type FileStore struct {
	dir string
}

// NewFileStore 建立附件儲存目錄並回傳 FileStore
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %v", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save 寫入一個新的附件，回傳儲存用的檔名
func (fs *FileStore) Save(originalName string, r io.Reader) (string, error) {
	stored := uuid.NewString() + filepath.Ext(originalName)

	f, err := os.Create(filepath.Join(fs.dir, stored))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return stored, nil
}

// Open 開啟已儲存的附件供下載
func (fs *FileStore) Open(stored string) (*os.File, error) {
	return os.Open(filepath.Join(fs.dir, filepath.Base(stored)))
}

// Delete 移除附件
// 刪除失敗只記錄為錯誤回傳，呼叫端視為 best-effort，不因此中斷資料列的變更
func (fs *FileStore) Delete(stored string) error {
	if stored == "" {
		return nil
	}
	return os.Remove(filepath.Join(fs.dir, filepath.Base(stored)))
}
