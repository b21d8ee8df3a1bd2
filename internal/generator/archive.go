package generator

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/allanpk716/docx_filler/internal/domain"
)

// ArchiveName 打包文件名，如 合同_20240501_103000.zip
func ArchiveName(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = "合同"
	}
	return fmt.Sprintf("%s_%s.zip", prefix, now.Format("20060102_150405"))
}

// WriteZip 把生成的文档写入一个 ZIP，同名文件追加 _2、_3 区分
func WriteZip(w io.Writer, files []domain.GeneratedFile) error {
	zw := zip.NewWriter(w)

	used := make(map[string]int, len(files))
	for _, file := range files {
		name := uniqueName(file.Name, used)

		header := &zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: time.Now(),
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("创建压缩条目 %s 失败: %w", name, err)
		}
		if _, err := fw.Write(file.Data); err != nil {
			return fmt.Errorf("写入压缩条目 %s 失败: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("关闭压缩文件失败: %w", err)
	}
	return nil
}

func uniqueName(name string, used map[string]int) string {
	used[name]++
	if used[name] == 1 {
		return name
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := used[name]; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		if used[candidate] == 0 {
			used[candidate] = 1
			used[name] = n
			return candidate
		}
	}
}
