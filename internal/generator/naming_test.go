package generator

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allanpk716/docx_filler/internal/domain"
)

func TestDisplayName(t *testing.T) {
	keys := []string{"姓名", "name"}

	tests := []struct {
		name   string
		record domain.DataRecord
		index  int
		want   string
	}{
		{"优先姓名", domain.DataRecord{"姓名": "张三", "name": "Zhang"}, 0, "张三"},
		{"备用 name", domain.DataRecord{"name": "Alice"}, 0, "Alice"},
		{"存在但为空", domain.DataRecord{"姓名": "", "name": "Alice"}, 0, ""},
		{"序号", domain.DataRecord{"电话": "138"}, 4, "合同_5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.record, keys, "合同", tt.index); got != tt.want {
				t.Errorf("DisplayName() = %q, 期望 %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"张三", "张三"},
		{"李 四-2024_v1", "李 四-2024_v1"},
		{"a/b\\c:d*e?f", "abcdef"},
		{"  王五.docx  ", "王五docx"},
		{"../../etc/passwd", "etcpasswd"},
		{"***", "文件"},
		{"", "文件"},
		{"Ünïcödé", "Ünïcödé"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeFileName(tt.input, "文件"); got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, 期望 %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestOptions_FileName(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "张三_合同.docx", opts.FileName(domain.DataRecord{"姓名": "张三"}, 0))
	assert.Equal(t, "合同_3_合同.docx", opts.FileName(domain.DataRecord{}, 2))

	opts.FilenameSuffix = ""
	opts.DisplayNameKeys = []string{"客户"}
	assert.Equal(t, "甲公司.docx", opts.FileName(domain.DataRecord{"客户": "甲公司", "姓名": "张三"}, 0))
}

func TestArchiveName(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 30, 0, 0, time.Local)
	assert.Equal(t, "合同_20240501_103000.zip", ArchiveName("", now))
	assert.Equal(t, "协议_20240501_103000.zip", ArchiveName("协议", now))
}

func TestWriteZip(t *testing.T) {
	files := []domain.GeneratedFile{
		{Name: "张三_合同.docx", Data: []byte("a")},
		{Name: "张三_合同.docx", Data: []byte("b")},
		{Name: "李四_合同.docx", Data: []byte("c")},
		{Name: "张三_合同.docx", Data: []byte("d")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteZip(&buf, files))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	got := map[string]string{}
	var order []string
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		got[f.Name] = string(data)
		order = append(order, f.Name)
	}

	assert.Equal(t, []string{"张三_合同.docx", "张三_合同_2.docx", "李四_合同.docx", "张三_合同_3.docx"}, order)
	assert.Equal(t, "b", got["张三_合同_2.docx"])
	assert.Equal(t, "d", got["张三_合同_3.docx"])
}
