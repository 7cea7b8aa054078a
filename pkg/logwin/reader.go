package logwin

import (
	"bufio"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// 单文件扫描上限。超限即截断，不视为错误。
const (
	MaxBytesPerFile = 10 << 20 // 10 MiB
	MaxLinesPerFile = 200_000
)

// OpenText 按后缀透明打开纯文本或 gzip 压缩文件。
// Windows 端导出的日志可能带 UTF-8 BOM，统一剥掉。
func OpenText(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var r io.Reader = f
	closer := []io.Closer{f}
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		r = zr
		closer = append(closer, zr)
	}
	r = transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	return &textFile{r: r, closers: closer}, nil
}

type textFile struct {
	r       io.Reader
	closers []io.Closer
}

func (t *textFile) Read(p []byte) (int, error) { return t.r.Read(p) }

func (t *textFile) Close() error {
	var err error
	// gzip reader 先关，底层文件后关
	for i := len(t.closers) - 1; i >= 0; i-- {
		if e := t.closers[i].Close(); e != nil {
			err = e
		}
	}
	return err
}

// EachLine 逐行扫描 path，每行（含换行符）传给 fn；fn 返回 false 提前结束。
// 累计字节或行数超过上限时结束扫描并返回 truncated=true，仍不视为错误。
func EachLine(path string, fn func(line string) bool) (truncated bool, err error) {
	rc, err := OpenText(path)
	if err != nil {
		return false, err
	}
	defer rc.Close()

	br := bufio.NewReaderSize(rc, 64<<10)
	var byteCount, lineCount int
	for {
		line, rerr := br.ReadString('\n')
		if len(line) > 0 {
			byteCount += len(line)
			lineCount++
			if byteCount > MaxBytesPerFile || lineCount > MaxLinesPerFile {
				return true, nil
			}
			if !fn(line) {
				return false, nil
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return false, nil
			}
			return false, rerr
		}
	}
}
