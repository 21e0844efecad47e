// Package fs reads documents from disk and writes processed documents back.
package fs

import (
	"bytes"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/smileys/smileys/internal/types"
)

// sniffSize is how much of a file IsTextFile inspects.
const sniffSize = 1024

// FileInfo is the subset of file metadata processing needs.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
	Mode    os.FileMode
}

// ReadFile reads the entire contents of a file.
func ReadFile(path string) types.Result[[]byte] {
	data, err := os.ReadFile(path) // #nosec G304 - paths come from discovery
	if err != nil {
		return types.Err[[]byte](err)
	}
	return types.Ok(data)
}

// GetFileInfo returns size, modification time and permissions of a file.
func GetFileInfo(path string) types.Result[FileInfo] {
	stat, err := os.Stat(path)
	if err != nil {
		return types.Err[FileInfo](err)
	}
	return types.Ok(FileInfo{
		Path:    path,
		Size:    stat.Size(),
		ModTime: stat.ModTime(),
		Mode:    stat.Mode().Perm(),
	})
}

// IsTextFile samples the head of a file and reports whether it looks like
// text. Unreadable files are not text.
func IsTextFile(path string) bool {
	file, err := os.Open(path) // #nosec G304 - paths come from discovery
	if err != nil {
		return false
	}
	defer func() {
		_ = file.Close()
	}()

	buffer := make([]byte, sniffSize)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false
	}
	return IsTextContent(buffer[:n])
}

// IsTextContent rejects NUL bytes, invalid UTF-8 and content where more than
// 30% of bytes are control characters. A sample cut inside a multi-byte rune
// is still accepted.
func IsTextContent(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return false
	}
	if !utf8.Valid(trimPartialRune(data)) {
		return false
	}

	control := 0
	for _, b := range data {
		if b < 32 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			control++
		}
	}
	return float64(control)/float64(len(data)) <= 0.30
}

// trimPartialRune drops an incomplete UTF-8 sequence at the end of data.
func trimPartialRune(data []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		b := data[len(data)-i]
		if !utf8.RuneStart(b) {
			continue
		}
		if !utf8.FullRune(data[len(data)-i:]) {
			return data[:len(data)-i]
		}
		break
	}
	return data
}
