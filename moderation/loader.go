package moderation

import (
	"bufio"
	"bytes"
	"chat-rooms/errors"
	"embed"
	"io/fs"
	"path"
	"strings"

	"github.com/samber/lo"
)

//go:embed censored/*.txt
var defaultCensored embed.FS

// CensoredData is the merged word list and the languages it was read from.
type CensoredData struct {
	Words     []string
	Languages []string
}

// CensoredLoader reads one word per line from every .txt file of a directory.
// The file name without extension is the language code.
type CensoredLoader struct {
	fs fs.FS
}

func NewCensoredLoader(fsys fs.FS) *CensoredLoader {
	return &CensoredLoader{fs: fsys}
}

// DefaultLoader reads the word lists shipped with the hub.
func DefaultLoader() (*CensoredLoader, string) {
	return NewCensoredLoader(defaultCensored), "censored"
}

func (l *CensoredLoader) LoadAll(dir string) (*CensoredData, error) {
	entries, err := fs.ReadDir(l.fs, dir)
	if err != nil {
		return nil, err
	}

	data := &CensoredData{}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
			continue
		}
		data.Languages = append(data.Languages, strings.TrimSuffix(entry.Name(), ".txt"))

		content, err := fs.ReadFile(l.fs, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		// Scanner copes with \r\n line endings
		scanner := bufio.NewScanner(bytes.NewReader(content))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				data.Words = append(data.Words, line)
			}
		}
		if err = scanner.Err(); err != nil {
			return nil, err
		}
	}

	data.Words = lo.Uniq(data.Words)
	if len(data.Words) == 0 {
		return nil, errors.ErrEmptyWords
	}
	return data, nil
}
