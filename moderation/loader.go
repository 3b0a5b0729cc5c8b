package moderation

import (
	"bufio"
	"bytes"
	"io/fs"
	"path"
	"sort"
	"strings"

	"ephemeral-chat/errors"
	"github.com/samber/lo"
)

// WordList is the merged content of the censored word files, with the file
// names kept for logging ("fr.txt" -> "fr").
type WordList struct {
	Words     []string
	Languages []string
}

// LoadWords reads every .txt file at the root of dir, one word per line.
// inline words (from configuration) are merged in. Duplicates are removed.
func LoadWords(fsys fs.FS, dir string, inline []string) (WordList, error) {
	unique := make(map[string]struct{})
	for _, word := range inline {
		if word = strings.TrimSpace(word); word != "" {
			unique[word] = struct{}{}
		}
	}

	var languages []string
	if fsys != nil {
		entries, err := fs.ReadDir(fsys, dir)
		if err != nil {
			return WordList{}, err
		}
		for _, entry := range entries {
			if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
				continue
			}
			languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

			data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
			if err != nil {
				return WordList{}, err
			}
			// bufio handles both \n and \r\n
			scanner := bufio.NewScanner(bytes.NewReader(data))
			for scanner.Scan() {
				if line := strings.TrimSpace(scanner.Text()); line != "" {
					unique[line] = struct{}{}
				}
			}
			if err := scanner.Err(); err != nil {
				return WordList{}, err
			}
		}
	}

	if len(unique) == 0 {
		return WordList{}, errors.ErrEmptyWords
	}
	words := lo.Keys(unique)
	sort.Strings(words)
	return WordList{Words: words, Languages: languages}, nil
}
