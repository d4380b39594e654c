// Package loader discovers and reads student Word documents from a folder
// tree, one subfolder per student.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderveratry/Storm-gpt/internal/docx"
	"github.com/alexanderveratry/Storm-gpt/internal/model"
)

// ErrRootNotFound is returned when the input directory does not exist.
var ErrRootNotFound = errors.New("input directory does not exist")

// ErrNoDocuments is returned when the tree holds no Word documents at all.
var ErrNoDocuments = errors.New("no Word documents found")

// lockFilePrefix marks Office temporary lock files, which are not documents.
const lockFilePrefix = "~$"

// Inspect validates the folder structure and logs what was found: the number
// of student subfolders and the Word documents inside each. It returns
// ErrRootNotFound when root is missing and an error when no documents exist
// anywhere under it.
func Inspect(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	paths, err := findDocuments(root)
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("%w under %s", ErrNoDocuments, root)
	}

	byFolder := make(map[string][]string)
	var folders []string
	for _, p := range paths {
		folder := filepath.Base(filepath.Dir(p))
		if _, seen := byFolder[folder]; !seen {
			folders = append(folders, folder)
		}
		byFolder[folder] = append(byFolder[folder], filepath.Base(p))
	}

	slog.Info("validated folder structure", "root", root, "folders", len(folders), "documents", len(paths))
	for _, folder := range folders {
		slog.Info("student folder", "folder", folder, "documents", len(byFolder[folder]))
	}
	return nil
}

// Load reads every Word document under root, in lexical walk order. Files
// that cannot be read or parsed are logged and skipped; the batch continues.
// The student identifier is the file's immediate parent folder name.
func Load(root string) ([]model.Document, error) {
	paths, err := findDocuments(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	var docs []model.Document
	for _, path := range paths {
		text, err := docx.FileText(path)
		if err != nil {
			slog.Warn("skipping unreadable document", "path", path, "error", err)
			continue
		}
		folder := filepath.Dir(path)
		docs = append(docs, model.Document{
			Filename: filepath.Base(path),
			Student:  filepath.Base(folder),
			Folder:   folder,
			Text:     text,
		})
		slog.Debug("loaded document", "student", filepath.Base(folder), "file", filepath.Base(path))
	}

	slog.Info("documents loaded", "count", len(docs))
	return docs, nil
}

// findDocuments walks root collecting .docx paths, excluding lock files.
func findDocuments(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, lockFilePrefix) {
			return nil
		}
		if strings.EqualFold(filepath.Ext(name), ".docx") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
