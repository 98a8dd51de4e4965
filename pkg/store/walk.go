package store

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/opcmap/policymap/pkg/errors"
	"github.com/opcmap/policymap/pkg/record"
)

// Subdirectories of the data root.
const (
	PoliciesDir = "policies"
	ParksDir    = "parks"
)

// dataFile is one candidate record file found by the walker.
type dataFile struct {
	Dir  string // city directory name for policies, empty for parks
	Path string // absolute or root-joined path
	Rel  string // path relative to the data root, slash separated
}

// walkPolicies enumerates policies/<city>/*.yaml under root.
// A missing or unreadable policies directory is fatal; an unreadable city
// directory is reported to skip and the walk continues.
func walkPolicies(root string, skip func(rel string, err error)) ([]dataFile, error) {
	dir := filepath.Join(root, PoliciesDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataDirNotFound, err, "read policies directory %s", dir)
	}

	var files []dataFile
	for _, e := range entries {
		if !isDir(dir, e) {
			continue
		}
		cityDir := filepath.Join(dir, e.Name())
		found, err := listDataFiles(cityDir)
		if err != nil {
			skip(rel(root, cityDir), err)
			continue
		}
		for _, name := range found {
			p := filepath.Join(cityDir, name)
			files = append(files, dataFile{Dir: e.Name(), Path: p, Rel: rel(root, p)})
		}
	}
	return files, nil
}

// walkParks enumerates parks/*.yaml under root. A missing parks directory
// yields no files; any other read failure is reported to skip and also
// yields no files.
func walkParks(root string, skip func(rel string, err error)) []dataFile {
	dir := filepath.Join(root, ParksDir)
	found, err := listDataFiles(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			skip(ParksDir, err)
		}
		return nil
	}
	files := make([]dataFile, 0, len(found))
	for _, name := range found {
		p := filepath.Join(dir, name)
		files = append(files, dataFile{Path: p, Rel: rel(root, p)})
	}
	return files
}

// listDataFiles returns the names of regular YAML files directly in dir,
// sorted lexically.
func listDataFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if isDir(dir, e) || !record.IsDataFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// isDir follows symlinks so that linked city directories are walked.
func isDir(parent string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}

func rel(root, path string) string {
	r, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}
