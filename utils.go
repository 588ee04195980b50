package foodprep

import (
	"bufio"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// imageExtensions lists the (lower case) file extensions treated as images.
var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// isImageFile reports whether the file name has one of the known image extensions.
func isImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// filesByExtInDir returns the paths of all regular files with file extension ext found directly in
// directory dirPath, sorted by name. All files are returned if ext is empty.
func filesByExtInDir(dirPath, ext string) ([]string, error) {
	return filesInDir(dirPath, func(name string) bool { return strings.HasSuffix(name, ext) })
}

// imagesInDir returns the paths of all image files directly in dirPath, sorted by name.
func imagesInDir(dirPath string) ([]string, error) {
	return filesInDir(dirPath, isImageFile)
}

// filesInDir returns the sorted paths of the regular files (or symlinks) in dirPath whose name is
// accepted by keep.
func filesInDir(dirPath string, keep func(name string) bool) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read directory %q", dirPath)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		// Must be a regular file or a symlink.
		if !e.Type().IsRegular() && e.Type()&os.ModeSymlink == 0 {
			continue
		}
		if !keep(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dirPath, e.Name()))
	}
	sort.Strings(files)

	return files, nil
}

// baseName returns the file name of path without directory and extension.
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// uniqueByBaseName keeps the first of the sorted paths for each base name. Later paths sharing a
// base name would pair with the same label file and are returned as duplicates.
func uniqueByBaseName(paths []string) (kept, duplicates []string) {
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		base := baseName(p)
		if first, ok := seen[base]; ok {
			log.Printf("%q shares its base name with %q, skipping", p, first)
			duplicates = append(duplicates, p)
			continue
		}
		seen[base] = p
		kept = append(kept, p)
	}
	return kept, duplicates
}

// labelPathFor returns the path of the label file in labelDir that pairs with imagePath.
func labelPathFor(labelDir, imagePath string) string {
	return filepath.Join(labelDir, baseName(imagePath)+LabelFileExt)
}

// fileExists reports whether path exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// resetDir removes dirPath with all of its contents and creates it again, empty.
func resetDir(dirPath string) error {
	if err := os.RemoveAll(dirPath); err != nil {
		return errors.Wrapf(err, "failed to clear %q", dirPath)
	}
	return ensureDirs(dirPath)
}

// ensureDirs creates all given directories if they do not exist yet.
func ensureDirs(dirPaths ...string) error {
	for _, d := range dirPaths {
		if err := os.MkdirAll(d, 0755); err != nil {
			return errors.Wrapf(err, "failed to create directory %q", d)
		}
	}
	return nil
}

// readLines returns a slice of lines read from the file at path.
func readLines(path string) (lines []string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read file %q", path)
	}
	defer closeWithErrCheck(file, &err)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %q as lines", path)
	}

	return lines, nil
}

// copyFile copies the file at src to dst, replacing dst if it exists.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "cannot open %q", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", dst)
	}
	defer closeWithErrCheck(out, &err)

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, "failed to copy %q to %q", src, dst)
	}

	return nil
}

// closeWithErrCheck calls c.Close(). If it returns an error, and (*e == nil), e is set to that
// error.
func closeWithErrCheck(c io.Closer, e *error) {
	err := c.Close()
	if err != nil && *e == nil {
		*e = err
	}
}

// logSkip logs that the item at path was skipped for the given reason.
func logSkip(path string, reason interface{}) {
	log.Printf("Skipping %q: %v", path, reason)
}
