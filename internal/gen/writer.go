package gen

import (
	"fmt"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFiles writes all generated files to the output directory.
// It creates the directory if it doesn't exist.
func WriteFiles(files []GeneratedFile, outputDir string) error {
	err := os.MkdirAll(outputDir, dirPerm)
	if err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, file := range files {
		outputPath := filepath.Join(outputDir, file.Filename)

		err := os.WriteFile(outputPath, file.Content, filePerm)
		if err != nil {
			return fmt.Errorf("writing file %s: %w", file.Filename, err)
		}
	}

	return nil
}

// WritePackageFiles writes each file into the directory of its package.
// dirs maps package paths to directories.
func WritePackageFiles(files []GeneratedFile, dirs map[string]string) error {
	for _, file := range files {
		dir, ok := dirs[file.PkgPath]
		if !ok {
			return fmt.Errorf("no directory for package %s", file.PkgPath)
		}

		if err := WriteFiles([]GeneratedFile{file}, dir); err != nil {
			return err
		}
	}

	return nil
}
