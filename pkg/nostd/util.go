package nostd

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SafePathJoin 将用户输入拼接到基准目录下，拒绝路径逃逸
func SafePathJoin(baseDir, userInput string) (string, error) {
	cleanedPath := filepath.Clean(userInput)
	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	absFilePath, err := filepath.Abs(filepath.Join(absBaseDir, cleanedPath))
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(absFilePath, absBaseDir) {
		return "", fmt.Errorf("invalid file path: %s", userInput)
	}
	return absFilePath, nil
}
