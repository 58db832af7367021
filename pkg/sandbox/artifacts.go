package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultArtifactPatterns 默认的产物匹配模式（相对工作目录）
var DefaultArtifactPatterns = []string{"**/*.png", "**/*.jpg", "**/*.svg", "**/*.csv"}

// artifactSet 路径到修改时间的快照
type artifactSet map[string]time.Time

// scanArtifacts 在 dir 中查找匹配 patterns 的普通文件，返回相对路径快照
func scanArtifacts(dir string, patterns []string) (artifactSet, error) {
	set := make(artifactSet)
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern), doublestar.WithNoFollow())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, match := range matches {
			info, err := os.Lstat(match)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			rel, err := filepath.Rel(dir, match)
			if err != nil {
				return nil, fmt.Errorf("relative path for %q: %w", match, err)
			}
			set[rel] = info.ModTime()
		}
	}
	return set, nil
}

// changedSince 返回 after 中新增或修改过的路径（已排序）
func (after artifactSet) changedSince(before artifactSet) []string {
	var changed []string
	for path, mod := range after {
		if prev, ok := before[path]; !ok || !prev.Equal(mod) {
			changed = append(changed, path)
		}
	}
	slices.Sort(changed)
	return changed
}

// formatArtifacts 生成追加到输出末尾的产物列表
func formatArtifacts(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Artifacts:\n")
	for _, p := range paths {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	return b.String()
}
