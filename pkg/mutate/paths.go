package mutate

import "path/filepath"

func depsRootRel(configured string) string {
	if configured == "" {
		return ".graft"
	}
	return configured
}

func dependencyPath(repoRoot, depsRootRelPath, name string) string {
	return filepath.Join(repoRoot, depsRootRelPath, name)
}

func defaultLockPath(repoRoot string) string {
	return filepath.Join(repoRoot, "graft.lock")
}
