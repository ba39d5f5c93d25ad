package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
)

const maxRootDepth = 8

var dotenvOnce sync.Once

// LoadDotenvOnce loads a .env file once per process. ENV_FILE selects an explicit
// file, NO_DOTENV=1 disables loading and DOTENV_OVERLOAD=1 lets the file win over
// variables already present in the environment.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}
	load := godotenv.Load
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		load = godotenv.Overload
	}
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		_ = load(envFile)
		return
	}
	if _, ok := walkToRoot(func(dir string) { _ = load(filepath.Join(dir, ".env")) }); ok {
		return
	}
	_ = load(".env")
}

// walkToRoot visits directories from this source file upwards and stops at the
// first one holding go.mod or .git.
func walkToRoot(visit func(dir string)) (string, bool) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", false
	}
	dir := filepath.Dir(file)
	for i := 0; i < maxRootDepth; i++ {
		if visit != nil {
			visit(dir)
		}
		if fileExists(filepath.Join(dir, "go.mod")) || fileExists(filepath.Join(dir, ".git")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// ProjectRoot returns the repository root, falling back to the working directory.
func ProjectRoot() (string, error) {
	if dir, ok := walkToRoot(nil); ok {
		return dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return ".", fmt.Errorf("getwd: %w", err)
	}
	return wd, nil
}

// MustProjectPath joins rel onto the repository root and panics when the root cannot be found.
func MustProjectPath(rel string) string {
	root, err := ProjectRoot()
	if err != nil {
		panic(err)
	}
	return filepath.Join(root, rel)
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}
