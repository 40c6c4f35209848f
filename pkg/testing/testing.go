package testing

import (
	"os"
	"path"
	"runtime"
)

func init() {
	// tests write logs/ and sqlite files relative to the project root, so cd there
	// before any test runs
	//
	//   in some_test.go,
	//   import (
	//     _ "liyu1981.xyz/glucose-watch-service/pkg/testing"
	//   )

	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}

	if _, found := os.LookupEnv("GO_ENV"); !found {
		_ = os.Setenv("GO_ENV", "test")
	}
}
