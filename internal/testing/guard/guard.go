package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ADVISTA_TEST_MODE") == "" {
			_ = os.Setenv("ADVISTA_TEST_MODE", "1")
		}
	})
}
