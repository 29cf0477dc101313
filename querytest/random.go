package querytest

import (
	"fmt"
	"math/rand"
	"sync/atomic"
)

var globalSeed atomic.Int64

// RandomKeys returns n unique endpoint keys, seeded independently of any
// other RandomKeys call in the same test binary.
func RandomKeys(n int) []string {
	rng := rand.New(rand.NewSource(globalSeed.Add(1)))
	keys := make([]string, n)
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("endpoint-%d", rng.Int63())
		if _, ok := seen[k]; ok {
			i--
			continue
		}
		seen[k] = struct{}{}
		keys[i] = k
	}
	return keys
}
