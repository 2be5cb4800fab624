package vm

import (
	"fmt"
	"sync"
	"testing"

	"lumen/internal/value"
)

func TestAccessMapConcurrentUse(t *testing.T) {
	m := newAccessMap()
	m.put("n", value.Int(0))

	var wg sync.WaitGroup
	for g := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("v%d", g)
			for i := range 200 {
				if !m.store(name, value.Int(int64(i))) {
					return
				}
				m.load("n")
			}
		}()
	}
	for i := range 200 {
		m.put("n", value.Int(int64(i)))
		m.get("v0")
	}
	m.close()
	wg.Wait()

	if _, ok := m.load("n"); ok {
		t.Fatal("load succeeded after close")
	}
	if m.store("n", value.Int(1)) {
		t.Fatal("store succeeded after close")
	}
	if got := m.get("n"); !value.StrictEqual(got, value.Int(199)) {
		t.Fatalf("caller value = %s, want 199", got.Repr())
	}
}
