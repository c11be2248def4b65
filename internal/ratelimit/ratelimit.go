// Package ratelimit caps how many generative-model requests a single
// collection run may issue.
package ratelimit

import (
	"fmt"
	"log"
	"sync"
)

// Budget is a concurrency-safe request counter. A max of 0 means
// unlimited.
type Budget struct {
	mu    sync.Mutex
	count int
	max   int
}

func NewBudget(max int) *Budget {
	return &Budget{max: max}
}

// Use reserves one request from the budget.
func (b *Budget) Use() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.count >= b.max {
		return fmt.Errorf("llm request budget exceeded (%d/%d)", b.count, b.max)
	}

	b.count++
	if b.max > 0 && b.count == b.max {
		log.Printf("LLM request budget exhausted (%d/%d)", b.count, b.max)
	}
	return nil
}

// Used returns how many requests have been reserved so far.
func (b *Budget) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}
