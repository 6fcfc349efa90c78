package slate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slateops/slate/model/recommendation"
)

func TestStoreLastWriteWins(t *testing.T) {
	s := NewStore()

	_, ok := s.Get()
	assert.False(t, ok)

	s.Set(recommendation.Recommendation{Action: "restock", Quantity: 10, Confidence: recommendation.ConfidenceLow, GeneratedAt: time.Now()})
	s.Set(recommendation.Recommendation{Action: "reduce_price", Quantity: 5, Confidence: recommendation.ConfidenceHigh, GeneratedAt: time.Now()})

	current, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, "reduce_price", current.Action)

	s.Clear()
	_, ok = s.Get()
	assert.False(t, ok)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func(quantity int) {
			defer wg.Done()
			s.Set(recommendation.Recommendation{Action: "restock", Quantity: quantity})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = s.Get()
		}()
	}
	wg.Wait()

	current, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, "restock", current.Action)
}
