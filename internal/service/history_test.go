package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChatHistory_TurnsReturnsCopy(t *testing.T) {
	h := NewChatHistory()
	h.Append("s1", "q1", "a1")

	turns := h.Turns("s1")
	turns[0].Answer = "mutated"

	require.Equal(t, "a1", h.Turns("s1")[0].Answer)
}

func TestChatHistory_ConcurrentAppend(t *testing.T) {
	h := NewChatHistory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h.Append("s1", fmt.Sprintf("q%d", i), "a")
		}(i)
	}
	wg.Wait()
	require.Equal(t, 50, h.Len("s1"))
}
