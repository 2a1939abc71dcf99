package api

import (
	"math/rand"
	"net/http"
	"sync"

	"github.com/aryankumar/batchexec/internal/config"
	"github.com/aryankumar/batchexec/internal/response"
)

type record struct {
	Value int
}

// memoryStore retains blocks of records so heap growth can be provoked and
// released on demand.
type memoryStore struct {
	mu        sync.Mutex
	blocks    [][]record
	blockSize int
}

func newMemoryStore(blockSize int) *memoryStore {
	if blockSize <= 0 {
		blockSize = config.DefaultMemoryBlockSize
	}
	return &memoryStore{blockSize: blockSize}
}

func (m *memoryStore) add() int {
	block := make([]record, m.blockSize)
	for i := range block {
		block[i].Value = rand.Intn(1 << 30)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks = append(m.blocks, block)
	memoryBlocks.Set(float64(len(m.blocks)))
	return len(m.blocks)
}

// remove releases the oldest block, if any.
func (m *memoryStore) remove() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.blocks) > 0 {
		m.blocks[0] = nil
		m.blocks = m.blocks[1:]
	}
	memoryBlocks.Set(float64(len(m.blocks)))
	return len(m.blocks)
}

func (s *Server) handleMemoryAdd(w http.ResponseWriter, r *http.Request) {
	n := s.memory.add()
	s.logger.Debug("memory block added", "blocks", n, "block_size", s.memory.blockSize)
	response.Write(w, http.StatusOK, response.Success(n), s.logger)
}

func (s *Server) handleMemoryRemove(w http.ResponseWriter, r *http.Request) {
	n := s.memory.remove()
	s.logger.Debug("memory block removed", "blocks", n)
	response.Write(w, http.StatusOK, response.Success(n), s.logger)
}
