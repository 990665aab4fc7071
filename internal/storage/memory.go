package storage

// MemoryBackend keeps blobs in a map. It backs the store in tests.
type MemoryBackend struct {
	blobs map[string][]byte
	saves int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: map[string][]byte{}}
}

func (m *MemoryBackend) Load(key string) ([]byte, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) Save(key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	m.blobs[key] = append([]byte(nil), data...)
	m.saves++
	return nil
}

func (m *MemoryBackend) Quarantine(key string) error {
	if data, ok := m.blobs[key]; ok {
		m.blobs[key+"_corrupt"] = data
		delete(m.blobs, key)
	}
	return nil
}

// Saves returns the number of successful Save calls.
func (m *MemoryBackend) Saves() int { return m.saves }

func (m *MemoryBackend) Close() error { return nil }
