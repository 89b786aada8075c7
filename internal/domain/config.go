package domain

// KeyPrefix namespaces every key speakerdex writes to the store.
const KeyPrefix = "speakerdex:"

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model      string
	Dimensions int
}

// DefaultVectorConfig returns the configuration the speaker corpus embeddings were computed with.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
	}
}
