package entities

// KnowledgeChunk is one indexed segment of a tenant document.
type KnowledgeChunk struct {
	Namespace   string    `json:"namespace"`
	DocumentID  string    `json:"document_id"`
	ChunkIndex  int       `json:"chunk_index"`
	SourceLabel string    `json:"source_label"`
	Content     string    `json:"content"`
	Embedding   []float32 `json:"-"`
}

// VectorMatch is one similarity hit, in index ranking order.
type VectorMatch struct {
	DocumentID  string
	ChunkIndex  int
	SourceLabel string
	Content     string
	Score       float64
}

type RetrievedChunk struct {
	Text        string  `json:"text"`
	SourceLabel string  `json:"source_label"`
	Relevance   float64 `json:"relevance"`
}

type Retrieval struct {
	Chunks       []RetrievedChunk `json:"chunks"`
	SystemPrompt string           `json:"system_prompt"`
}

// Generation is the text produced by whichever provider answered first.
type Generation struct {
	Content  string
	Provider string
}

type ComposeInput struct {
	TenantID          string
	Message           string
	Retrieval         *Retrieval
	Temperature       float64
	MaxTokens         int
	RecentContext     string
	IsNewConversation bool
	FullHistory       string
}
