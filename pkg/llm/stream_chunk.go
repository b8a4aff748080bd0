package llm

// StreamChunk is one piece of a streamed LLM completion.
//
// The first chunk to carry content typically also carries Role. The final
// chunk has Finished set. A chunk with Error set ends the stream.
type StreamChunk struct {
	Role     string
	Content  string
	Finished bool
	Error    error
}

// IsError reports whether this chunk represents a stream failure.
func (c *StreamChunk) IsError() bool {
	return c.Error != nil
}
