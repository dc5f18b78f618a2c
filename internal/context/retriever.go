package context

// Retriever is the interface that all context retrievers must implement.
// Each retriever collects one kind of supplemental context that is sent to
// the model next to terminal output.
type Retriever interface {
	// Name returns the unique identifier for this retriever.
	// This is used as the key in the context map returned by Provider.
	Name() string

	// GetContext returns the context string for this retriever.
	GetContext() (string, error)
}
