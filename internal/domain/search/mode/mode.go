package mode

// Mode is the query handling class assigned during classification.
type Mode string

// Query class constants.
const (
	// Simple covers short literal product queries; results get confidence tiering.
	Simple Mode = "simple"
	// Complex covers descriptive intent queries; results get reranking and discovery.
	Complex Mode = "complex"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Simple || m == Complex
}
