package models

type ChunkKind string

const (
	ChunkFunction  ChunkKind = "function"
	ChunkClass     ChunkKind = "class"
	ChunkInterface ChunkKind = "interface"
	ChunkType      ChunkKind = "type"
)

// CodeChunk is a heuristically extracted logical unit of one source file.
// StartLine/EndLine are 1-indexed and inclusive; chunks of one file never
// overlap.
type CodeChunk struct {
	Kind      ChunkKind `json:"kind"`
	Name      string    `json:"name"`
	StartLine int       `json:"startLine"`
	EndLine   int       `json:"endLine"`
	Content   string    `json:"content"`
	Signature string    `json:"signature"`
}

// CallGraphNode is one function/class in a per-run call graph. Edges only
// reference names that exist as nodes in the same graph.
type CallGraphNode struct {
	Name       string   `json:"name"`
	FilePath   string   `json:"filePath"`
	Calls      []string `json:"calls,omitempty"`
	CalledBy   []string `json:"calledBy,omitempty"`
	IsExported bool     `json:"isExported"`
	IsAsync    bool     `json:"isAsync"`
	StartLine  int      `json:"startLine"`
	EndLine    int      `json:"endLine"`
}
