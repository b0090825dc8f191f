package chunker

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/bugscope/backend/internal/models"
	"github.com/bugscope/backend/pkg/treesitter"
)

// SitterExtractor is the grammar-backed extractor variant. It parses the
// file with tree-sitter and emits only top-level declarations so chunk
// ranges stay disjoint. Files in unsupported languages, and files the
// grammar rejects, fall back to the heuristic scanner.
type SitterExtractor struct {
	parser   *treesitter.Parser
	fallback *Heuristic
}

func NewSitterExtractor() *SitterExtractor {
	return &SitterExtractor{
		parser:   treesitter.NewParser(),
		fallback: NewHeuristic(),
	}
}

func (e *SitterExtractor) Close() {
	e.parser.Close()
}

func (e *SitterExtractor) Extract(ctx context.Context, content []byte, path string) []models.CodeChunk {
	language := DetectLanguage(path)
	if language == "" {
		return e.fallback.Extract(ctx, content, path)
	}

	tree, err := e.parser.Parse(ctx, content, language)
	if err != nil {
		return e.fallback.Extract(ctx, content, path)
	}
	defer tree.Close()

	var chunks []models.CodeChunk
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		if node == nil {
			continue
		}
		// Unwrap "export default function f() {...}" style wrappers.
		target := node
		if node.Type() == "export_statement" && node.NamedChildCount() > 0 {
			target = node.NamedChild(0)
		}
		if chunk := e.chunkForNode(node, target, content); chunk != nil {
			chunks = append(chunks, *chunk)
		}
	}
	return chunks
}

var nodeKinds = map[string]models.ChunkKind{
	"function_declaration":           models.ChunkFunction,
	"function_definition":            models.ChunkFunction,
	"method_declaration":             models.ChunkFunction,
	"generator_function_declaration": models.ChunkFunction,
	"class_declaration":              models.ChunkClass,
	"class_definition":               models.ChunkClass,
	"interface_declaration":          models.ChunkInterface,
	"type_alias_declaration":         models.ChunkType,
	"type_declaration":               models.ChunkType,
}

func (e *SitterExtractor) chunkForNode(outer, node *sitter.Node, content []byte) *models.CodeChunk {
	kind, ok := nodeKinds[node.Type()]
	if !ok {
		return nil
	}

	name := nodeName(node, content)
	if name == "" {
		return nil
	}

	full := outer.Content(content)
	return &models.CodeChunk{
		Kind:      kind,
		Name:      name,
		StartLine: int(outer.StartPoint().Row) + 1,
		EndLine:   int(outer.EndPoint().Row) + 1,
		Content:   full,
		Signature: signatureOf(node, content, full),
	}
}

func nodeName(node *sitter.Node, content []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Content(content)
	}
	// Go type_declaration nests the identifier inside a type_spec.
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "type_spec":
			return nodeName(child, content)
		case "type_identifier", "identifier", "simple_identifier":
			return child.Content(content)
		}
	}
	return ""
}

// signatureOf returns the declaration text up to the body, or the first
// line when the grammar exposes no body field.
func signatureOf(node *sitter.Node, content []byte, full string) string {
	if body := node.ChildByFieldName("body"); body != nil {
		start, end := node.StartByte(), body.StartByte()
		if end > start && int(end) <= len(content) {
			return strings.TrimSpace(string(content[start:end]))
		}
	}
	if idx := strings.IndexByte(full, '\n'); idx > 0 {
		return strings.TrimSpace(full[:idx])
	}
	return strings.TrimSpace(full)
}
