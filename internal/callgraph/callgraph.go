package callgraph

import (
	"regexp"
	"strings"

	"github.com/bugscope/backend/internal/models"
)

// Graph is a request-scoped caller/callee index keyed by function name.
// The graph is closed-world: edges exist only between names that are nodes.
type Graph map[string]*models.CallGraphNode

// controlKeywords are identifiers followed by "(" that are syntax, not calls.
var controlKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "function": true, "constructor": true, "super": true,
	"typeof": true, "new": true, "do": true, "else": true, "try": true,
	"throw": true, "yield": true, "await": true, "case": true,
}

// builtinDenylist keeps well-known runtime objects and functions out of the
// graph.
var builtinDenylist = map[string]bool{
	"console": true, "Math": true, "JSON": true, "Object": true,
	"Array": true, "String": true, "Number": true, "Boolean": true,
	"Promise": true, "Date": true, "Error": true, "Symbol": true,
	"Map": true, "Set": true, "RegExp": true, "Proxy": true,
	"parseInt": true, "parseFloat": true, "isNaN": true, "require": true,
	"setTimeout": true, "setInterval": true, "clearTimeout": true,
	"clearInterval": true, "fetch": true, "alert": true, "print": true,
	"println": true, "len": true, "make": true, "append": true,
}

// A call-like token: an identifier immediately followed by "(", optionally
// preceded by an await-equivalent keyword (await / go / defer).
var callToken = regexp.MustCompile(`(?:\b(?:await|go|defer)\s+)?\b([A-Za-z_$][\w$]*)\s*\(`)

// Build constructs the call graph from per-file chunks. First pass creates
// one node per function/class chunk; second pass scans chunk bodies for
// call-like tokens, keeping only edges whose target already is a node and
// skipping self-recursion.
func Build(chunksByFile map[string][]models.CodeChunk) Graph {
	graph := Graph{}

	for path, chunks := range chunksByFile {
		for _, chunk := range chunks {
			if chunk.Kind != models.ChunkFunction && chunk.Kind != models.ChunkClass {
				continue
			}
			if _, exists := graph[chunk.Name]; exists {
				continue
			}
			graph[chunk.Name] = &models.CallGraphNode{
				Name:       chunk.Name,
				FilePath:   path,
				IsExported: isExported(chunk),
				IsAsync:    strings.Contains(chunk.Signature, "async"),
				StartLine:  chunk.StartLine,
				EndLine:    chunk.EndLine,
			}
		}
	}

	for _, chunks := range chunksByFile {
		for _, chunk := range chunks {
			caller, ok := graph[chunk.Name]
			if !ok {
				continue
			}
			for _, callee := range callTargets(chunk) {
				target, ok := graph[callee]
				if !ok || callee == chunk.Name {
					continue
				}
				if appendUnique(&caller.Calls, callee) {
					target.CalledBy = append(target.CalledBy, chunk.Name)
				}
			}
		}
	}

	return graph
}

func isExported(chunk models.CodeChunk) bool {
	if strings.Contains(chunk.Signature, "export") {
		return true
	}
	// Go/Java style: exported means capitalized.
	return chunk.Name != "" && chunk.Name[0] >= 'A' && chunk.Name[0] <= 'Z'
}

func callTargets(chunk models.CodeChunk) []string {
	var targets []string
	seen := map[string]bool{}
	for _, m := range callToken.FindAllStringSubmatch(chunk.Content, -1) {
		name := m[1]
		if controlKeywords[name] || builtinDenylist[name] || seen[name] {
			continue
		}
		seen[name] = true
		targets = append(targets, name)
	}
	return targets
}

func appendUnique(list *[]string, value string) bool {
	for _, existing := range *list {
		if existing == value {
			return false
		}
	}
	*list = append(*list, value)
	return true
}

// Nodes returns the graph as a flat slice for persistence and transport.
func (g Graph) Nodes() []models.CallGraphNode {
	nodes := make([]models.CallGraphNode, 0, len(g))
	for _, node := range g {
		nodes = append(nodes, *node)
	}
	return nodes
}
