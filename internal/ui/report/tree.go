package report

import (
	"sort"
	"strings"

	"repo2text/internal/engine/catalog"
)

type treeNode struct {
	children map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{children: make(map[string]*treeNode)}
}

// Tree renders the display paths of files as an indented index using box
// drawing connectors. Siblings are sorted by name.
func Tree(files []catalog.FileDescriptor) string {
	root := newTreeNode()
	for _, f := range files {
		display := f.DisplayPath
		if display == "" {
			display = f.Path
		}
		node := root
		for _, part := range strings.FieldsFunc(display, isSeparator) {
			child, ok := node.children[part]
			if !ok {
				child = newTreeNode()
				node.children[part] = child
			}
			node = child
		}
	}

	var b strings.Builder
	writeTree(&b, root, "")
	return b.String()
}

func writeTree(b *strings.Builder, node *treeNode, prefix string) {
	names := make([]string, 0, len(node.children))
	for name := range node.children {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		connector, extension := "├── ", "│   "
		if i == len(names)-1 {
			connector, extension = "└── ", "    "
		}
		b.WriteString(prefix + connector + name + "\n")
		writeTree(b, node.children[name], prefix+extension)
	}
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}
