package resolver

import "repo2text/internal/engine/catalog"

// NamespaceIndex maps each declared namespace to the files declaring it.
// Iteration follows insertion order so traversal is deterministic.
type NamespaceIndex struct {
	names []string
	files map[string]*catalog.FileSet
}

func NewNamespaceIndex() *NamespaceIndex {
	return &NamespaceIndex{files: make(map[string]*catalog.FileSet)}
}

func (ix *NamespaceIndex) Add(namespace string, file catalog.FileDescriptor) {
	set, ok := ix.files[namespace]
	if !ok {
		set = catalog.NewFileSet()
		ix.files[namespace] = set
		ix.names = append(ix.names, namespace)
	}
	set.Add(file)
}

func (ix *NamespaceIndex) Len() int {
	return len(ix.names)
}

func (ix *NamespaceIndex) Namespaces() []string {
	return append([]string(nil), ix.names...)
}

func (ix *NamespaceIndex) Declaring(namespace string) []catalog.FileDescriptor {
	set, ok := ix.files[namespace]
	if !ok {
		return nil
	}
	return set.Files()
}

// Match returns every declared namespace equal to imported or nested under it.
// Declarations are never merged upward: declaring Foo.Bar does not make Foo
// resolvable.
func (ix *NamespaceIndex) Match(imported string) []string {
	var out []string
	for _, name := range ix.names {
		if isDescendantOrSelf(name, imported) {
			out = append(out, name)
		}
	}
	return out
}
