package inspect

import (
	"fmt"
	"reflect"

	"github.com/go-drift/arbor/pkg/core"
)

// TreeNode represents a node in the serialized element tree.
type TreeNode struct {
	WidgetType  string     `json:"widgetType"`
	ElementType string     `json:"elementType"`
	Key         any        `json:"key,omitempty"`
	Depth       int        `json:"depth"`
	NeedsBuild  bool       `json:"needsBuild"`
	HasState    bool       `json:"hasState,omitempty"`
	Children    []TreeNode `json:"children,omitempty"`
}

// maxTreeDepth limits recursion depth to prevent stack overflow from malformed trees.
const maxTreeDepth = 500

// SerializeTree converts an element tree to its JSON-serializable form.
func SerializeTree(root core.Element) TreeNode {
	return serializeTree(root, 0)
}

func serializeTree(elem core.Element, depth int) TreeNode {
	if elem == nil {
		return TreeNode{ElementType: "<nil>"}
	}

	widget := elem.Widget()
	node := TreeNode{
		ElementType: reflect.TypeOf(elem).String(),
		Depth:       elem.Depth(),
		NeedsBuild:  getNeedsBuild(elem),
	}

	if widget != nil {
		node.WidgetType = reflect.TypeOf(widget).String()
		node.Key = safeKey(widget.Key())
	}

	if _, ok := elem.(*core.StatefulElement); ok {
		node.HasState = true
	}

	if depth < maxTreeDepth {
		elem.VisitChildren(func(child core.Element) bool {
			node.Children = append(node.Children, serializeTree(child, depth+1))
			return true
		})
	}

	return node
}

// safeKey converts a widget key to a JSON-safe value.
// Non-serializable types (funcs, chans, etc.) are converted to their string representation.
func safeKey(key any) any {
	if key == nil {
		return nil
	}
	switch key.(type) {
	case string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, bool:
		return key
	default:
		return fmt.Sprintf("%v", key)
	}
}

// getNeedsBuild safely retrieves the dirty flag from an element.
func getNeedsBuild(elem core.Element) bool {
	if elem == nil {
		return false
	}
	if nb, ok := elem.(interface{ NeedsBuild() bool }); ok {
		return nb.NeedsBuild()
	}
	return false
}
