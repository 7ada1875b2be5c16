package sdjwt

// maxFoldDepth documents the minimum nesting depth implementations of
// this package are required to support without stack overflow. Tests
// exercise trees at exactly this depth.
const maxFoldDepth = 128

// OrderedMap is a string-keyed map that preserves insertion order,
// required wherever object content order affects the order disclosures
// are emitted in (spec §9, "Ordered maps").
type OrderedMap[V any] struct {
	keys []string
	vals map[string]V
}

// NewOrderedMap returns an empty, ready-to-use OrderedMap.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{vals: make(map[string]V)}
}

// Set inserts or updates the value for key, appending key to the
// iteration order only the first time it is set.
func (m *OrderedMap[V]) Set(key string, v V) *OrderedMap[V] {
	if _, exists := m.vals[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
	return m
}

// Get retrieves the value stored for key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	return m.keys
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

// Range calls fn for every entry in insertion order.
func (m *OrderedMap[V]) Range(fn func(key string, v V)) {
	for _, k := range m.keys {
		fn(k, m.vals[k])
	}
}

// DisclosableElement is the tagged union at the heart of the disclosable
// tree: every node carries an Always flag (AlwaysSelectively vs
// NeverSelectively) and is one of *IDNode, *ObjNode, *ArrNode.
type DisclosableElement interface {
	isDisclosableElement()
	// Always reports whether this node must appear behind a digest
	// (true) or as a plain claim (false).
	Always() bool
}

type tag struct{ always bool }

func (t tag) Always() bool { return t.always }

// IDNode is a disclosable leaf: a plain JSON value with no children.
type IDNode struct {
	tag
	Value any
}

func (*IDNode) isDisclosableElement() {}

// ObjNode is a disclosable object: an ordered map of child elements, plus
// an optional floor on the number of digests its _sd array must carry.
type ObjNode struct {
	tag
	Content        *OrderedMap[DisclosableElement]
	MinimumDigests *uint32
}

func (*ObjNode) isDisclosableElement() {}

// ArrNode is a disclosable array: an ordered list of child elements, plus
// an optional digest-count floor, mirroring ObjNode.
type ArrNode struct {
	tag
	Content        []DisclosableElement
	MinimumDigests *uint32
}

func (*ArrNode) isDisclosableElement() {}

// Constructors. NSD/SD build leaves; the Obj/Arr variants build
// containers, always taking the Always flag as the leading argument
// because it governs how the *container itself* is emitted by its
// parent, independent of its children's own flags.

// NSD builds a NeverSelectively leaf.
func NSD(value any) *IDNode { return &IDNode{tag{false}, value} }

// SD builds an AlwaysSelectively leaf.
func SD(value any) *IDNode { return &IDNode{tag{true}, value} }

// Obj builds an object container node.
func Obj(always bool, content *OrderedMap[DisclosableElement], minDigests *uint32) *ObjNode {
	return &ObjNode{tag{always}, content, minDigests}
}

// Arr builds an array container node.
func Arr(always bool, content []DisclosableElement, minDigests *uint32) *ArrNode {
	return &ArrNode{tag{always}, content, minDigests}
}

// Folded is the accumulator the generic fold threads through a
// traversal: the path to the current node (nil entries mark traversal
// through an array element), the folded result, and side metadata (e.g.
// a running digest count).
type Folded struct {
	Path     []*string
	Result   any
	Metadata any
}

// ObjHandlers supplies the six entry points a fold needs to process one
// (key, element) pair of an object's content, one per {id, nested array,
// nested object} × {NeverSelectively, AlwaysSelectively}.
type ObjHandlers struct {
	NeverID   func(path []*string, key string, node *IDNode) Folded
	AlwaysID  func(path []*string, key string, node *IDNode) Folded
	NeverObj  func(path []*string, key string, child Folded) Folded
	AlwaysObj func(path []*string, key string, child Folded) Folded
	NeverArr  func(path []*string, key string, child Folded) Folded
	AlwaysArr func(path []*string, key string, child Folded) Folded
}

// ArrHandlers mirrors ObjHandlers for array element content.
type ArrHandlers struct {
	NeverID   func(path []*string, idx int, node *IDNode) Folded
	AlwaysID  func(path []*string, idx int, node *IDNode) Folded
	NeverObj  func(path []*string, idx int, child Folded) Folded
	AlwaysObj func(path []*string, idx int, child Folded) Folded
	NeverArr  func(path []*string, idx int, child Folded) Folded
	AlwaysArr func(path []*string, idx int, child Folded) Folded
}

// Combine merges two Folded values produced while processing siblings of
// an object; WrapArray merges the per-element Folded values of an array
// into the array's own Folded result.
type FoldOps struct {
	Initial    Folded
	Combine    func(a, b Folded) Folded
	WrapArray  func(path []*string, elems []Folded) Folded
}

// foldFrame is one entry of the explicit traversal stack: either an
// object node whose children remain to be visited (idx tracks progress
// through keys) or an array node whose elements remain (idx tracks
// progress through Content). When a child is itself a container, a new
// frame is pushed for it instead of calling foldObj/foldArr recursively;
// pendingKey/pendingIdx/pendingAlways/pendingIsArr record enough about
// that child to route its Folded result through the right handler once
// its frame finishes and is popped.
type foldFrame struct {
	path []*string
	obj  *ObjNode
	arr  *ArrNode
	keys []string
	idx  int

	objAcc   Folded
	objFirst bool

	arrElems []Folded

	pendingKey    string
	pendingIdx    int
	pendingAlways bool
	pendingIsArr  bool
}

func newFoldFrame(path []*string, node DisclosableElement) *foldFrame {
	switch n := node.(type) {
	case *ObjNode:
		return &foldFrame{path: path, obj: n, keys: n.Content.Keys(), objFirst: true}
	case *ArrNode:
		return &foldFrame{path: path, arr: n, arrElems: make([]Folded, 0, len(n.Content))}
	default:
		return nil
	}
}

// Fold performs a single-dispatch, depth-first traversal of tree, calling
// exactly one handler per node. Traversal state lives on an explicit,
// heap-allocated stack of foldFrame values rather than in Go call frames,
// so nesting depth up to maxFoldDepth levels and beyond is bounded only by
// heap memory rather than goroutine stack size, with no native recursion
// across container boundaries.
func Fold(tree DisclosableElement, obj ObjHandlers, arr ArrHandlers, ops FoldOps) Folded {
	if id, ok := tree.(*IDNode); ok {
		// A bare top-level IDNode has no handler of its own in the
		// object/array-entry model; callers fold the root's *ObjNode
		// content directly. Exposed for completeness and for tests that
		// fold a single detached leaf.
		return Folded{Path: nil, Result: id.Value, Metadata: nil}
	}

	stack := []*foldFrame{newFoldFrame(nil, tree)}

	var final Folded
	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.obj != nil {
			if top.idx >= len(top.keys) {
				top.objAcc.Path = top.path
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					final = top.objAcc
					break
				}
				routeFoldResult(stack[len(stack)-1], top.objAcc, obj, arr, ops)
				continue
			}

			key := top.keys[top.idx]
			top.idx++
			element, _ := top.obj.Content.Get(key)
			childPath := append(append([]*string{}, top.path...), strPtr(key))

			if child, ok := element.(*IDNode); ok {
				var f Folded
				if child.Always() {
					f = obj.AlwaysID(childPath, key, child)
				} else {
					f = obj.NeverID(childPath, key, child)
				}
				mergeObjAcc(top, f, ops)
				continue
			}

			top.pendingKey = key
			top.pendingAlways = element.Always()
			_, top.pendingIsArr = element.(*ArrNode)
			stack = append(stack, newFoldFrame(childPath, element))
			continue
		}

		// Array frame.
		if top.idx >= len(top.arr.Content) {
			result := ops.WrapArray(top.path, top.arrElems)
			result.Path = top.path
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				final = result
				break
			}
			routeFoldResult(stack[len(stack)-1], result, obj, arr, ops)
			continue
		}

		idx := top.idx
		element := top.arr.Content[idx]
		top.idx++
		childPath := append(append([]*string{}, top.path...), (*string)(nil))

		if child, ok := element.(*IDNode); ok {
			var f Folded
			if child.Always() {
				f = arr.AlwaysID(childPath, idx, child)
			} else {
				f = arr.NeverID(childPath, idx, child)
			}
			top.arrElems = append(top.arrElems, f)
			continue
		}

		top.pendingIdx = idx
		top.pendingAlways = element.Always()
		_, top.pendingIsArr = element.(*ArrNode)
		stack = append(stack, newFoldFrame(childPath, element))
	}

	return final
}

// mergeObjAcc folds f into top's running Combine accumulator, matching
// object content's insertion order.
func mergeObjAcc(top *foldFrame, f Folded, ops FoldOps) {
	if top.objFirst {
		top.objAcc = f
		top.objFirst = false
	} else {
		top.objAcc = ops.Combine(top.objAcc, f)
	}
}

// routeFoldResult turns a just-finished child frame's Folded result into
// the value parent folds into its own accumulator, dispatching on
// whether parent is an object or array frame and on the key/idx/always/
// isArr recorded on parent when the child frame was pushed.
func routeFoldResult(parent *foldFrame, nested Folded, obj ObjHandlers, arr ArrHandlers, ops FoldOps) {
	if parent.obj != nil {
		var f Folded
		switch {
		case parent.pendingIsArr && parent.pendingAlways:
			f = obj.AlwaysArr(nested.Path, parent.pendingKey, nested)
		case parent.pendingIsArr:
			f = obj.NeverArr(nested.Path, parent.pendingKey, nested)
		case parent.pendingAlways:
			f = obj.AlwaysObj(nested.Path, parent.pendingKey, nested)
		default:
			f = obj.NeverObj(nested.Path, parent.pendingKey, nested)
		}
		mergeObjAcc(parent, f, ops)
		return
	}

	var f Folded
	switch {
	case parent.pendingIsArr && parent.pendingAlways:
		f = arr.AlwaysArr(nested.Path, parent.pendingIdx, nested)
	case parent.pendingIsArr:
		f = arr.NeverArr(nested.Path, parent.pendingIdx, nested)
	case parent.pendingAlways:
		f = arr.AlwaysObj(nested.Path, parent.pendingIdx, nested)
	default:
		f = arr.NeverObj(nested.Path, parent.pendingIdx, nested)
	}
	parent.arrElems = append(parent.arrElems, f)
}

func strPtr(s string) *string { return &s }
