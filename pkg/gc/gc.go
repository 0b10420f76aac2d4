// Package gc implements Kozi's mark-and-sweep collector: a non-moving,
// non-incremental tracing collector that owns every heap-allocated value
// (currently only interned strings) and cooperates with the VM, which
// supplies the root set at collection time (spec.md §4.5).
package gc

const (
	// heapInit is the initial collection threshold in bytes.
	heapInit = 1 << 20 // 1 MiB
	// growFactor scales the threshold after each collection, per the
	// multiplicative-grow-factor reading of spec.md §4.5's two candidate
	// threshold formulas (see DESIGN.md "Open Question decisions").
	growFactor = 2
	// stringHeaderSize approximates per-object bookkeeping overhead
	// charged against bytesAllocated, alongside each string's payload.
	stringHeaderSize = 32
)

// ObjKind tags the concrete type of a heap object. The enum reserves room
// for object kinds Kozi's core doesn't implement (function, list,
// object), per spec.md §4.5.
type ObjKind uint8

const (
	ObjString ObjKind = iota
)

// StringObject is the sole heap object kind Kozi allocates: an immutable,
// GC-owned byte sequence with an intrusive mark bit and list pointer, so
// sweep can walk every live object in O(n) without a side table
// (spec.md §3 "Heap object (string)", §4.5 "Objects list").
type StringObject struct {
	Kind   ObjKind
	marked bool
	next   *StringObject
	Chars  string
}

// RootTracer is implemented by the VM and invoked at the start of every
// collection cycle. It must mark every value reachable from the operand
// stack, the globals table, and the current function's constant pool
// (spec.md §4.5 "Mark" phase). Modeled as an interface per spec.md §9's
// design note preferring explicit ownership over an erased callback.
type RootTracer interface {
	TraceRoots(c *Collector)
}

// Collector owns every heap object and the string intern table.
type Collector struct {
	objects *StringObject
	strings map[string]*StringObject

	bytesAllocated uint64
	nextGC         uint64

	tracer RootTracer

	// StressMode forces a collection before every allocation, the
	// standard tracing-GC testing technique used to shake out missing
	// roots (spec.md §4.5 "Safety contract"; SPEC_FULL.md §12).
	StressMode bool

	// grayStack is the explicit mark worklist (spec.md §9's "gray stack"
	// pattern). Strings have no outgoing references, so nothing is ever
	// pushed onto it today; it exists so the mark phase's shape survives
	// unchanged when a referencing object kind (list, map, function) is
	// added later.
	grayStack []*StringObject
}

// New creates a Collector. SetTracer must be called before any
// allocation that could trigger a collection.
func New() *Collector {
	return &Collector{
		strings: make(map[string]*StringObject),
		nextGC:  heapInit,
	}
}

// SetTracer installs the VM's root tracer.
func (c *Collector) SetTracer(t RootTracer) {
	c.tracer = t
}

// BytesAllocated returns the sum of header+payload sizes of every live
// object, for tests asserting spec.md §8's bytes_allocated invariant.
func (c *Collector) BytesAllocated() uint64 {
	return c.bytesAllocated
}

// NextGC returns the current collection threshold.
func (c *Collector) NextGC() uint64 {
	return c.nextGC
}

func stringSize(s string) uint64 {
	return stringHeaderSize + uint64(len(s))
}

// Intern returns the canonical *StringObject for s, allocating a new one
// only if no object with byte-equal contents already exists (spec.md §3,
// §4.5 "alloc_string"). Any two strings interned with equal contents
// share this pointer, so reference equality and value equality coincide.
// The returned handle is a live root only once it is stored on the
// operand stack, in the constant pool, or in globals; see spec.md §4.5's
// "Safety contract" — a caller must not let a freshly interned handle sit
// only in a local Go variable across a later allocation.
func (c *Collector) Intern(s string) *StringObject {
	if existing, ok := c.strings[s]; ok {
		return existing
	}

	c.maybeCollect()

	obj := &StringObject{Kind: ObjString, Chars: s}
	obj.next = c.objects
	c.objects = obj
	c.strings[s] = obj
	c.bytesAllocated += stringSize(s)

	return obj
}

// maybeCollect runs a collection if the allocation threshold has been
// reached, or unconditionally under StressMode.
func (c *Collector) maybeCollect() {
	if c.StressMode || c.bytesAllocated >= c.nextGC {
		c.Collect()
	}
}

// Collect runs one full mark-sweep-reset cycle (spec.md §4.5). Calling it
// twice with no intervening allocation leaves BytesAllocated unchanged
// (spec.md §8).
func (c *Collector) Collect() {
	c.mark()
	c.sweep()
	c.resetMarks()

	live := c.bytesAllocated
	threshold := live * growFactor
	if threshold < heapInit {
		threshold = heapInit
	}
	c.nextGC = threshold
}

func (c *Collector) mark() {
	if c.tracer != nil {
		c.tracer.TraceRoots(c)
	}
	c.drainGray()
}

// MarkString marks obj live. Marking is idempotent: an already-marked
// object is not revisited or re-pushed onto the gray stack (spec.md
// §4.5).
func (c *Collector) MarkString(obj *StringObject) {
	if obj == nil || obj.marked {
		return
	}
	obj.marked = true
	c.grayStack = append(c.grayStack, obj)
}

// drainGray processes the gray worklist with an explicit loop rather than
// recursion, per spec.md §9, so marking stays safe on deep object graphs
// once object kinds with outgoing references exist.
func (c *Collector) drainGray() {
	for len(c.grayStack) > 0 {
		n := len(c.grayStack) - 1
		obj := c.grayStack[n]
		c.grayStack = c.grayStack[:n]
		c.blacken(obj)
	}
}

// blacken would mark obj's own references; strings have none.
func (c *Collector) blacken(obj *StringObject) {
	_ = obj
}

func (c *Collector) sweep() {
	var prev *StringObject
	curr := c.objects
	for curr != nil {
		next := curr.next
		if curr.marked {
			prev = curr
			curr = next
			continue
		}

		if prev == nil {
			c.objects = next
		} else {
			prev.next = next
		}
		c.free(curr)
		curr = next
	}
}

func (c *Collector) free(obj *StringObject) {
	delete(c.strings, obj.Chars)
	c.bytesAllocated -= stringSize(obj.Chars)
}

func (c *Collector) resetMarks() {
	for obj := c.objects; obj != nil; obj = obj.next {
		obj.marked = false
	}
}
