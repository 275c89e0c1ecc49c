package abcmodel

// MultinameKind mirrors the AVM2 constant pool's multiname kinds relevant to
// this engine. Most obfuscated Dofus classes only ever use QName and
// MultinameL; the others are carried through unmodified.
type MultinameKind byte

const (
	MultinameQName       MultinameKind = 0x07
	MultinameQNameA      MultinameKind = 0x0D
	MultinameRTQName     MultinameKind = 0x0F
	MultinameRTQNameA    MultinameKind = 0x10
	MultinameRTQNameL    MultinameKind = 0x11
	MultinameRTQNameLA   MultinameKind = 0x12
	MultinameMultiname   MultinameKind = 0x09
	MultinameMultinameA  MultinameKind = 0x0E
	MultinameMultinameL  MultinameKind = 0x1B
	MultinameMultinameLA MultinameKind = 0x1C
	MultinameTypename    MultinameKind = 0x1D
)

// Namespace is a single constant pool namespace entry: a kind tag (package,
// packageInternal, protected, explicit, staticProtected, private) and a
// string-pool index for its URI.
type Namespace struct {
	Kind byte
	Name int // index into Pool.Strings, or -1 for the private/any namespace
}

// Multiname is a constant pool multiname. Namespace/NamespaceSet index into
// Pool.Namespaces/Pool.NamespaceSets; Params carries the parameterized-type
// operand for MultinameTypename (Vector.<T>).
type Multiname struct {
	Kind         MultinameKind
	Name         int // index into Pool.Strings, -1 if none (*)
	Namespace    int // index into Pool.Namespaces, or -1
	NamespaceSet int // index into Pool.NamespaceSets, or -1
	Params       []int
}

// Trait kinds, matching the ABC traits_info entry tag.
type TraitKind byte

const (
	TraitSlot TraitKind = iota
	TraitMethod
	TraitGetter
	TraitSetter
	TraitClass
	TraitFunction
	TraitConst
)

// SlotValueKind tags the constant-pool table a Slot/Const trait's default
// value index refers to.
type SlotValueKind byte

const (
	SlotValueNone SlotValueKind = iota
	SlotValueInt
	SlotValueUInt
	SlotValueDouble
	SlotValueString
	SlotValueNamespace
	SlotValueTrue
	SlotValueFalse
	SlotValueNull
	SlotValueUndefined
)

// Trait attribute bits, packed into the high nibble of a trait_info kind
// byte: (attributes<<4)|kind.
const (
	TraitAttrFinal    byte = 0x1
	TraitAttrOverride byte = 0x2
	TraitAttrMetadata byte = 0x4
)

// Trait is one class/instance trait: a slot, const, method, getter, setter,
// nested class or nested function.
type Trait struct {
	Name       int // index into Pool.Multinames
	Kind       TraitKind
	Attributes byte // TraitAttrFinal/TraitAttrOverride/TraitAttrMetadata bits
	SlotID     int // Slot/Const: slot index; Class: class index; Method/Getter/Setter: disp id
	TypeName   int // Slot/Const: index into Pool.Multinames, or -1
	ValueIndex int // Slot/Const: index into the table named by ValueKind
	ValueKind  SlotValueKind
	Method     int // Method/Getter/Setter/Function: index into Methods
	ClassIndex int // Class: index into Classes
	Metadata   []int
}

// Exception is one exception_info record in a method body: the protected
// [From,To) instruction range, the handler Target, and the caught type.
type Exception struct {
	From, To, Target int // instruction handles within the owning Method's Graph
	ExcType          int // index into Pool.Multinames, or -1 for catch-all
	VarName          int // index into Pool.Multinames, or -1
}

// Method is one method_info plus its (optional) body: parameter/return
// type multinames, flags, and the decoded instruction graph.
type Method struct {
	Name        int // index into Pool.Strings, may be -1 (anonymous)
	ParamTypes  []int
	ReturnType  int
	Flags       byte
	HasBody     bool
	MaxStack    int
	LocalCount  int
	InitScopeDepth int
	MaxScopeDepth  int
	Graph       *Graph
	Exceptions  []Exception
	Traits      []Trait // activation traits
}

// Class (instance_info) flag bits.
const (
	ClassFlagSealed      byte = 0x01
	ClassFlagFinal       byte = 0x02
	ClassFlagInterface   byte = 0x04
	ClassFlagProtectedNS byte = 0x08
)

// Class is one class_info+instance_info pair: the class-side (static)
// traits live in ClassTraits, the instance-side traits in InstanceTraits.
type Class struct {
	Name           int // index into Pool.Multinames
	SuperName      int // index into Pool.Multinames, -1 for Object
	Flags          byte
	ProtectedNS    int // index into Pool.Namespaces, -1 if not protected
	Interfaces     []int
	InstanceInit   int // index into Methods
	ClassInit      int // index into Methods
	InstanceTraits []Trait
	ClassTraits    []Trait
}

// File is a fully decoded, mutable ABC file: the constant pool plus every
// method body and class, ready for in-place rewriting by the recognizers,
// simplifier and unscrambler.
type File struct {
	Pool      *Pool
	Methods   []*Method
	Metadata  []Metadatum
	Classes   []*Class
	Scripts   []Script
	MinorVersion, MajorVersion uint16
}

// Metadatum is a metadata_info entry (unused by the obfuscation primitives
// this engine targets, carried through unchanged).
type Metadatum struct {
	Name  int
	Keys  []int
	Values []int
}

// Script is one script_info entry: an init method plus the top-level traits
// it exports.
type Script struct {
	InitMethod int
	Traits     []Trait
}

// NamespaceKey identifies a namespace by (kind,name-string) so namespace
// interning can dedupe equivalent entries instead of growing the pool on
// every rename, mirroring how the original AVM2 compiler builds the pool.
type NamespaceKey struct {
	Kind byte
	Name string
}
