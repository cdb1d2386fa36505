package ir

// Item is an annotated declaration: a contract (Trait) or an
// implementation (Impl).
//
// This is a sealed interface - only Trait and Impl implement it.
type Item interface {
	itemNode()
	// ItemSpan covers the whole item including its attributes.
	ItemSpan() Span
	// Attributes returns the outer attributes and doc comments in source order.
	Attributes() []Attribute
	// Members returns the ordered contents of the item body.
	Members() []Member
}

// Attribute is one outer attribute or doc comment.
//
//	#[async_trait(local)]   Path: "async_trait", Args: "local"
//	/// Frobnicates.        Doc: true
type Attribute struct {
	Span     Span
	Doc      bool
	Path     string // "" for doc comments
	HasArgs  bool
	Args     string // raw text between the parentheses
	ArgsSpan Span
	Text     string // the attribute as written
}

// Trait is a contract declaration.
type Trait struct {
	Attrs       []Attribute
	Vis         string // raw visibility text, "" when private
	Unsafe      bool
	Auto        bool
	Name        string
	Generics    Generics
	Supertraits []Bound
	Items       []Member
	Span        Span
	KeywordSpan Span // the `trait` keyword
}

func (*Trait) itemNode()                 {}
func (t *Trait) ItemSpan() Span          { return t.Span }
func (t *Trait) Attributes() []Attribute { return t.Attrs }
func (t *Trait) Members() []Member       { return t.Items }

// Impl is an implementation block. Trait is nil for inherent impls.
type Impl struct {
	Attrs       []Attribute
	Default     bool
	Unsafe      bool
	Generics    Generics
	Negative    bool
	Trait       *Path
	SelfTy      Type
	Items       []Member
	Span        Span
	KeywordSpan Span // the `impl` keyword
}

func (*Impl) itemNode()                 {}
func (i *Impl) ItemSpan() Span          { return i.Span }
func (i *Impl) Attributes() []Attribute { return i.Attrs }
func (i *Impl) Members() []Member       { return i.Items }

// Member is an entry of a trait or impl body.
//
// This is a sealed interface - only Method and OpaqueItem implement it.
type Member interface {
	memberNode()
	MemberSpan() Span
}

// Method is an associated function. Body is nil for a bodiless trait
// method.
type Method struct {
	Attrs   []Attribute
	Vis     string
	Default bool
	Sig     Signature
	Body    *Block
	Span    Span
}

func (*Method) memberNode()        {}
func (m *Method) MemberSpan() Span { return m.Span }

// IsAsync reports whether the method is marked async.
func (m *Method) IsAsync() bool {
	return m.Sig.Async
}

// OpaqueItem is any member the expander never touches: associated types,
// consts and macro invocations.
type OpaqueItem struct {
	Span Span
}

func (*OpaqueItem) memberNode()        {}
func (o *OpaqueItem) MemberSpan() Span { return o.Span }

// Block is a brace-delimited body. Text includes the braces.
type Block struct {
	Span Span
	Text string
}

// Signature is a method signature.
type Signature struct {
	Const    bool
	Async    bool
	Unsafe   bool
	Extern   bool
	Abi      string // raw ABI string including quotes, "" when absent
	Name     string
	Generics Generics
	Receiver *Receiver
	Params   []Param
	Variadic bool
	// Output is nil when the method returns the unit type implicitly.
	Output     Type
	OutputSpan Span
	Span       Span
}

// Receiver is the self parameter of a method.
//
//	self            {}
//	mut self        {MutBinding: true}
//	&'a mut self    {Ref: true, Lifetime: 'a, Mut: true}
//	self: Box<Self> {Type: Box<Self>}
type Receiver struct {
	Ref        bool
	Lifetime   *Lifetime
	Mut        bool
	MutBinding bool
	Type       Type // explicit type of the typed form, nil for shorthand
	Attrs      []Attribute
	Span       Span
}

// Param is a non-receiver parameter.
type Param struct {
	// Pattern is the raw binding pattern text, e.g. "x", "mut x", "(a, b)".
	Pattern string
	// Ident is the bound name when the pattern is a plain identifier with
	// an optional mut, "" otherwise.
	Ident string
	Mut   bool
	Type  Type
	Attrs []Attribute
	// Span covers the pattern and type, not the attributes.
	Span Span
}

// ReceiverKind is the shape of a method's receiver.
type ReceiverKind int

const (
	ReceiverNone ReceiverKind = iota
	ReceiverByValue
	ReceiverByReference
	ReceiverByMutableReference
)

func (k ReceiverKind) String() string {
	switch k {
	case ReceiverNone:
		return "none"
	case ReceiverByValue:
		return "by_value"
	case ReceiverByReference:
		return "by_reference"
	case ReceiverByMutableReference:
		return "by_mutable_reference"
	}
	return "unknown"
}
