package unit

// The raw structs mirror the on-disk layout. JSON tags double as msgpack
// keys.

type rawSpan []uint32

type rawUnit struct {
	Format    string        `json:"format"`
	Path      string        `json:"path,omitempty"`
	Source    string        `json:"source,omitempty"`
	Functions []rawFunction `json:"functions,omitempty"`
	Impls     []rawImpl     `json:"impls,omitempty"`
}

type rawImpl struct {
	Target  string        `json:"target"`
	Methods []rawFunction `json:"methods"`
}

type rawFunction struct {
	Name         string     `json:"name"`
	Receiver     string     `json:"receiver,omitempty"`
	RegionParams []string   `json:"region_params,omitempty"`
	RegionBounds []rawBound `json:"region_bounds,omitempty"`
	Params       []rawParam `json:"params,omitempty"`
	Ret          string     `json:"ret,omitempty"`
	Body         []*rawNode `json:"body,omitempty"`
	Tail         *rawNode   `json:"tail,omitempty"`
	Span         rawSpan    `json:"span,omitempty"`
}

type rawBound struct {
	Region   string   `json:"region"`
	Outlives []string `json:"outlives"`
}

type rawParam struct {
	Name string  `json:"name"`
	Type string  `json:"type"`
	Mut  bool    `json:"mut,omitempty"`
	Span rawSpan `json:"span,omitempty"`
}

type rawBinding struct {
	Name string  `json:"name"`
	Mut  bool    `json:"mut,omitempty"`
	Span rawSpan `json:"span,omitempty"`
}

type rawArm struct {
	Bindings []string `json:"bindings,omitempty"`
	Guard    *rawNode `json:"guard,omitempty"`
	Body     *rawNode `json:"body"`
	Span     rawSpan  `json:"span,omitempty"`
}

type rawFieldInit struct {
	Name  string   `json:"name"`
	Value *rawNode `json:"value"`
}

// rawNode is every statement and expression kind in one struct; Kind says
// which fields are meaningful.
type rawNode struct {
	Kind string  `json:"kind"`
	Span rawSpan `json:"span,omitempty"`

	Name string `json:"name,omitempty"`
	Mut  bool   `json:"mut,omitempty"`
	Ty   string `json:"ty,omitempty"`
	Op   string `json:"op,omitempty"`
	Lit  string `json:"lit,omitempty"`
	Text string `json:"text,omitempty"`

	Value     *rawNode `json:"value,omitempty"`
	Left      *rawNode `json:"left,omitempty"`
	Right     *rawNode `json:"right,omitempty"`
	Operand   *rawNode `json:"operand,omitempty"`
	Callee    *rawNode `json:"callee,omitempty"`
	Receiver  *rawNode `json:"receiver,omitempty"`
	Target    *rawNode `json:"target,omitempty"`
	Cond      *rawNode `json:"cond,omitempty"`
	Then      *rawNode `json:"then,omitempty"`
	Else      *rawNode `json:"else,omitempty"`
	Body      *rawNode `json:"body,omitempty"`
	Iter      *rawNode `json:"iter,omitempty"`
	Scrutinee *rawNode `json:"scrutinee,omitempty"`
	Index     *rawNode `json:"index,omitempty"`
	Tail      *rawNode `json:"tail,omitempty"`

	Method  string `json:"method,omitempty"`
	Field   string `json:"field,omitempty"`
	Pattern string `json:"pattern,omitempty"`

	Args     []*rawNode     `json:"args,omitempty"`
	Elems    []*rawNode     `json:"elems,omitempty"`
	Stmts    []*rawNode     `json:"stmts,omitempty"`
	Fields   []rawFieldInit `json:"fields,omitempty"`
	Arms     []rawArm       `json:"arms,omitempty"`
	Params   []rawParam     `json:"params,omitempty"`
	Bindings []rawBinding   `json:"bindings,omitempty"`
}
