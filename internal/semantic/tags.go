package semantic

// Tag is the shallow inferred type of an expression.
// Inference is deliberately coarse: every expression reports exactly one
// of these, and arithmetic mismatches involving "variable" or "call" are
// deferred to run time rather than reported here.
type Tag string

const (
	TagNumber     Tag = "number"
	TagString     Tag = "string"
	TagBoolean    Tag = "boolean"
	TagNil        Tag = "nil"
	TagArray      Tag = "array"
	TagVariable   Tag = "variable"
	TagCall       Tag = "call"
	TagFunction   Tag = "function"
	TagIdentifier Tag = "identifier"
)

// deferred reports whether a tag's arithmetic type is not known until
// run time, so the analyzer should not flag a mismatch involving it.
func (t Tag) deferred() bool {
	return t == TagVariable || t == TagCall || t == TagIdentifier
}

// subscriptable reports whether a base expression of this tag may be
// indexed with `[...]` without the analyzer rejecting it outright.
func (t Tag) subscriptable() bool {
	return t == TagArray || t == TagVariable || t == TagCall || t == TagIdentifier
}
