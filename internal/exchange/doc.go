// Package exchange projects recorded invocations into the exchange document
// consumed by editors and example viewers.
//
// The document is an ordered JSON array. Each element describes one example:
//
//	{
//	  "class_name": "Object",
//	  "method_name": "double",
//	  "method_location": {"path": "lib/math.rb", "line": 3},
//	  "arguments": {"x": {"class_name": "Integer", "value": 2}},
//	  "return": {"class_name": "Integer", "value": 4}
//	}
//
// Arguments keep parameter declaration order. Serialization is a pure
// projection: records are never mutated, and repeated serialization of the
// same records yields identical documents. A value that cannot be
// represented degrades to a "#<TypeName>" string and is reported as a
// FieldSerializationError; the rest of the document is unaffected.
package exchange
