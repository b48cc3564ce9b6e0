package query

import "github.com/codeatlas/codeatlas/internal/lang"

// PatternSet holds the two ordered pattern groups for a language:
// definitions ("nodes") and references ("edges"). Patterns use the
// shared capture vocabulary:
//
//	definitions: outer capture names the node kind (@function, @class,
//	  @interface, @struct, @trait, @enum, @method, @constructor,
//	  @destructor, @module, @type_alias, @constant), inner @name.
//	references: @call/@callee, @import/@path, @extends/@base,
//	  @implements/@iface.
type PatternSet struct {
	Nodes string
	Edges string
}

var patternSets = map[lang.Language]PatternSet{
	lang.Go: {
		Nodes: `
(function_declaration name: (identifier) @name) @function
(method_declaration name: (field_identifier) @name) @method
(type_spec name: (type_identifier) @name type: (struct_type)) @struct
(type_spec name: (type_identifier) @name type: (interface_type)) @interface
(type_spec name: (type_identifier) @name type: (type_identifier)) @type_alias
(const_spec name: (identifier) @name) @constant
`,
		Edges: `
(call_expression function: (identifier) @callee) @call
(call_expression function: (selector_expression) @callee) @call
(import_spec path: (interpreted_string_literal) @path) @import
`,
	},

	lang.Python: {
		Nodes: `
(function_definition name: (identifier) @name) @function
(class_definition name: (identifier) @name) @class
`,
		Edges: `
(call function: (identifier) @callee) @call
(call function: (attribute) @callee) @call
(import_statement name: (dotted_name) @path) @import
(import_from_statement module_name: (dotted_name) @path) @import
(class_definition superclasses: (argument_list (identifier) @base)) @extends
`,
	},

	lang.TypeScript: {
		Nodes: tsNodePatterns,
		Edges: tsEdgePatterns,
	},
	lang.TSX: {
		Nodes: tsNodePatterns,
		Edges: tsEdgePatterns,
	},

	lang.JavaScript: {
		Nodes: `
(function_declaration name: (identifier) @name) @function
(generator_function_declaration name: (identifier) @name) @function
(class_declaration name: (identifier) @name) @class
(method_definition name: (property_identifier) @name) @method
(variable_declarator name: (identifier) @name value: (arrow_function)) @function
(variable_declarator name: (identifier) @name value: (function_expression)) @function
`,
		Edges: `
(call_expression function: (identifier) @callee) @call
(call_expression function: (member_expression) @callee) @call
(import_statement source: (string) @path) @import
(class_heritage (identifier) @base) @extends
`,
	},

	lang.Rust: {
		Nodes: `
(function_item name: (identifier) @name) @function
(struct_item name: (type_identifier) @name) @struct
(enum_item name: (type_identifier) @name) @enum
(trait_item name: (type_identifier) @name) @trait
(union_item name: (type_identifier) @name) @struct
(mod_item name: (identifier) @name) @module
(type_item name: (type_identifier) @name) @type_alias
(const_item name: (identifier) @name) @constant
`,
		Edges: `
(call_expression function: (identifier) @callee) @call
(call_expression function: (field_expression) @callee) @call
(call_expression function: (scoped_identifier) @callee) @call
(use_declaration argument: (scoped_identifier) @path) @import
(use_declaration argument: (identifier) @path) @import
(impl_item trait: (type_identifier) @iface type: (type_identifier) @base) @implements
`,
	},

	lang.Java: {
		Nodes: `
(class_declaration name: (identifier) @name) @class
(interface_declaration name: (identifier) @name) @interface
(enum_declaration name: (identifier) @name) @enum
(record_declaration name: (identifier) @name) @class
(method_declaration name: (identifier) @name) @method
(constructor_declaration name: (identifier) @name) @constructor
`,
		Edges: `
(method_invocation name: (identifier) @callee) @call
(import_declaration (scoped_identifier) @path) @import
(superclass (type_identifier) @base) @extends
(super_interfaces (type_list (type_identifier) @iface)) @implements
`,
	},

	lang.C: {
		Nodes: `
(function_definition declarator: (function_declarator declarator: (identifier) @name)) @function
(struct_specifier name: (type_identifier) @name) @struct
(enum_specifier name: (type_identifier) @name) @enum
(union_specifier name: (type_identifier) @name) @struct
(type_definition declarator: (type_identifier) @name) @type_alias
`,
		Edges: `
(call_expression function: (identifier) @callee) @call
(preproc_include path: (string_literal) @path) @import
(preproc_include path: (system_lib_string) @path) @import
`,
	},

	lang.CPP: {
		Nodes: `
(function_definition declarator: (function_declarator declarator: (identifier) @name)) @function
(function_definition declarator: (function_declarator declarator: (field_identifier) @name)) @method
(function_definition declarator: (function_declarator declarator: (qualified_identifier) @name)) @function
(function_definition declarator: (function_declarator declarator: (destructor_name) @name)) @destructor
(class_specifier name: (type_identifier) @name) @class
(struct_specifier name: (type_identifier) @name) @struct
(enum_specifier name: (type_identifier) @name) @enum
(union_specifier name: (type_identifier) @name) @struct
(namespace_definition name: (namespace_identifier) @name) @module
(type_definition declarator: (type_identifier) @name) @type_alias
`,
		Edges: `
(call_expression function: (identifier) @callee) @call
(call_expression function: (field_expression) @callee) @call
(preproc_include path: (string_literal) @path) @import
(preproc_include path: (system_lib_string) @path) @import
(base_class_clause (type_identifier) @base) @extends
`,
	},

	lang.CSharp: {
		Nodes: `
(class_declaration name: (identifier) @name) @class
(struct_declaration name: (identifier) @name) @struct
(interface_declaration name: (identifier) @name) @interface
(enum_declaration name: (identifier) @name) @enum
(method_declaration name: (identifier) @name) @method
(constructor_declaration name: (identifier) @name) @constructor
(destructor_declaration name: (identifier) @name) @destructor
`,
		Edges: `
(invocation_expression function: (identifier) @callee) @call
(invocation_expression function: (member_access_expression) @callee) @call
(using_directive (qualified_name) @path) @import
(using_directive (identifier) @path) @import
(base_list (identifier) @base) @extends
`,
	},

	lang.PHP: {
		Nodes: `
(function_definition name: (name) @name) @function
(method_declaration name: (name) @name) @method
(class_declaration name: (name) @name) @class
(interface_declaration name: (name) @name) @interface
(trait_declaration name: (name) @name) @trait
(enum_declaration name: (name) @name) @enum
`,
		Edges: `
(function_call_expression function: (name) @callee) @call
(member_call_expression name: (name) @callee) @call
(scoped_call_expression name: (name) @callee) @call
(namespace_use_clause (qualified_name) @path) @import
(namespace_use_clause (name) @path) @import
(base_clause (name) @base) @extends
(class_interface_clause (name) @iface) @implements
`,
	},

	lang.Ruby: {
		Nodes: `
(method name: (identifier) @name) @method
(singleton_method name: (identifier) @name) @method
(class name: (constant) @name) @class
(module name: (constant) @name) @module
`,
		Edges: `
(call method: (identifier) @callee arguments: (argument_list (string) @path)) @call
(call method: (identifier) @callee) @call
(superclass (constant) @base) @extends
`,
	},

	lang.Swift: {
		Nodes: `
(function_declaration name: (simple_identifier) @name) @function
(class_declaration name: (type_identifier) @name) @class
(protocol_declaration name: (type_identifier) @name) @interface
`,
		Edges: `
(call_expression (simple_identifier) @callee) @call
(import_declaration (identifier) @path) @import
(inheritance_specifier (user_type (type_identifier) @base)) @extends
`,
	},

	lang.Kotlin: {
		Nodes: `
(function_declaration (simple_identifier) @name) @function
(class_declaration (type_identifier) @name) @class
(object_declaration (type_identifier) @name) @class
`,
		Edges: `
(call_expression (simple_identifier) @callee) @call
(import_header (identifier) @path) @import
`,
	},
}

const tsNodePatterns = `
(function_declaration name: (identifier) @name) @function
(generator_function_declaration name: (identifier) @name) @function
(class_declaration name: (type_identifier) @name) @class
(abstract_class_declaration name: (type_identifier) @name) @class
(interface_declaration name: (type_identifier) @name) @interface
(enum_declaration name: (identifier) @name) @enum
(type_alias_declaration name: (type_identifier) @name) @type_alias
(method_definition name: (property_identifier) @name) @method
(variable_declarator name: (identifier) @name value: (arrow_function)) @function
(variable_declarator name: (identifier) @name value: (function_expression)) @function
`

const tsEdgePatterns = `
(call_expression function: (identifier) @callee) @call
(call_expression function: (member_expression) @callee) @call
(import_statement source: (string) @path) @import
(extends_clause value: (identifier) @base) @extends
(implements_clause (type_identifier) @iface) @implements
`

// Patterns returns the pattern set for a language; ok is false when the
// language has no pattern set.
func Patterns(l lang.Language) (PatternSet, bool) {
	ps, ok := patternSets[l]
	return ps, ok
}
