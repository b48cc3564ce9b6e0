package lang

func init() {
	// .h defaults to C, never C++. Documented policy, not an accident:
	// headers with no sibling translation unit parse identically under
	// the C grammar for the symbol kinds we extract.
	Register(&LanguageSpec{
		Language:           C,
		FileExtensions:     []string{".c", ".h"},
		ContainerNodeTypes: []string{"struct_specifier", "enum_specifier", "union_specifier"},
		FunctionNodeTypes:  []string{"function_definition"},
		CallNodeTypes:      []string{"call_expression"},
		ImportNodeTypes:    []string{"preproc_include"},
	})
}
