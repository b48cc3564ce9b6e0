package lang

func init() {
	Register(&LanguageSpec{
		Language:       Rust,
		FileExtensions: []string{".rs"},
		ScopeSeparator: "::",
		ContainerNodeTypes: []string{
			"struct_item",
			"enum_item",
			"union_item",
			"trait_item",
			"impl_item",
			"mod_item",
		},
		FunctionNodeTypes: []string{"function_item", "function_signature_item", "closure_expression"},
		CallNodeTypes:     []string{"call_expression", "macro_invocation"},
		ImportNodeTypes:   []string{"use_declaration", "extern_crate_declaration"},
		ConstructorNames:  []string{"new"},
	})
}
