package lang

func init() {
	Register(&LanguageSpec{
		Language:           Go,
		FileExtensions:     []string{".go"},
		ContainerNodeTypes: []string{"type_spec"},
		FunctionNodeTypes:  []string{"function_declaration", "method_declaration", "func_literal"},
		CallNodeTypes:      []string{"call_expression"},
		ImportNodeTypes:    []string{"import_declaration"},
	})
}
