package lang

func init() {
	Register(&LanguageSpec{
		Language:           JavaScript,
		FileExtensions:     []string{".js", ".jsx", ".mjs", ".cjs"},
		ContainerNodeTypes: []string{"class_declaration", "class"},
		FunctionNodeTypes: []string{
			"function_declaration",
			"generator_function_declaration",
			"function_expression",
			"arrow_function",
			"method_definition",
		},
		CallNodeTypes:    []string{"call_expression"},
		ImportNodeTypes:  []string{"import_statement"},
		ConstructorNames: []string{"constructor"},
	})
}
