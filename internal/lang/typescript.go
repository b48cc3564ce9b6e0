package lang

func init() {
	Register(&LanguageSpec{
		Language:       TypeScript,
		FileExtensions: []string{".ts"},
		ContainerNodeTypes: []string{
			"class_declaration",
			"abstract_class_declaration",
			"interface_declaration",
			"enum_declaration",
			"internal_module",
		},
		FunctionNodeTypes: []string{
			"function_declaration",
			"generator_function_declaration",
			"function_expression",
			"arrow_function",
			"method_definition",
			"function_signature",
		},
		CallNodeTypes:    []string{"call_expression"},
		ImportNodeTypes:  []string{"import_statement"},
		ConstructorNames: []string{"constructor"},
	})

	Register(&LanguageSpec{
		Language:       TSX,
		FileExtensions: []string{".tsx"},
		ContainerNodeTypes: []string{
			"class_declaration",
			"abstract_class_declaration",
			"interface_declaration",
			"enum_declaration",
			"internal_module",
		},
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
