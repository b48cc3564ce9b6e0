package lang

func init() {
	Register(&LanguageSpec{
		Language:       PHP,
		FileExtensions: []string{".php"},
		ScopeSeparator: "\\",
		ContainerNodeTypes: []string{
			"class_declaration",
			"interface_declaration",
			"trait_declaration",
			"enum_declaration",
		},
		FunctionNodeTypes: []string{
			"function_definition",
			"method_declaration",
			"anonymous_function",
			"arrow_function",
		},
		CallNodeTypes: []string{
			"function_call_expression",
			"member_call_expression",
			"scoped_call_expression",
			"nullsafe_member_call_expression",
		},
		ImportNodeTypes:  []string{"namespace_use_declaration"},
		ConstructorNames: []string{"__construct"},
		DestructorNames:  []string{"__destruct"},
	})
}
