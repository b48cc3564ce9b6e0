package lang

func init() {
	Register(&LanguageSpec{
		Language:       Kotlin,
		FileExtensions: []string{".kt", ".kts"},
		ContainerNodeTypes: []string{
			"class_declaration",
			"object_declaration",
			"companion_object",
		},
		FunctionNodeTypes: []string{"function_declaration", "secondary_constructor", "anonymous_function"},
		CallNodeTypes:     []string{"call_expression"},
		ImportNodeTypes:   []string{"import"},
	})
}
