package lang

func init() {
	Register(&LanguageSpec{
		Language:       Swift,
		FileExtensions: []string{".swift"},
		ContainerNodeTypes: []string{
			"class_declaration",
			"protocol_declaration",
		},
		FunctionNodeTypes: []string{"function_declaration", "init_declaration", "deinit_declaration"},
		CallNodeTypes:     []string{"call_expression"},
		ImportNodeTypes:   []string{"import_declaration"},
		ConstructorNames:  []string{"init"},
		DestructorNames:   []string{"deinit"},
	})
}
