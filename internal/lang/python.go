package lang

func init() {
	Register(&LanguageSpec{
		Language:           Python,
		FileExtensions:     []string{".py", ".pyw"},
		ContainerNodeTypes: []string{"class_definition"},
		FunctionNodeTypes:  []string{"function_definition"},
		CallNodeTypes:      []string{"call"},
		ImportNodeTypes:    []string{"import_statement", "import_from_statement"},
		ConstructorNames:   []string{"__init__", "__new__"},
		DestructorNames:    []string{"__del__"},
	})
}
