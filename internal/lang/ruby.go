package lang

func init() {
	Register(&LanguageSpec{
		Language:           Ruby,
		FileExtensions:     []string{".rb", ".rake"},
		ScopeSeparator:     "::",
		ContainerNodeTypes: []string{"class", "module"},
		FunctionNodeTypes:  []string{"method", "singleton_method"},
		CallNodeTypes:      []string{"call"},
		ImportNodeTypes:    []string{"call"},
		ConstructorNames:   []string{"initialize"},
	})
}
