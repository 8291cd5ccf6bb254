package analysis

// Analyzer runs the extractor and lint rules over query text.
type Analyzer struct {
	rules []*Rule
}

// NewAnalyzer creates an analyzer with the default rule set.
func NewAnalyzer() *Analyzer {
	return &Analyzer{rules: DefaultRules()}
}

// NewAnalyzerWithRules creates an analyzer with custom rules.
func NewAnalyzerWithRules(rules []*Rule) *Analyzer {
	return &Analyzer{rules: rules}
}

// Analyze derives the full structural view of one query text: table
// references, SELECT-list spans, and diagnostics. Malformed input
// degrades to a partial view plus diagnostics, never an error.
func (a *Analyzer) Analyze(text string) *AnalyzedQuery {
	result := &AnalyzedQuery{
		Text:        text,
		Tables:      ExtractTableReferences(text),
		FieldRanges: ExtractSelectFieldRanges(text),
		Diagnostics: []Diagnostic{},
	}

	for _, rule := range a.rules {
		rule.Run(result)
	}

	return result
}
