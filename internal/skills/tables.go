package skills

// Tables holds the reference data the canonicalizer and matcher work from.
type Tables struct {
	// Synonyms maps a normalized skill to the terms it expands to.
	Synonyms map[string][]string
	// Aliases maps a normalized token to its canonical key.
	Aliases map[string]string
	// TechnicalTerms boost the importance of skills that contain them.
	TechnicalTerms []string
	// ToolKeywords mark a raw skill as a tool when tools are inferred.
	ToolKeywords []string
}

// DefaultTables returns a fresh copy of the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Synonyms: map[string][]string{
			// Programming languages
			"javascript": {"js", "ecmascript", "es6", "es2015", "nodejs", "node.js"},
			"typescript": {"ts"},
			"python":     {"py", "python3"},
			"java":       {"java8", "java11", "java17", "openjdk"},
			"csharp":     {"c#", "dotnet", ".net", "c sharp"},
			"cpp":        {"c++", "cplusplus"},

			// Frameworks
			"react":   {"reactjs", "react.js", "react native", "reactnative"},
			"vue":     {"vuejs", "vue.js"},
			"angular": {"angularjs", "angular2", "angular4+"},
			"nodejs":  {"node.js", "node", "express", "expressjs"},
			"django":  {"python django"},
			"flask":   {"python flask"},
			"spring":  {"spring boot", "springframework"},

			// Databases
			"sql":     {"mysql", "postgresql", "postgres", "sqlite", "mssql", "oracle"},
			"mongodb": {"mongo", "nosql"},
			"redis":   {"cache", "caching"},

			// Tools and platforms
			"git":        {"github", "gitlab", "bitbucket", "version control"},
			"docker":     {"containerization", "containers"},
			"kubernetes": {"k8s", "container orchestration"},
			"aws":        {"amazon web services", "ec2", "s3", "lambda"},
			"azure":      {"microsoft azure"},
			"gcp":        {"google cloud", "google cloud platform"},

			// Design
			"figma":       {"design", "prototyping"},
			"photoshop":   {"adobe photoshop", "ps"},
			"illustrator": {"adobe illustrator", "ai"},

			// Business
			"project management":           {"pm", "scrum", "agile", "kanban", "jira"},
			"project lifecycle management": {"project management", "plm"},
			"data analysis":                {"analytics", "data science", "excel", "powerbi", "tableau"},
			"marketing":                    {"digital marketing", "seo", "sem", "social media"},
			"sales":                        {"business development", "lead generation"},

			// Soft skills
			"communication": {"presentation", "public speaking", "documentation"},
			"leadership":    {"team lead", "management", "mentoring"},
			"teamwork":      {"collaboration", "cross-functional"},
		},
		Aliases: map[string]string{
			"react.js":    "react",
			"reactjs":     "react",
			"reactnative": "react native",
			"nodejs":      "node.js",
			"node":        "node.js",
			"js":          "javascript",
			"es6":         "javascript",
			"ecmascript":  "javascript",
			"ui":          "ui design",
			"ux":          "ux design",
			"rest api":    "api integration",
			"rest apis":   "api integration",
			"api":         "api integration",
		},
		TechnicalTerms: []string{
			"programming", "coding", "development", "software", "web",
			"mobile", "database", "api", "framework", "library",
		},
		ToolKeywords: []string{
			"aws", "azure", "gcp", "docker", "kubernetes", "jenkins", "terraform", "ansible",
			"salesforce", "hubspot", "shopify", "wordpress",
			"figma", "sketch", "photoshop", "illustrator",
			"jira", "confluence", "tableau", "power bi", "excel",
			"redis", "mongodb", "postgres", "mysql",
		},
	}
}
