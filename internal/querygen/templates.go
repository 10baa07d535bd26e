package querygen

// Category names a fixed query-category vocabulary. Each category carries a
// learned effectiveness estimate in the budget governor.
type Category string

const (
	CategoryPrimary   Category = "primary"
	CategoryOperators Category = "operators"
	CategoryIndustry  Category = "industry"
	CategorySemantic  Category = "semantic"
	CategoryAuthority Category = "authority"
	CategoryFresh     Category = "fresh"
	CategoryTrending  Category = "trending"
	CategorySeasonal  Category = "seasonal"
)

// CoreCategories returns the always-generated categories in priority order.
func CoreCategories() []Category {
	return []Category{
		CategoryPrimary,
		CategoryOperators,
		CategoryIndustry,
		CategorySemantic,
		CategoryAuthority,
		CategoryFresh,
	}
}

// AllCategories returns every known category, trend categories last.
func AllCategories() []Category {
	return append(CoreCategories(), CategoryTrending, CategorySeasonal)
}

// Phrase templates per category. %s is the keyword slot.
var (
	primaryTemplates = []string{
		`"write for us" %s`,
		`"guest post" %s`,
		`"submit a guest post" %s`,
		`"become a contributor" %s`,
		`"guest article" %s`,
	}

	operatorTemplates = []string{
		`intitle:"write for us" %s`,
		`intitle:"guest post" %s`,
		`inurl:write-for-us %s`,
		`inurl:guest-post %s`,
		`intitle:"submission guidelines" %s`,
	}

	semanticTemplates = []string{
		`blogs that accept guest posts about %s`,
		`websites looking for %s writers`,
		`publications accepting %s articles from contributors`,
		`%s blogs open to outside authors`,
		`where to pitch %s guest articles`,
	}

	authorityTemplates = []string{
		`"write for us" %s site:.edu`,
		`"write for us" %s site:.org`,
		`"guest post" %s site:.gov`,
		`"contribute" %s university blog`,
	}

	freshTemplates = []string{
		`"now accepting guest posts" %s`,
		`"currently accepting submissions" %s`,
		`"write for us" %s 2026`,
		`"guest post guidelines updated" %s`,
	}

	trendingTemplates = []string{
		`"write for us" %s`,
		`"guest post" %s`,
	}

	seasonalTemplates = []string{
		`"write for us" %s %s`,
		`"guest post" %s %s guide`,
	}
)

// defaultIndustry is the fallback key when the supplied industry has no
// template set of its own.
const defaultIndustry = "business"

var industryTemplates = map[string][]string{
	"technology": {
		`%s tech blog "write for us"`,
		`software blog "guest post" %s`,
		`%s "contribute an article" developer`,
	},
	"marketing": {
		`%s marketing blog "write for us"`,
		`digital marketing "guest post" %s`,
		`%s "submit your article" agency blog`,
	},
	"finance": {
		`%s finance blog "write for us"`,
		`personal finance "guest post" %s`,
		`%s investing "become a contributor"`,
	},
	"health": {
		`%s health blog "write for us"`,
		`wellness "guest post" %s`,
		`%s nutrition "submit a guest post"`,
	},
	"travel": {
		`%s travel blog "write for us"`,
		`travel "guest post" %s`,
		`%s destinations "become a contributor"`,
	},
	"education": {
		`%s education blog "write for us"`,
		`teaching "guest post" %s`,
		`%s learning "submit an article"`,
	},
	defaultIndustry: {
		`%s business blog "write for us"`,
		`%s "guest post" industry blog`,
		`%s "accepting contributions"`,
	},
}
