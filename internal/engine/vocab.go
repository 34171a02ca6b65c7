package engine

import "regexp"

// Vocabulary is the declarative word knowledge the extractor and registry
// work from. It is plain data so the tables can be tested and extended
// without touching extraction control flow.
type Vocabulary struct {
	// CanonicalCategories are the category names rows actually carry.
	CanonicalCategories []string
	// CategorySynonyms maps a user-facing word to its canonical category.
	CategorySynonyms map[string]string
	// UnambiguousSynonyms are synonyms accepted outside a spending context
	// because they mean nothing else in practice.
	UnambiguousSynonyms []string
	// BaseMerchants is the static merchant list unioned with merchants
	// discovered in the store.
	BaseMerchants []string
	// BankTokens are issuer names that flag a payment-method question.
	BankTokens []string
	// ComparisonStopWords are stripped from the operands of a raw "A vs B"
	// phrase before category/merchant resolution.
	ComparisonStopWords []string

	spendContext *regexp.Regexp
}

// SpendContext reports whether text carries spending language.
func (v *Vocabulary) SpendContext(text string) bool {
	return v.spendContext.MatchString(text)
}

// DefaultVocabulary returns the built-in tables.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		CanonicalCategories: []string{
			"food", "shopping", "travel", "entertainment", "utilities", "health",
			"groceries", "subscriptions", "investments", "insurance", "banking",
			"education", "rent", "emi", "recharge", "fuel", "other",
		},
		CategorySynonyms: map[string]string{
			"dining": "food", "restaurant": "food", "restaurants": "food", "cafe": "food",
			"takeout": "food", "delivery": "food", "eating": "food", "eat": "food",
			"lunch": "food", "dinner": "food", "breakfast": "food", "snacks": "food",
			"meals": "food", "meal": "food",
			"commute": "travel", "transport": "travel", "transportation": "travel",
			"ride": "travel", "rides": "travel", "cab": "travel", "cabs": "travel",
			"taxi": "travel", "flight": "travel", "flights": "travel", "hotel": "travel",
			"hotels": "travel", "trip": "travel", "trips": "travel",
			"bus": "travel", "train": "travel", "metro": "travel", "auto": "travel",
			"streaming": "entertainment", "movies": "entertainment", "movie": "entertainment",
			"gaming": "entertainment", "games": "entertainment", "music": "entertainment",
			"shows": "entertainment", "ott": "entertainment", "cinema": "entertainment",
			"medicine": "health", "medicines": "health", "hospital": "health",
			"doctor": "health", "pharmacy": "health", "medical": "health",
			"gym": "health", "fitness": "health", "wellness": "health",
			"dental": "health", "clinic": "health",
			"electricity": "utilities", "electric": "utilities", "internet": "utilities",
			"phone": "utilities", "wifi": "utilities", "broadband": "utilities",
			"bill": "utilities", "bills": "utilities",
			"clothes": "shopping", "clothing": "shopping", "shoes": "shopping",
			"fashion": "shopping", "electronics": "shopping", "gadgets": "shopping",
			"stocks": "investments", "sip": "investments", "trading": "investments",
			"crypto": "investments",
			"loan": "emi", "loans": "emi", "mortgage": "emi", "installment": "emi",
			"tuition": "education", "course": "education", "courses": "education",
			"school": "education", "college": "education", "learning": "education",
			"petrol": "fuel", "diesel": "fuel", "cng": "fuel",
			"grocery": "groceries", "supermarket": "groceries", "vegetables": "groceries",
			"fruits": "groceries", "provisions": "groceries", "essentials": "groceries",
			"premium": "insurance", "premiums": "insurance", "policy": "insurance",
			"mobile": "recharge", "prepaid": "recharge", "postpaid": "recharge",
			"recurring": "subscriptions", "membership": "subscriptions",
		},
		UnambiguousSynonyms: []string{
			"dining", "commute", "streaming", "medicine", "gym", "clothes",
			"petrol", "grocery",
		},
		BaseMerchants: []string{
			"swiggy", "zomato", "uber", "ola", "amazon", "flipkart", "netflix",
			"hotstar", "spotify", "airtel", "jio", "zerodha", "groww", "phonepe",
			"paytm", "cred", "bigbasket", "blinkit", "myntra", "makemytrip",
			"dunzo", "zepto", "rapido", "practo", "pharmeasy", "steam",
			"github", "chatgpt", "notion", "aws", "dominos", "starbucks",
			"hdfc", "icici", "sbi", "axis", "kotak", "lic", "dmart",
		},
		BankTokens: []string{
			"hdfc", "icici", "sbi", "axis", "kotak", "upi",
			"credit card", "debit card",
		},
		ComparisonStopWords: []string{
			"the", "a", "an", "my", "me", "i", "on", "for", "in", "of",
			"spend", "spending", "spent", "expense", "expenses", "cost", "costs",
			"last", "this", "week", "month", "year", "today", "yesterday",
			"more", "most", "less", "least", "better", "cheaper", "total",
		},
		spendContext: regexp.MustCompile(
			`(?i)spend|spent|expense|cost|paid|bill|budget|money|transaction|payment|order|bought|purchase|total|summary|breakdown|how\s+much`),
	}
}
