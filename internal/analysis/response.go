package analysis

import "strings"

var fallbackPhrases = []string{
	"i'm sorry", "i am sorry", "i don't know", "i do not know", "i'm not sure", "i am not sure",
	"i don't have information", "i do not have information", "beyond my sources",
	"i can't answer", "i cannot answer", "i'm unable", "i am unable",
}

// IsFallback reports whether a reply defers instead of answering.
func IsFallback(response string) bool {
	r := strings.ToLower(response)
	for _, p := range fallbackPhrases {
		if strings.Contains(r, p) {
			return true
		}
	}
	return false
}

// IsSuccessful reports whether a reply actually answered the query.
func IsSuccessful(response string) bool {
	return strings.TrimSpace(response) != "" && !IsFallback(response)
}
