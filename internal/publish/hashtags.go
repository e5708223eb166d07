package publish

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const maxHashtags = 5

var commonHashtags = []string{
	"#fyp", "#foryou", "#viral", "#trending", "#explore",
	"#didyouknow", "#facts", "#mindblown", "#interesting",
	"#learnontiktok", "#educational", "#amazing", "#wow",
	"#reels", "#fbreels", "#facebookreels",
}

// categoryHashtags maps a topic keyword found in the content to its
// category tags. Ordered so matching is deterministic.
var categoryHashtags = []struct {
	keyword string
	tags    []string
}{
	{"science", []string{"#science", "#scientists", "#research"}},
	{"animal", []string{"#animals", "#wildlife", "#nature"}},
	{"space", []string{"#space", "#universe", "#astronomy"}},
	{"ocean", []string{"#ocean", "#marine", "#sealife"}},
	{"psychology", []string{"#psychology", "#mentalhealth", "#brain"}},
	{"food", []string{"#food", "#foodscience", "#cooking"}},
	{"nature", []string{"#nature", "#environment", "#earth"}},
	{"history", []string{"#history", "#historical", "#past"}},
	{"technology", []string{"#technology", "#tech", "#innovation"}},
	{"health", []string{"#health", "#wellness", "#fitness"}},
	{"human body", []string{"#humanbody", "#anatomy", "#biology"}},
}

var wordPattern = regexp.MustCompile(`\b[a-z]{4,}\b`)

var stopWords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true,
	"have": true, "been": true, "were": true, "they": true,
}

// Hashtags builds five hashtags for a post: frequent content words
// first, then a matching topic category, then evergreen tags.
func Hashtags(topic, hook, payoff string) string {
	text := strings.ToLower(fmt.Sprintf("%s %s %s", topic, hook, payoff))

	freq := map[string]int{}
	var order []string
	for _, word := range wordPattern.FindAllString(text, -1) {
		if stopWords[word] {
			continue
		}
		if freq[word] == 0 {
			order = append(order, word)
		}
		freq[word]++
	}
	// Most frequent first; first occurrence breaks ties.
	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})
	if len(order) > maxHashtags {
		order = order[:maxHashtags]
	}

	var candidates []string
	for _, word := range order {
		candidates = append(candidates, "#"+word)
	}
	for _, cat := range categoryHashtags {
		if strings.Contains(text, cat.keyword) {
			candidates = append(candidates, cat.tags...)
			break
		}
	}
	candidates = append(candidates, commonHashtags[:3]...)

	seen := map[string]bool{}
	var tags []string
	for _, tag := range candidates {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) >= maxHashtags {
			break
		}
	}
	return strings.Join(tags, " ")
}
