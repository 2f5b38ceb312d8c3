package stages

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FranksOps/slant/internal/news"
)

// DefaultIncludeTags are the selectors whose text makes up an article body.
var DefaultIncludeTags = []string{"h1", "p"}

const subjectSystemPrompt = "You will be given a question regarding a subject in the news. Extract the subject from the question."

const summarizeSystemPrompt = `You are a news analyst. Your job is to analyze an article and summarize what the article is about, and respond in a JSON format.
The JSON schema should include the following

{
    "summary": "str",
    "main_points": "List[str]"
}
`

const biasSystemPrompt = `You are a bias identifier for news articles. You will be given the subject of the user query, the news publisher,
pre-determined media bias leaning, article title, and article content.
Your job is to determine the sentiment across all the articles describe the bias shown.
Return ONLY the JSON schema, which should include the following

{
    "sentiment_analysis": Field("float", description="Bias range between -1 and 1, where -1 is very negative, 0 is unbiased/neutral, and 1 is very positive"),
    "bias_shown": Field("str", description="Description of the bias shown in the article"),
}
`

const compareSystemPrompt = `Your job is to compare the biases from different media outlets, based off the subject of a topic searched for by a user.
You will be given the subject the user searched for.
You will be given bias analyses for 1 or more articles for 2 or more media outlets.
You will be given the sentiment analysis, which is a float between -1 and 1, where -1 is full negative bias and 1 and full positive bias.
You will also be given a write up on the bias shown in each article.
Compare the biases between these two media outlets, and draw conclusions between the biases of each of the outlets.
`

func biasUserPrompt(subject string, a news.Article, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "USER QUERY SUBJECT: %s\n", subject)
	fmt.Fprintf(&b, "NEWS PUBLISHER: %s\n", a.Source)
	fmt.Fprintf(&b, "MEDIA BIAS LEANING: %s\n", a.PoliticalBias)
	b.WriteString("\n======\n\n")
	fmt.Fprintf(&b, "ARTICLE TITLE: %s\n", a.Extraction.Title)
	fmt.Fprintf(&b, "ARTICLE CONTENT: %s\n", content)
	return b.String()
}

func summarizeUserPrompt(a news.Article, content string) string {
	return fmt.Sprintf("ARTICLE TITLE: %s\nARTICLE CONTENT: %s\n", a.Extraction.Title, content)
}

// compareUserPrompt lists every scored article under its publisher, in
// publisher order of first appearance.
func compareUserPrompt(subject string, g news.Grouping) (string, int) {
	var b strings.Builder
	fmt.Fprintf(&b, "USER QUERY SUBJECT: %s\n\n======\n", subject)

	scored := 0
	for _, publisher := range g.Publishers() {
		fmt.Fprintf(&b, "\n# %s\n", publisher)
		for _, a := range g.Articles(publisher) {
			if a.BiasScore == nil {
				continue
			}
			line, err := json.Marshal(a.BiasScore)
			if err != nil {
				continue
			}
			b.Write(line)
			b.WriteByte('\n')
			scored++
		}
	}
	return b.String(), scored
}
