package chat

import (
	"strings"

	"github.com/platewise/platewise/internal/restaurant"
)

// aspectInstructions maps each follow-up aspect to its instruction text.
// Every instruction restricts the model to the rendered candidate lines;
// none may introduce facts of its own.
var aspectInstructions = map[Aspect]string{
	AspectAddress: "Provide the address of the restaurant(s) the user is asking about, " +
		"or all addresses if none is named.",
	AspectPrice: "Describe the price range of the restaurant(s) mentioned, " +
		"or compare prices across all candidates if none is named.",
	AspectRating: "Provide the star rating of the restaurant(s) mentioned, " +
		"or all ratings if none specified.",
	AspectTV: "The candidate data does not include TV availability. " +
		"Tell the user plainly that this information is not available, " +
		"and offer the details that are listed instead.",
	AspectFamily: "Assess how suitable the restaurant(s) would be for a family with children, " +
		"using only the listed attributes such as outdoor seating.",
}

// groundingRule is appended to every candidate-backed prompt.
const groundingRule = "Answer using only the facts in the candidate list above. " +
	"If a detail is not listed, say it is not available instead of guessing. " +
	"If the user is looking for something specific that is not in these options, " +
	"politely suggest they try a different search term."

// Composer builds grounded prompts from an utterance, its aspect, and the
// candidate set. The prompt text never includes data that is not present in
// the candidate rendering; this is the hallucination-prevention contract the
// rest of the pipeline depends on.
type Composer struct {
	// bias steers AspectGeneral answers when the user gave no explicit
	// criteria. A product default, injected from config.
	bias string
}

// NewComposer creates a Composer with the given recommendation bias.
func NewComposer(bias string) *Composer {
	return &Composer{bias: bias}
}

// Compose builds the prompt for one turn.
//
// With no candidates it produces a clarification-seeking prompt: the model
// must ask for more detail (cuisine, location, budget) rather than fabricate
// results.
func (c *Composer) Compose(utterance string, aspect Aspect, candidates []restaurant.Restaurant) string {
	if len(candidates) == 0 {
		var b strings.Builder
		b.WriteString("You are a restaurant assistant. No relevant restaurants found for \"")
		b.WriteString(utterance)
		b.WriteString("\". Ask the user for more details, such as cuisine, location, or budget, ")
		b.WriteString("to provide better recommendations. Do not suggest any specific restaurant.")
		return b.String()
	}

	var b strings.Builder
	b.WriteString("You are a helpful restaurant assistant.\n")
	b.WriteString("User asked: \"")
	b.WriteString(utterance)
	b.WriteString("\"\n")
	b.WriteString("Here are the restaurant candidates that might match:\n")
	for _, cand := range candidates {
		b.WriteString(cand.ContextLine())
		b.WriteString("\n")
	}
	b.WriteString(c.instruction(aspect))
	b.WriteString("\n")
	b.WriteString(groundingRule)
	return b.String()
}

// instruction returns the aspect-specific instruction text.
func (c *Composer) instruction(aspect Aspect) string {
	if text, ok := aspectInstructions[aspect]; ok {
		return text
	}
	// AspectGeneral (and any unknown aspect) gets the recommendation
	// instruction with the configured bias.
	text := "Recommend the best matching option(s) for the request."
	if c.bias != "" {
		text += " When the user gives no specific criteria, " + c.bias + "."
	}
	return text
}
