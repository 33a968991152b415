package chat

import (
	"testing"

	"github.com/platewise/platewise/internal/restaurant"
)

func TestClassify_Aspects(t *testing.T) {
	t.Parallel()

	cached := []restaurant.Restaurant{{Name: "Joe's"}}

	tests := []struct {
		name      string
		utterance string
		want      Aspect
	}{
		{"address keyword", "what's the address?", AspectAddress},
		{"price keyword", "is it expensive?", AspectPrice},
		{"cheap keyword", "any cheap options?", AspectPrice},
		{"rating keyword", "how are the reviews?", AspectRating},
		{"tv keyword", "do they have a TV?", AspectTV},
		{"family keyword", "good for kids?", AspectFamily},
		{"children keyword", "can I bring children", AspectFamily},
		{"no keyword", "somewhere romantic in Brooklyn", AspectGeneral},
		{"case insensitive", "WHAT IS THE ADDRESS", AspectAddress},
		{"substring match", "addressing my hunger", AspectAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Classify(tt.utterance, cached)
			if got.Aspect != tt.want {
				t.Errorf("Classify(%q).Aspect = %q, want %q", tt.utterance, got.Aspect, tt.want)
			}
		})
	}
}

// Precedence: the rule table is ordered, first match wins. "address" must
// beat "price" even when both appear.
func TestClassify_Precedence(t *testing.T) {
	t.Parallel()

	got := Classify("what's the address and the price?", nil)
	if got.Aspect != AspectAddress {
		t.Errorf("Aspect = %q, want %q (address outranks price)", got.Aspect, AspectAddress)
	}

	got = Classify("price and rating please", nil)
	if got.Aspect != AspectPrice {
		t.Errorf("Aspect = %q, want %q (price outranks rating)", got.Aspect, AspectPrice)
	}
}

func TestClassify_Reuse(t *testing.T) {
	t.Parallel()

	cached := []restaurant.Restaurant{{Name: "Joe's"}}

	// Keyword match with cache: reuse.
	if d := Classify("what's the price?", cached); !d.Reuse {
		fatalDecision(t, d, true)
	}

	// Keyword match but empty cache: fresh retrieval.
	if d := Classify("what's the price?", nil); d.Reuse {
		fatalDecision(t, d, false)
	}
	if d := Classify("what's the price?", []restaurant.Restaurant{}); d.Reuse {
		fatalDecision(t, d, false)
	}

	// No keyword match: never reuse, even with a warm cache.
	if d := Classify("find me sushi", cached); d.Reuse {
		fatalDecision(t, d, false)
	}
}

func fatalDecision(t *testing.T, d Decision, wantReuse bool) {
	t.Helper()
	t.Fatalf("Decision{Aspect: %q, Reuse: %v}, want Reuse = %v", d.Aspect, d.Reuse, wantReuse)
}
