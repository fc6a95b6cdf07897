package incident

import (
	"fmt"
	"math"
)

// weightSumTolerance absorbs float drift when validating that a provider's
// category weights sum to 1.0.
const weightSumTolerance = 1e-6

// Weight is one (category, weight) entry in a provider's failure profile.
type Weight struct {
	Category Category
	Value    float64
}

// Outcome is the result of classifying one failed attempt.
type Outcome struct {
	Category             Category
	RequiresIntervention bool
	Intervention         Kind // KindNone unless RequiresIntervention
}

// Classifier selects a failure category for a failed attempt from a
// provider-specific weighted distribution. It is pure: the random draw is
// supplied by the caller, so tests can force any branch.
type Classifier struct {
	profiles map[string][]Weight
}

// NewClassifier builds a Classifier from per-provider failure profiles.
// Every provider that can appear in the attempt batch must have a profile;
// classification of an unknown provider is a configuration error, never a
// silent default.
func NewClassifier(profiles map[string][]Weight) (*Classifier, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("classifier: no provider profiles configured")
	}
	for provider, table := range profiles {
		if len(table) == 0 {
			return nil, fmt.Errorf("classifier: provider %q has an empty profile", provider)
		}
		var sum float64
		for _, w := range table {
			if !w.Category.valid() {
				return nil, fmt.Errorf("classifier: provider %q: invalid category %d", provider, int(w.Category))
			}
			if w.Value < 0 {
				return nil, fmt.Errorf("classifier: provider %q: negative weight for %s", provider, w.Category)
			}
			sum += w.Value
		}
		if math.Abs(sum-1.0) > weightSumTolerance {
			return nil, fmt.Errorf("classifier: provider %q: weights sum to %.6f, want 1.0", provider, sum)
		}
	}
	cp := make(map[string][]Weight, len(profiles))
	for provider, table := range profiles {
		cp[provider] = append([]Weight(nil), table...)
	}
	return &Classifier{profiles: cp}, nil
}

// Knows reports whether a profile exists for the given provider.
func (c *Classifier) Knows(provider string) bool {
	_, ok := c.profiles[provider]
	return ok
}

// Classify picks a failure category for the provider using draw, a uniform
// random value in [0,1): it walks the profile accumulating weights and
// selects the first category whose cumulative weight reaches the draw.
// If rounding leaves no category selected, DefaultCategory applies — the
// walk itself never fails. Only an unknown provider is an error.
func (c *Classifier) Classify(provider string, draw float64) (Outcome, error) {
	table, ok := c.profiles[provider]
	if !ok {
		return Outcome{}, fmt.Errorf("classifier: no failure profile for provider %q", provider)
	}

	category := DefaultCategory
	var cumulative float64
	for _, w := range table {
		cumulative += w.Value
		if draw <= cumulative {
			category = w.Category
			break
		}
	}

	return Outcome{
		Category:             category,
		RequiresIntervention: category.RequiresIntervention(),
		Intervention:         category.Intervention(),
	}, nil
}
