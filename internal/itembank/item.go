// Package itembank holds calibrated test items, the query surface over them,
// and the information-maximizing item selector.
package itembank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/cogcat/internal/irt"
)

// TestItem is a published, calibrated item. Items are immutable once active.
type TestItem struct {
	ID           string         `json:"id"`
	Domain       Domain         `json:"domain"`
	Params       irt.ItemParams `json:"params"`
	MinAgeMonths int            `json:"min_age_months"`
	MaxAgeMonths int            `json:"max_age_months"`
	Content      Content        `json:"content"`
	Tags         []string       `json:"tags,omitempty"`
	Active       bool           `json:"active"`
}

// EligibleAt reports whether ageMonths falls inside the item's window.
func (it *TestItem) EligibleAt(ageMonths int) bool {
	return it.MinAgeMonths <= ageMonths && ageMonths <= it.MaxAgeMonths
}

// Content is the presentable payload of an item.
type Content struct {
	Type          string   `json:"type"` // multiple_choice, drag_drop, sequence, matching, touch_count
	Prompt        string   `json:"prompt"`
	PromptAudio   string   `json:"prompt_audio,omitempty"`
	Options       []Option `json:"options,omitempty"`
	CorrectAnswer Answer   `json:"correct_answer"`
	Instructions  string   `json:"instructions,omitempty"`
}

// Option is a selectable choice shown with an item.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Answer is either a single value or an unordered list of values.
type Answer struct {
	Scalar string
	List   []string
	IsList bool
}

// ScalarAnswer builds a single-value answer.
func ScalarAnswer(v string) Answer {
	return Answer{Scalar: v}
}

// ListAnswer builds a multi-value answer.
func ListAnswer(vs ...string) Answer {
	return Answer{List: vs, IsList: true}
}

// Empty reports whether the answer carries no value.
func (a Answer) Empty() bool {
	if a.IsList {
		return len(a.List) == 0
	}
	return a.Scalar == ""
}

// Matches reports whether a submitted response a equals the correct answer.
// A list response is correct only against a list answer with the same set of
// values; duplicates and order are ignored. A scalar response is compared
// for exact equality and never matches a list answer.
func (a Answer) Matches(correct Answer) bool {
	if a.IsList {
		if !correct.IsList {
			return false
		}
		return sameSet(a.List, correct.List)
	}
	if correct.IsList {
		return false
	}
	return a.Scalar == correct.Scalar
}

func sameSet(x, y []string) bool {
	xs := slices.Compact(slices.Sorted(slices.Values(x)))
	ys := slices.Compact(slices.Sorted(slices.Values(y)))
	return slices.Equal(xs, ys)
}

func (a Answer) String() string {
	if a.IsList {
		return "[" + strings.Join(a.List, ", ") + "]"
	}
	return a.Scalar
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsList {
		list := a.List
		if list == nil {
			list = []string{}
		}
		return json.Marshal(list)
	}
	return json.Marshal(a.Scalar)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("answer list: %w", err)
		}
		*a = Answer{List: list, IsList: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("answer must be a string or a list of strings: %w", err)
	}
	*a = Answer{Scalar: s}
	return nil
}
