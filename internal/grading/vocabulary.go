package grading

import "strings"

// Vocabulary lists the trailing words the normalizer strips from answers.
// Nouns not listed here are kept, so new worksheet topics may need their
// counted objects added through configuration.
type Vocabulary struct {
	// Nouns are counted objects ("7 strawberries").
	Nouns []string
	// Aggregates are totalling qualifiers ("altogether", "in total").
	Aggregates []string
	// Units are units of measure, abbreviated and full ("12cm", "3 hours").
	Units []string
}

// numberWords are the spelled-out answers a counted noun may follow
// ("seven apples").
var numberWords = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
	"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen",
	"eighteen", "nineteen", "twenty", "thirty", "forty", "fifty", "sixty", "seventy",
	"eighty", "ninety", "hundred", "thousand", "million", "half", "dozen",
}

// DefaultVocabulary returns the built-in word lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Nouns: []string{
			"apple", "apples", "strawberry", "strawberries", "orange", "oranges",
			"banana", "bananas", "tomato", "tomatoes", "egg", "eggs", "sweet", "sweets",
			"cookie", "cookies", "cake", "cakes", "cupcake", "cupcakes", "marble", "marbles",
			"pencil", "pencils", "book", "books", "sticker", "stickers", "ball", "balls",
			"flower", "flowers", "coin", "coins", "car", "cars", "toy", "toys",
			"child", "children", "people", "person", "student", "students",
			"bird", "birds", "fish", "dog", "dogs", "cat", "cats",
			"item", "items", "object", "objects", "thing", "things", "piece", "pieces",
			"point", "points", "pound", "pounds", "penny", "pence", "dollar", "dollars",
			"cent", "cents", "euro", "euros",
		},
		Aggregates: []string{"altogether", "in total", "in all", "total"},
		Units: []string{
			"mm", "cm", "m", "km", "millimetre", "millimetres", "millimeter", "millimeters",
			"centimetre", "centimetres", "centimeter", "centimeters", "metre", "metres",
			"meter", "meters", "kilometre", "kilometres", "kilometer", "kilometers",
			"mg", "g", "kg", "milligram", "milligrams", "gram", "grams", "kilogram", "kilograms",
			"ml", "l", "millilitre", "millilitres", "milliliter", "milliliters",
			"litre", "litres", "liter", "liters",
			"s", "sec", "secs", "second", "seconds", "min", "mins", "minute", "minutes",
			"h", "hr", "hrs", "hour", "hours", "day", "days", "week", "weeks",
		},
	}
}

// With returns a copy of v extended by extra nouns and units. Blank entries
// are ignored.
func (v Vocabulary) With(nouns, units []string) Vocabulary {
	out := Vocabulary{
		Nouns:      append([]string(nil), v.Nouns...),
		Aggregates: append([]string(nil), v.Aggregates...),
		Units:      append([]string(nil), v.Units...),
	}
	for _, n := range nouns {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			out.Nouns = append(out.Nouns, n)
		}
	}
	for _, u := range units {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			out.Units = append(out.Units, u)
		}
	}
	return out
}
