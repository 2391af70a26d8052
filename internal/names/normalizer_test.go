package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"lowercase", "jane doe", "Jane Doe"},
		{"uppercase", "JANE DOE", "Jane Doe"},
		{"extra whitespace", "  jane   doe  ", "Jane Doe"},
		{"middle name dropped", "John Adam Smith", "John Smith"},
		{"title and suffix dropped", "Dr. John Smith Jr.", "John Smith"},
		{"last comma first", "Doe, Jane", "Jane Doe"},
		{"comma suffix is not a reorder", "Smith, Jr.", "Smith"},
		{"surname particle kept lowercase", "ludwig VAN beethoven", "Ludwig van Beethoven"},
		{"hyphenated parts", "mary-jane smith-jones", "Mary-Jane Smith-Jones"},
		{"apostrophe", "shaquille o'neil", "Shaquille O'Neil"},
		{"mc prefix", "ronald MCDONALD", "Ronald McDonald"},
		{"mac prefix", "angus macgregor", "Angus MacGregor"},
		{"short mc word untouched", "john mcs", "John Mcs"},
		{"hyphen and apostrophe", "ann o'brien-mcneil", "Ann O'Brien-McNeil"},
		{"single token", "Madonna", "Madonna"},
		{"empty", "", ""},
		{"only whitespace", "   ", ""},
		{"correction table", "bari specter", "Bari Spector"},
		{"second correction", "Liy Zoberman", "Lily Zoberman"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := New(nil)

	inputs := []string{
		"jane doe",
		"Dr. John Adam Smith Jr.",
		"ludwig van beethoven",
		"Maria de la Cruz",
		"bari specter",
		"Doe, Jane",
		"ronald mcdonald",
		"shaquille o'neil",
		"",
	}

	for _, raw := range inputs {
		once := n.Normalize(raw)
		assert.Equal(t, once, n.Normalize(once), "input %q", raw)
	}
}

func TestLowercaseCorrectionTableIsIdempotent(t *testing.T) {
	n := New(map[string]string{"bari specter": "bari spector", "liy zoberman": "LILY ZOBERMAN"})

	once := n.Normalize("Bari Specter")
	assert.Equal(t, "Bari Spector", once)
	assert.Equal(t, once, n.Normalize(once))

	assert.Equal(t, "Lily Zoberman", n.Normalize("liy zoberman"))
	assert.Equal(t, n.Normalize("Lily Zoberman"), n.FromParts("Liy", "Zoberman"))
}

func TestFromParts(t *testing.T) {
	n := New(nil)

	assert.Equal(t, "Jane Doe", n.FromParts("jane", "doe"))
	assert.Equal(t, "Jane", n.FromParts("jane", ""))
	assert.Equal(t, "", n.FromParts("", ""))
	assert.Equal(t, "Bari Spector", n.FromParts("Bari", "Specter"))
}

func TestCustomCorrections(t *testing.T) {
	t.Run("keys are canonicalized", func(t *testing.T) {
		n := New(map[string]string{"jon  smith": "John Smith"})
		assert.Equal(t, "John Smith", n.Normalize("JON SMITH"))
	})

	t.Run("empty table disables defaults", func(t *testing.T) {
		n := New(map[string]string{})
		assert.Equal(t, "Bari Specter", n.Normalize("bari specter"))
	})
}

func TestSplitKey(t *testing.T) {
	first, last := SplitKey("Ludwig van Beethoven")
	assert.Equal(t, "Ludwig", first)
	assert.Equal(t, "van Beethoven", last)

	first, last = SplitKey("Madonna")
	assert.Equal(t, "Madonna", first)
	assert.Empty(t, last)
}
