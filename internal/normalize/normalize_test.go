package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Apple", "apple"},
		{"apples", "apple"},
		{"  APPLES  ", "apple"},
		{"Milk", "milk"},
		{"tomatoes", "tomato"},
		{"Green   Apples", "green apple"},
		{"cherries", "cherry"},
		{"knives", "knife"},
		{"halves", "half"},
		{"boxes", "box"},
		{"glasses", "glass"},
		{"pasta", "pasta"},
		{"Hummus", "hummus"},
		{"rice", "rice"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.in))
		})
	}
}

func TestName_NFC(t *testing.T) {
	// "é" as e + combining acute vs precomposed
	decomposed := "cafe\u0301"
	precomposed := "caf\u00e9"
	assert.Equal(t, Name(precomposed), Name(decomposed))
}

func TestName_Idempotent(t *testing.T) {
	inputs := []string{
		"Apple", "apples", "Bananas", "buses", "analyses", "knives", "mice",
		"people", "quizzes", "oxen", "vertices", "crises", "Shoes", "bus",
		"grass", "news", "Peanut Butter", "eggs", "Frozen Peas", "cookies",
		"leaves", "dishes", "status", "axes", "potatoes", "berries", "gas",
		"Ramen", "données", "Äpfel", "  spaced   out  words ",
		"bias", "tilapias", "Tilapia", "pancettas", "burratas", "stevias",
		"data", "bacteria", "criteria",
	}

	for _, in := range inputs {
		once := Name(in)
		assert.Equal(t, once, Name(once), "Name not idempotent for %q", in)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("Apple", "apples"))
	assert.True(t, Equal("Milk", "milk "))
	assert.False(t, Equal("Milk", "Oat milk"))
	assert.True(t, Equal("Tilapia", "tilapias"))
	assert.True(t, Equal("Frozen Pancetta", "frozen pancettas"))
	assert.Equal(t, "tilapia", Name("Tilapias"))
}

func TestSentenceCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"milk", "Milk"},
		{"MILK", "Milk"},
		{"mILK chocolate", "Milk chocolate"},
		{"  green  APPLES ", "Green apples"},
		{"élan", "Élan"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SentenceCase(tt.in))
		})
	}
}
