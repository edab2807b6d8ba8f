package book

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fictionRomance = []Genre{
	{Name: "Fiction", Url: "https://www.goodreads.com/choiceawards/best-fiction-books-2020"},
	{Name: "Romance", Url: "https://www.goodreads.com/choiceawards/best-romance-books-2020"},
}

func TestIsInputGenreValid(t *testing.T) {
	for _, input := range []string{"2", "romance", "Romance", "ROMANCE"} {
		genre, ok := IsInputGenreValid(fictionRomance, input)
		assert.True(t, ok, input)
		assert.Equal(t, fictionRomance[1], genre, input)
	}

	for _, input := range []string{"3", "0", "-1", "fictio", "", "02", "1.0", "Fiction "} {
		_, ok := IsInputGenreValid(fictionRomance, input)
		assert.False(t, ok, input)
	}
}

func TestIsInputGenreValidAcceptsExactlyNamesAndOrdinals(t *testing.T) {
	genres := []Genre{{Name: "Mystery & Thriller"}, {Name: "Science Fiction"}, {Name: "Poetry"}}

	accepted := map[string]bool{}
	for i, g := range genres {
		accepted[strings.ToLower(g.Name)] = true
		accepted[strconv.Itoa(i+1)] = true
	}

	candidates := []string{"0", "1", "2", "3", "4", "poetry", "POETRY", "Poetr", "science fiction",
		"sciencefiction", "mystery & thriller", "mystery", "", " ", "10"}
	for _, input := range candidates {
		_, ok := IsInputGenreValid(genres, input)
		assert.Equal(t, accepted[strings.ToLower(input)], ok, "input %q", input)
	}
}

func TestIsInputGenreValidFirstMatchWins(t *testing.T) {
	genres := []Genre{{Name: "2", Url: "a"}, {Name: "Horror", Url: "b"}, {Name: "horror", Url: "c"}}

	genre, ok := IsInputGenreValid(genres, "2")
	require.True(t, ok)
	assert.Equal(t, "a", genre.Url)

	genre, ok = IsInputGenreValid(genres, "HORROR")
	require.True(t, ok)
	assert.Equal(t, "b", genre.Url)
}

func TestSelectGenre(t *testing.T) {
	t.Run("accepts first valid line", func(t *testing.T) {
		var out bytes.Buffer
		genre, err := SelectGenre(strings.NewReader("romance\n"), &out, fictionRomance)
		require.NoError(t, err)
		assert.Equal(t, "Romance", genre.Name)
		assert.Contains(t, out.String(), "[1] Fiction\n[2] Romance\n")
		assert.Equal(t, 1, strings.Count(out.String(), "Please select one: "))
	})

	t.Run("reprompts on rejected input", func(t *testing.T) {
		var out bytes.Buffer
		genre, err := SelectGenre(strings.NewReader("3\nfictio\n  2  \n"), &out, fictionRomance)
		require.NoError(t, err)
		assert.Equal(t, "Romance", genre.Name)
		assert.Equal(t, 2, strings.Count(out.String(), "Genre wasn't recognized"))
		assert.Contains(t, out.String(), "Genre wasn't recognized\n")
		assert.Contains(t, out.String(), `did you mean "Fiction"?`)
		assert.Equal(t, 3, strings.Count(out.String(), "Please select one: "))
		assert.Equal(t, 1, strings.Count(out.String(), "Here are the available genres"))
	})

	t.Run("last line without newline", func(t *testing.T) {
		genre, err := SelectGenre(strings.NewReader("nope\n1"), &bytes.Buffer{}, fictionRomance)
		require.NoError(t, err)
		assert.Equal(t, "Fiction", genre.Name)
	})

	t.Run("many invalid lines", func(t *testing.T) {
		input := strings.Repeat("x\n", 10000) + "1\n"
		genre, err := SelectGenre(strings.NewReader(input), &bytes.Buffer{}, fictionRomance)
		require.NoError(t, err)
		assert.Equal(t, "Fiction", genre.Name)
	})

	t.Run("input ends", func(t *testing.T) {
		var out bytes.Buffer
		_, err := SelectGenre(strings.NewReader("horror\n"), &out, fictionRomance)
		assert.ErrorIs(t, err, ErrNoSelection)
		assert.Equal(t, 1, strings.Count(out.String(), "Genre wasn't recognized"))
	})
}

func TestSuggest(t *testing.T) {
	genres := []Genre{{Name: "Fiction"}, {Name: "Science Fiction"}, {Name: "Romance"}}

	g, ok := Suggest(genres, "romanse")
	require.True(t, ok)
	assert.Equal(t, "Romance", g.Name)

	g, ok = Suggest(genres, "FICTON")
	require.True(t, ok)
	assert.Equal(t, "Fiction", g.Name)

	for _, input := range []string{"", "  ", "7", "westerns"} {
		_, ok := Suggest(genres, input)
		assert.False(t, ok, input)
	}

	// a hint is only a hint
	_, ok = IsInputGenreValid(genres, "romanse")
	assert.False(t, ok)
}
