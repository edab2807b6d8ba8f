package book

import (
	"errors"
	"math/rand"
	"strings"
	"time"
)

const (
	DefaultAwardsURL = "https://www.goodreads.com/choiceawards/best-books-2020"

	genreSelector      = ".categoryContainer > .category.clearFix > a"
	modalCloseSelector = ".modal__close button"
	pollAnswerSelector = ".pollContents .inlineblock.pollAnswer.resultShown"
	tooltipSelector    = "section.tooltip.book-tooltip.js-tooltip"
	titleSelector      = "a.readable"
	authorSelector     = "a.authorName"
)

var (
	ErrNoGenres          = errors.New("no genres found")
	ErrNoCandidates      = errors.New("no candidate books found")
	ErrNoSelection       = errors.New("no genre selected")
	ErrIncompleteTooltip = errors.New("book tooltip is missing title or author")
)

type Genre struct {
	Name string
	Url  string
}

type Book struct {
	Title  string
	Author string
}

// Query is the text typed into a retailer search box.
func (b Book) Query() string {
	return strings.TrimSpace(b.Title + " " + b.Author)
}

func (b Book) String() string {
	return b.Query()
}

// Picker returns an index in [0, n).
type Picker func(n int) int

// RandomPicker picks uniformly using its own seeded source.
func RandomPicker() Picker {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return func(n int) int {
		return int(float64(n) * rng.Float64())
	}
}

// Source scrapes the awards site.
type Source struct {
	AwardsUrl string
	Pick      Picker
}

func NewSource(awardsUrl string) *Source {
	if awardsUrl == "" {
		awardsUrl = DefaultAwardsURL
	}
	return &Source{
		AwardsUrl: awardsUrl,
		Pick:      RandomPicker(),
	}
}
