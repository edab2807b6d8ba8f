package book

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/ztrue/tracerr"
)

// IsInputGenreValid resolves input to a genre by case-insensitive name or 1-based index.
// The first genre in list order that matches wins.
func IsInputGenreValid(genres []Genre, input string) (Genre, bool) {
	for i, genre := range genres {
		if strings.EqualFold(input, genre.Name) || input == strconv.Itoa(i+1) {
			return genre, true
		}
	}
	return Genre{}, false
}

// suggestThreshold is the Jaro-Winkler similarity a rejected answer needs before
// the closest genre name is offered back as a hint.
const suggestThreshold = 0.85

// Suggest returns the genre whose name is closest to input, if close enough.
// It never changes what IsInputGenreValid accepts.
func Suggest(genres []Genre, input string) (Genre, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return Genre{}, false
	}

	best, bestScore := -1, suggestThreshold
	for i, genre := range genres {
		score := matchr.JaroWinkler(input, strings.ToLower(genre.Name), false)
		if score >= bestScore && (best < 0 || score > bestScore) {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Genre{}, false
	}
	return genres[best], true
}

// RejectionMessage is shown when an answer matches no genre.
func RejectionMessage(genres []Genre, input string) string {
	if g, ok := Suggest(genres, input); ok {
		return fmt.Sprintf("Genre wasn't recognized, did you mean %q?", g.Name)
	}
	return "Genre wasn't recognized"
}

// PrintMenu writes the numbered genre list.
func PrintMenu(w io.Writer, genres []Genre) {
	fmt.Fprintln(w, "\nHere are the available genres: ")
	for i, genre := range genres {
		fmt.Fprintf(w, "[%d] %s\n", i+1, genre.Name)
	}
}

// SelectGenre prints the menu once and keeps prompting until a line resolves to a genre.
// It returns ErrNoSelection when input ends first.
func SelectGenre(in io.Reader, out io.Writer, genres []Genre) (Genre, error) {
	PrintMenu(out, genres)

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "\nPlease select one: ")

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Genre{}, tracerr.Wrap(err)
		}

		input := strings.TrimSpace(line)
		if input != "" || err == nil {
			if genre, ok := IsInputGenreValid(genres, input); ok {
				return genre, nil
			}
			fmt.Fprintln(out, RejectionMessage(genres, input))
		}

		if err != nil {
			fmt.Fprintln(out)
			return Genre{}, tracerr.Wrap(ErrNoSelection)
		}
	}
}
