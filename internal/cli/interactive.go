package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rapid-labs/rapid/internal/assistant"
	"github.com/rapid-labs/rapid/internal/templates"
)

// initSelection holds the answers gathered by promptInit.
type initSelection struct {
	Language   templates.Language
	Assistants []assistant.Name
}

// promptInit walks the user through language and assistant selection using
// numbered menus. Defaults are used when the user just presses enter.
func promptInit(reader *bufio.Reader, w io.Writer, def initSelection) (*initSelection, error) {
	langs := templates.Languages()
	labels := make([]string, len(langs))
	defIdx := 0
	for i, l := range langs {
		labels[i] = fmt.Sprintf("%s (%s)", l.DisplayName(), l)
		if l == def.Language {
			defIdx = i
		}
	}

	idx, err := selectFromList(reader, w, "Select language:", labels, defIdx)
	if err != nil {
		return nil, err
	}

	names := assistant.All()
	labels = make([]string, len(names))
	var defaults []int
	for i, n := range names {
		p, _ := assistant.Lookup(n)
		labels[i] = fmt.Sprintf("%s - %s", p.DisplayName, p.Description)
		for _, d := range def.Assistants {
			if d == n {
				defaults = append(defaults, i)
			}
		}
	}

	picked, err := selectMany(reader, w, "Select assistants (comma-separated):", labels, defaults)
	if err != nil {
		return nil, err
	}

	sel := &initSelection{Language: langs[idx]}
	for _, i := range picked {
		sel.Assistants = append(sel.Assistants, names[i])
	}
	return sel, nil
}

// selectFromList presents a numbered list and returns the selected index.
func selectFromList(reader *bufio.Reader, w io.Writer, prompt string, items []string, def int) (int, error) {
	fmt.Fprintf(w, "\n%s\n", prompt)
	for i, item := range items {
		fmt.Fprintf(w, "  %d) %s\n", i+1, item)
	}
	fmt.Fprintf(w, "Enter number [1-%d] (default %d): ", len(items), def+1)

	line, err := readLine(reader)
	if err != nil {
		return 0, fmt.Errorf("reading selection: %w", err)
	}
	if line == "" {
		return def, nil
	}

	num, err := strconv.Atoi(line)
	if err != nil || num < 1 || num > len(items) {
		return 0, fmt.Errorf("invalid selection %q: choose 1-%d", line, len(items))
	}
	return num - 1, nil
}

// selectMany is selectFromList for comma-separated multi-selection.
// Duplicates are dropped and input order is kept.
func selectMany(reader *bufio.Reader, w io.Writer, prompt string, items []string, defs []int) ([]int, error) {
	fmt.Fprintf(w, "\n%s\n", prompt)
	for i, item := range items {
		fmt.Fprintf(w, "  %d) %s\n", i+1, item)
	}
	defLabels := make([]string, len(defs))
	for i, d := range defs {
		defLabels[i] = strconv.Itoa(d + 1)
	}
	fmt.Fprintf(w, "Enter numbers [1-%d] (default %s): ", len(items), strings.Join(defLabels, ","))

	line, err := readLine(reader)
	if err != nil {
		return nil, fmt.Errorf("reading selection: %w", err)
	}
	if line == "" {
		return defs, nil
	}

	seen := make(map[int]bool)
	var out []int
	for _, field := range strings.Split(line, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		num, err := strconv.Atoi(field)
		if err != nil || num < 1 || num > len(items) {
			return nil, fmt.Errorf("invalid selection %q: choose 1-%d", field, len(items))
		}
		if !seen[num-1] {
			seen[num-1] = true
			out = append(out, num-1)
		}
	}
	if len(out) == 0 {
		return defs, nil
	}
	return out, nil
}

// confirm asks a Y/n question; an empty answer means yes.
func confirm(reader *bufio.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "? %s (Y/n) ", question)
	line, err := readLine(reader)
	if err != nil {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	answer := strings.ToLower(line)
	return answer == "" || answer == "y" || answer == "yes", nil
}

// readLine returns the next trimmed line. A final line without a newline is
// accepted; EOF with no input is an error.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
