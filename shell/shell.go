// Package shell is an interactive browser over a document repository.
package shell

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/samber/lo"

	"github.com/revelaction/naf/naf"
	"github.com/revelaction/naf/render"
	"github.com/revelaction/naf/stat"
	"github.com/revelaction/naf/storage"
)

const (
	completionThreshold = 1

	maxLemmaSuggestions = 50
)

var commands = []prompt.Suggest{
	{Text: "ls", Description: "list documents [match]"},
	{Text: "open", Description: "select a document"},
	{Text: "show", Description: "render a layer of the document [layer]"},
	{Text: "find", Description: "sentences containing all lemmas"},
	{Text: "stat", Description: "counts of the document"},
	{Text: "quit", Description: "leave the shell"},
}

type Handler struct {
	Repo storage.DocReader
	Out  io.Writer

	text *render.TextRenderer
	json bool

	name string
	doc  *naf.Document

	// completion data of the open document
	names  []string
	lemmas []string
}

func NewHandler(repo storage.DocReader, out io.Writer) *Handler {
	return &Handler{
		Repo: repo,
		Out:  out,
		text: render.NewTextRenderer(out),
	}
}

func (h *Handler) Run() error {
	fmt.Fprintln(h.Out, "🔑 Ctrl+F: toggle JSON, Ctrl+X: toggle color, 🔧 quit")

	docs, err := h.Repo.List("")
	if err != nil {
		return err
	}
	h.names = lo.Map(docs, func(d storage.Doc, _ int) string { return d.Name })

	history := []string{}
	for {
		in := prompt.Input(h.prefix(), h.completer,
			prompt.OptionTitle("naf shell"),
			prompt.OptionPrefixTextColor(prompt.Yellow),
			prompt.OptionPreviewSuggestionTextColor(prompt.Blue),
			prompt.OptionSelectedSuggestionBGColor(prompt.LightGray),
			prompt.OptionMaxSuggestion(12),
			prompt.OptionSuggestionBGColor(prompt.DarkGray),
			prompt.OptionHistory(history),
			prompt.OptionAddKeyBind(prompt.KeyBind{
				Key: prompt.ControlF,
				Fn: func(buf *prompt.Buffer) {
					h.json = !h.json
					fmt.Fprintf(h.Out, "JSON output set to %t\n", h.json)
				}}),
			prompt.OptionAddKeyBind(prompt.KeyBind{
				Key: prompt.ControlX,
				Fn: func(buf *prompt.Buffer) {
					h.text.HasColor = !h.text.HasColor
					fmt.Fprintf(h.Out, "Color set to %t\n", h.text.HasColor)
				}}),
		)

		history = append(history, in)
		quit, err := h.Exec(in)
		if quit {
			return nil
		}
		if err != nil {
			fmt.Fprintf(h.Out, "Error: %v\n", err)
		}
	}
}

func (h *Handler) prefix() string {
	if h.name == "" {
		return "      📂 "
	}
	return fmt.Sprintf("%s 🔖 ", h.name)
}

// Exec runs one command line. It reports whether the shell must end.
func (h *Handler) Exec(in string) (bool, error) {
	tokens := strings.Fields(in)
	if len(tokens) == 0 {
		return false, nil
	}

	args := tokens[1:]
	switch tokens[0] {
	case "quit", "exit":
		return true, nil
	case "ls":
		return false, h.ls(strings.Join(args, " "))
	case "open":
		if len(args) != 1 {
			return false, errors.New("usage: open <name>")
		}
		return false, h.open(args[0])
	}

	if h.doc == nil {
		return false, errors.New("no document open")
	}

	switch tokens[0] {
	case "show":
		var l naf.Layer
		if len(args) > 0 {
			l = naf.Layer(args[0])
		}
		return false, h.renderer().Render(h.doc, l)
	case "find":
		if len(args) == 0 {
			return false, errors.New("usage: find <lemma>...")
		}
		h.find(args)
		return false, nil
	case "stat":
		h.stat()
		return false, nil
	}
	return false, fmt.Errorf("unknown command %q", tokens[0])
}

func (h *Handler) renderer() render.Renderer {
	if h.json {
		return render.NewJSONRenderer(h.Out)
	}
	return h.text
}

func (h *Handler) ls(match string) error {
	docs, err := h.Repo.List(match)
	if err != nil {
		return err
	}
	for _, d := range docs {
		fmt.Fprintf(h.Out, "%s\t%s\t%s\t%q\n", d.Name, d.Lang, d.Version, d.Title)
	}
	return nil
}

func (h *Handler) open(name string) error {
	doc, err := h.Repo.Read(name)
	if err != nil {
		return err
	}
	h.doc = doc
	h.name = storage.Name(name)

	h.lemmas = lo.Uniq(lo.Map(doc.Terms(), func(t naf.Term, _ int) string { return t.Lemma }))
	sort.Strings(h.lemmas)
	return nil
}

// find prints the sentences of the open document holding a term for each
// of lemmas.
func (h *Handler) find(lemmas []string) {
	wfSent := map[string]string{}
	for _, wf := range h.doc.WordForms() {
		wfSent[wf.ID] = wf.Sent
	}

	// sentence -> lemmas it holds
	found := map[string]map[string]bool{}
	for _, t := range h.doc.Terms() {
		if !lo.Contains(lemmas, t.Lemma) || len(t.Span) == 0 {
			continue
		}
		s := wfSent[t.Span[0]]
		if found[s] == nil {
			found[s] = map[string]bool{}
		}
		found[s][t.Lemma] = true
	}

	for _, line := range h.text.Sentences(h.doc) {
		s, _, _ := strings.Cut(line, ":")
		if len(found[s]) == len(lo.Uniq(lemmas)) {
			fmt.Fprintln(h.Out, line)
		}
	}
}

func (h *Handler) stat() {
	sh := stat.NewHandler()
	sh.Aggregate(h.doc)
	s := sh.Get()
	fmt.Fprintf(h.Out, "sentences %d, tokens %d, terms %d, entities %d, deps %d, chunks %d, multiwords %d\n",
		s.NumSentences, s.NumTokens, s.NumTerms, s.NumEntities, s.NumDeps, s.NumChunks, s.NumMultiwords)
	fmt.Fprintf(h.Out, "tokens per sentence: mean %d\n", s.TokensPerSentenceMean)
	for _, n := range s.Distribution() {
		fmt.Fprintf(h.Out, "  %3d: %d\n", n, s.TokensPerSentenceDis[n])
	}
}

func (h *Handler) completer(in prompt.Document) []prompt.Suggest {
	return h.suggest(in.TextBeforeCursor())
}

// suggest completes the command line before the cursor: commands first,
// then document names, layers or lemmas depending on the command.
func (h *Handler) suggest(befCursor string) []prompt.Suggest {
	s := []prompt.Suggest{}
	if len(befCursor) < completionThreshold {
		return s
	}

	tokens := strings.Split(befCursor, " ")
	if len(tokens) == 1 {
		return prompt.FilterHasPrefix(commands, tokens[0], false)
	}

	word := tokens[len(tokens)-1]
	switch tokens[0] {
	case "open", "ls":
		for _, n := range h.names {
			if strings.HasPrefix(n, word) {
				s = append(s, prompt.Suggest{Text: n, Description: "📄"})
			}
		}
	case "show":
		if h.doc == nil || len(tokens) > 2 {
			return s
		}
		for _, l := range h.doc.LayerNames() {
			if strings.HasPrefix(l, word) {
				s = append(s, prompt.Suggest{Text: l, Description: "layer"})
			}
		}
	case "find":
		for _, l := range h.lemmas {
			if word != "" && strings.HasPrefix(l, word) {
				s = append(s, prompt.Suggest{Text: l, Description: "lemma"})
			}
			if len(s) == maxLemmaSuggestions {
				break
			}
		}
	}
	return s
}
