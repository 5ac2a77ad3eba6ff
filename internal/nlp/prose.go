package nlp

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
)

// ProsePipeline annotates input with the prose tagger and entity
// extractor, then layers lemmas and preposition-object labels on top.
// Construction loads the model data; Annotate is CPU-only and safe for
// concurrent use.
type ProsePipeline struct{}

// NewProsePipeline builds the pipeline and verifies the model works by
// annotating a probe sentence. A failure here is reported to the caller,
// which is expected to downgrade to lexical matching, not to retry.
func NewProsePipeline() (*ProsePipeline, error) {
	p := &ProsePipeline{}
	if _, err := p.Annotate("list files"); err != nil {
		return nil, fmt.Errorf("annotation probe failed: %w", err)
	}
	return p, nil
}

// Annotate runs tokenization, tagging and entity extraction on text.
func (p *ProsePipeline) Annotate(text string) (ann *Annotation, err error) {
	defer func() {
		if r := recover(); r != nil {
			ann = nil
			err = fmt.Errorf("annotation pipeline panic: %v", r)
		}
	}()

	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("annotate: %w", err)
	}

	var toks []Token
	for _, t := range doc.Tokens() {
		lower := strings.ToLower(t.Text)
		toks = append(toks, Token{
			Text:  t.Text,
			Lower: lower,
			Lemma: Lemma(lower),
			Tag:   t.Tag,
			POS:   CoarsePOS(t.Tag),
		})
	}
	labelObjects(toks)

	var ents []Entity
	offset := 0
	for _, e := range doc.Entities() {
		// prose does not carry offsets; recover them by forward search so
		// repeated entity text maps to distinct spans
		idx := strings.Index(text[offset:], e.Text)
		if idx < 0 {
			idx = strings.Index(text, e.Text)
			if idx < 0 {
				continue
			}
			offset = 0
		}
		start := offset + idx
		ents = append(ents, Entity{
			Text:  e.Text,
			Label: e.Label,
			Start: start,
			End:   start + len(e.Text),
		})
		offset = start + len(e.Text)
	}

	return &Annotation{Tokens: toks, Entities: ents}, nil
}
