// Package chat answers maintenance questions from a fixed knowledge base of canned responses.
package chat

import (
	"bytes"
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	appfs "github.com/trezcool/gmao/fs"
)

const defaultKnowledgeBase = "assets/chat.yaml"

type (
	Entry struct {
		Keywords []string `yaml:"keywords" json:"keywords"`
		Answer   string   `yaml:"answer" json:"answer"`
	}

	// KnowledgeBase is read-only once loaded.
	KnowledgeBase struct {
		Greeting     string   `yaml:"greeting"`
		Fallback     string   `yaml:"fallback"`
		Entries      []Entry  `yaml:"entries"`
		Suggestions  []string `yaml:"suggestions"`
		Capabilities []string `yaml:"capabilities"`
	}

	Question struct {
		Message string `json:"message" validate:"required,notblank,max=1000"`
	}

	Answer struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Matched  bool   `json:"matched"`
		Keyword  string `json:"keyword,omitempty"`
	}

	Intro struct {
		Greeting     string   `json:"greeting"`
		Suggestions  []string `json:"suggestions"`
		Capabilities []string `json:"capabilities"`
	}
)

// Parse decodes a YAML knowledge base. Unknown fields are rejected.
func Parse(data []byte) (*KnowledgeBase, error) {
	kb := new(KnowledgeBase)
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(kb); err != nil {
		return nil, errors.Wrap(err, "parsing knowledge base")
	}

	if strings.TrimSpace(kb.Fallback) == "" {
		return nil, errors.New("knowledge base: fallback is required")
	}
	for i, e := range kb.Entries {
		if strings.TrimSpace(e.Answer) == "" || len(e.Keywords) == 0 {
			return nil, errors.Errorf("knowledge base: entry %d needs keywords and an answer", i)
		}
		for j, kw := range e.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				return nil, errors.Errorf("knowledge base: entry %d has a blank keyword", i)
			}
			kb.Entries[i].Keywords[j] = kw
		}
	}
	if kb.Suggestions == nil {
		kb.Suggestions = []string{}
	}
	if kb.Capabilities == nil {
		kb.Capabilities = []string{}
	}
	return kb, nil
}

// Default returns the embedded knowledge base.
func Default() (*KnowledgeBase, error) {
	data, err := appfs.FS.ReadFile(defaultKnowledgeBase)
	if err != nil {
		return nil, errors.Wrap(err, "reading embedded knowledge base")
	}
	return Parse(data)
}

// Load reads the knowledge base at path, or the embedded one if path is empty.
func Load(path string) (*KnowledgeBase, error) {
	if path == "" {
		return Default()
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading knowledge base %s", path)
	}
	return Parse(data)
}

// Ask returns the answer of the first entry having a keyword contained in the question, case-insensitively.
func (kb *KnowledgeBase) Ask(question string) Answer {
	question = strings.TrimSpace(question)
	q := strings.ToLower(question)
	for _, e := range kb.Entries {
		for _, kw := range e.Keywords {
			if strings.Contains(q, kw) {
				return Answer{Question: question, Answer: e.Answer, Matched: true, Keyword: kw}
			}
		}
	}
	return Answer{Question: question, Answer: kb.Fallback}
}

func (kb *KnowledgeBase) Intro() Intro {
	return Intro{Greeting: kb.Greeting, Suggestions: kb.Suggestions, Capabilities: kb.Capabilities}
}
