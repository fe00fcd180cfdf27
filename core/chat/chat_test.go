package chat

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnowledgeBase_Ask(t *testing.T) {
	kb, err := Default()
	require.NoError(t, err)

	tests := []struct {
		question    string
		wantKeyword string // empty: fallback
		wantPrefix  string
	}{
		{"Comment calculer le MTBF ?", "mtbf", "Le MTBF"},
		{"  mttr  ", "mttr", "Le MTTR"},
		{"Qu'est-ce que l'AMDEC ?", "amdec", "L'AMDEC"},
		{"what is FMEA", "fmea", "L'AMDEC"},
		{"Quelle DISPONIBILITÉ viser ?", "disponibilité", "La disponibilité"},
		{"OEE ?", "oee", "L'OEE"},
		{"Comment optimiser les PDR ?", "pdr", "Les PDR"},
		{"Différence maintenance préventive et prédictive ?", "préventive", "La maintenance préventive"},
		{"maintenance prédictive", "prédictive", "La maintenance prédictive"},
		{"seuil rpn", "rpn", "Le RPN"},
		// mtbf comes before rpn in the table
		{"rpn ou mtbf", "mtbf", "Le MTBF"},
		{"Bonjour", "", "Je peux vous aider"},
	}

	for _, tc := range tests {
		t.Run(tc.question, func(t *testing.T) {
			ans := kb.Ask(tc.question)
			assert.Equal(t, strings.TrimSpace(tc.question), ans.Question)
			assert.Equal(t, tc.wantKeyword != "", ans.Matched)
			assert.Equal(t, tc.wantKeyword, ans.Keyword)
			assert.True(t, strings.HasPrefix(ans.Answer, tc.wantPrefix), ans.Answer)
		})
	}
}

func TestKnowledgeBase_Intro(t *testing.T) {
	kb, err := Default()
	require.NoError(t, err)

	intro := kb.Intro()
	assert.True(t, strings.HasPrefix(intro.Greeting, "Bonjour !"))
	assert.Len(t, intro.Suggestions, 4)
	assert.Equal(t, []string{"Calculs KPI", "Analyse AMDEC", "Gestion stocks", "Stratégies maintenance"}, intro.Capabilities)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"valid", "fallback: non\nentries:\n  - keywords: [' Pompe ']\n    answer: oui\n", false},
		{"missing fallback", "entries: []\n", true},
		{"unknown field", "fallback: non\nanswers: []\n", true},
		{"entry without answer", "fallback: non\nentries:\n  - keywords: [a]\n", true},
		{"blank keyword", "fallback: non\nentries:\n  - keywords: ['  ']\n    answer: oui\n", true},
		{"malformed", "fallback: [", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kb, err := Parse([]byte(tc.data))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "pompe", kb.Entries[0].Keywords[0])
			assert.Equal(t, "oui", kb.Ask("La POMPE fuit").Answer)
			assert.Equal(t, []string{}, kb.Suggestions)
		})
	}
}

func TestLoad(t *testing.T) {
	kb, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, kb.Entries)

	fp := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, ioutil.WriteFile(fp, []byte("fallback: rien\n"), 0o644))
	kb, err = Load(fp)
	require.NoError(t, err)
	assert.Equal(t, "rien", kb.Ask("mtbf").Answer)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
