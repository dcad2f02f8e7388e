package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFlagger(t *testing.T, terms ...string) *Flagger {
	t.Helper()
	flagger, err := NewFlagger(terms)
	require.NoError(t, err)
	return flagger
}

func Test_Scan_Finds_Configured_Terms(t *testing.T) {
	req := require.New(t)
	flagger := newTestFlagger(t, "chest pain", "anaphylaxis", "suicidal")

	flags := flagger.Scan("patient describes chest pain radiating to the left arm")
	req.Equal([]string{"chest pain"}, flags)

	req.Empty(flagger.Scan("routine follow up, no complaints"))
}

func Test_Scan_Is_Insensitive_To_Case_And_Spacing(t *testing.T) {
	req := require.New(t)
	flagger := newTestFlagger(t, "chest pain")

	req.Equal([]string{"chest pain"}, flagger.Scan("sudden CHEST   PAIN this morning"))
	req.Equal([]string{"chest pain"}, flagger.Scan("complains of chest-pain on exertion"))
}

func Test_Scan_Strips_Accents(t *testing.T) {
	req := require.New(t)
	flagger := newTestFlagger(t, "reacción alérgica")

	req.Equal([]string{"reacción alérgica"}, flagger.Scan("presenta una reaccion alergica severa"))
}

func Test_Scan_Dedupes_In_First_Occurrence_Order(t *testing.T) {
	req := require.New(t)
	flagger := newTestFlagger(t, "chest pain", "dyspnea")

	flags := flagger.Scan("dyspnea at rest, then chest pain, then dyspnea again")
	req.Equal([]string{"dyspnea", "chest pain"}, flags)
}

func Test_Scan_Without_Terms_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	flagger := newTestFlagger(t)

	req.Empty(flagger.Scan("anything at all"))
}
